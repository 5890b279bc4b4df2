package collision

import (
	"fmt"
	"strings"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/internal/hash"
)

// Tracker records the ZNAMEn parameter names seen while scanning a header and
// rejects a name that appears twice. Names compare case-insensitively.
type Tracker struct {
	names map[uint64]string // Hash → upper-cased name
	index map[uint64]int    // Hash → ZNAMEn index
}

// NewTracker creates a new name tracker.
func NewTracker() *Tracker {
	return &Tracker{
		names: make(map[uint64]string),
		index: make(map[uint64]int),
	}
}

// Track records the name found at ZNAMEn index n.
// It returns ErrDuplicateParameter when the name was already tracked.
func (t *Tracker) Track(name string, n int) error {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("ZNAME%d is empty: %w", n, errs.ErrInvalidHeaderValue)
	}

	h := hash.ID(key)
	if prev, exists := t.index[h]; exists && t.names[h] == key {
		return fmt.Errorf("%q in ZNAME%d and ZNAME%d: %w", key, prev, n, errs.ErrDuplicateParameter)
	}

	t.names[h] = key
	t.index[h] = n

	return nil
}
