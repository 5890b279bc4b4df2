package hash

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// ColumnID computes the identifier of a table column name. FITS column names
// compare case-insensitively and ignore trailing blanks.
func ColumnID(name string) uint64 {
	return xxhash.Sum64String(strings.ToUpper(strings.TrimRight(name, " ")))
}
