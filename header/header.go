// Package header provides the keyword-addressed header card capability the
// compression engine reads and writes.
//
// The engine only depends on the Access interface. Header is a small ordered
// in-memory implementation for hosts that do not bring their own card store;
// it does not parse or format 80-column FITS cards.
package header

import (
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/fitstile/errs"
)

// Card is a single keyword/value pair.
//
// Value holds one of string, int64, float64 or bool.
type Card struct {
	Key     string
	Value   any
	Comment string
}

// Access is the header capability consumed by the compression engine.
type Access interface {
	// Card returns the card stored under key.
	Card(key string) (Card, bool)
	// Set adds the card or replaces the value of an existing one in place.
	Set(key string, value any, comment string)
	// Delete removes the card and reports whether it existed.
	Delete(key string) bool
}

// NormalizeKey upper-cases and trims a keyword.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// StringValue returns the value of a string card.
func (c Card) StringValue() (string, error) {
	s, ok := c.Value.(string)
	if !ok {
		return "", c.typeError("string")
	}

	return strings.TrimRight(s, " "), nil
}

// IntValue returns the value of an integer card. Integral floats are accepted.
func (c Card) IntValue() (int64, error) {
	switch v := c.Value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<63 {
			return int64(v), nil
		}
	}

	return 0, c.typeError("integer")
}

// FloatValue returns the value of a numeric card.
func (c Card) FloatValue() (float64, error) {
	switch v := c.Value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	}

	return 0, c.typeError("number")
}

// BoolValue returns the value of a logical card.
func (c Card) BoolValue() (bool, error) {
	b, ok := c.Value.(bool)
	if !ok {
		return false, c.typeError("logical")
	}

	return b, nil
}

func (c Card) typeError(want string) error {
	return fmt.Errorf("%s = %v is not a %s: %w", c.Key, c.Value, want, errs.ErrInvalidHeaderValue)
}

// Header is an ordered, in-memory card store.
//
// Header is not safe for concurrent mutation; the engine writes header cards
// once, after every tile has been processed.
type Header struct {
	cards []Card
	index map[string]int
}

var _ Access = (*Header)(nil)

// New creates an empty header.
func New() *Header {
	return &Header{index: make(map[string]int)}
}

// Card returns the card stored under key.
func (h *Header) Card(key string) (Card, bool) {
	i, ok := h.index[NormalizeKey(key)]
	if !ok {
		return Card{}, false
	}

	return h.cards[i], true
}

// Set adds the card or replaces the value of an existing one in place.
// Plain int values are stored as int64.
func (h *Header) Set(key string, value any, comment string) {
	key = NormalizeKey(key)
	switch v := value.(type) {
	case int:
		value = int64(v)
	case int32:
		value = int64(v)
	case float32:
		value = float64(v)
	}

	if i, ok := h.index[key]; ok {
		h.cards[i].Value = value
		if comment != "" {
			h.cards[i].Comment = comment
		}

		return
	}

	h.index[key] = len(h.cards)
	h.cards = append(h.cards, Card{Key: key, Value: value, Comment: comment})
}

// Delete removes the card and reports whether it existed.
func (h *Header) Delete(key string) bool {
	key = NormalizeKey(key)
	i, ok := h.index[key]
	if !ok {
		return false
	}

	h.cards = append(h.cards[:i], h.cards[i+1:]...)
	delete(h.index, key)
	for j := i; j < len(h.cards); j++ {
		h.index[h.cards[j].Key] = j
	}

	return true
}

// Cards returns the cards in insertion order.
func (h *Header) Cards() []Card {
	return h.cards
}

// Len returns the number of cards.
func (h *Header) Len() int {
	return len(h.cards)
}

// String returns the string value of key.
func String(h Access, key string) (string, bool, error) {
	c, ok := h.Card(key)
	if !ok {
		return "", false, nil
	}
	s, err := c.StringValue()

	return s, true, err
}

// Int returns the integer value of key.
func Int(h Access, key string) (int64, bool, error) {
	c, ok := h.Card(key)
	if !ok {
		return 0, false, nil
	}
	v, err := c.IntValue()

	return v, true, err
}

// Float returns the numeric value of key.
func Float(h Access, key string) (float64, bool, error) {
	c, ok := h.Card(key)
	if !ok {
		return 0, false, nil
	}
	v, err := c.FloatValue()

	return v, true, err
}

// Bool returns the logical value of key.
func Bool(h Access, key string) (bool, bool, error) {
	c, ok := h.Card(key)
	if !ok {
		return false, false, nil
	}
	v, err := c.BoolValue()

	return v, true, err
}

// RequireInt returns the integer value of a mandatory card.
func RequireInt(h Access, key string) (int64, error) {
	v, ok, err := Int(h, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%s: %w", NormalizeKey(key), errs.ErrMissingHeaderCard)
	}

	return v, nil
}

// RequireString returns the string value of a mandatory card.
func RequireString(h Access, key string) (string, error) {
	v, ok, err := String(h, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", NormalizeKey(key), errs.ErrMissingHeaderCard)
	}

	return v, nil
}
