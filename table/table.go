// Package table provides the column-addressed storage capability the
// compression engine reads and writes per tile.
//
// A Table holds named, typed columns that all have the same number of rows
// (one row per tile). Column storage is allocated once when the column is
// added and never reallocated, so workers may write disjoint rows of the same
// column concurrently without locking.
package table

import (
	"fmt"
	"strings"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/internal/hash"
)

// Column is a fixed-length typed column.
type Column[T any] struct {
	name string
	data []T
}

// Name returns the column name.
func (c *Column[T]) Name() string {
	return c.name
}

// Len returns the number of rows.
func (c *Column[T]) Len() int {
	return len(c.data)
}

// Get returns the value at row.
func (c *Column[T]) Get(row int) (T, error) {
	if row < 0 || row >= len(c.data) {
		var zero T
		return zero, fmt.Errorf("%s[%d] of %d rows: %w", c.name, row, len(c.data), errs.ErrRowOutOfRange)
	}

	return c.data[row], nil
}

// Set stores v at row.
func (c *Column[T]) Set(row int, v T) error {
	if row < 0 || row >= len(c.data) {
		return fmt.Errorf("%s[%d] of %d rows: %w", c.name, row, len(c.data), errs.ErrRowOutOfRange)
	}
	c.data[row] = v

	return nil
}

// Values returns the backing slice.
func (c *Column[T]) Values() []T {
	return c.data
}

type entry struct {
	id     uint64
	name   string
	column any // *Column[T]
}

// Table is a set of columns sharing one row count.
type Table struct {
	rows    int
	entries []entry
	byID    map[uint64]int
}

// New creates a table with the given number of rows. A table created with
// zero rows takes its row count from the first EnsureRows call.
func New(rows int) *Table {
	return &Table{rows: rows, byID: make(map[uint64]int)}
}

// Rows returns the row count.
func (t *Table) Rows() int {
	return t.rows
}

// EnsureRows fixes the row count of an empty table, or checks that an existing
// row count matches.
func (t *Table) EnsureRows(rows int) error {
	if rows < 0 {
		return fmt.Errorf("negative row count %d: %w", rows, errs.ErrInvalidConfig)
	}
	if t.rows == rows {
		return nil
	}
	if t.rows == 0 && len(t.entries) == 0 {
		t.rows = rows
		return nil
	}

	return fmt.Errorf("table has %d rows, need %d: %w", t.rows, rows, errs.ErrBufferSizeMismatch)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.entries)
}

// ColumnNames returns the column names in insertion order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.name
	}

	return names
}

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byID[hash.ColumnID(name)]
	return ok
}

// AddColumn adds a column of T with one zero value per row.
func AddColumn[T any](t *Table, name string) (*Column[T], error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	id := hash.ColumnID(name)
	if _, ok := t.byID[id]; ok {
		return nil, fmt.Errorf("column %s already exists: %w", name, errs.ErrInvalidConfig)
	}

	col := &Column[T]{name: name, data: make([]T, t.rows)}
	t.byID[id] = len(t.entries)
	t.entries = append(t.entries, entry{id: id, name: name, column: col})

	return col, nil
}

// GetColumn returns an existing column of T.
func GetColumn[T any](t *Table, name string) (*Column[T], error) {
	i, ok := t.byID[hash.ColumnID(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, errs.ErrColumnNotFound)
	}

	col, ok := t.entries[i].column.(*Column[T])
	if !ok {
		var zero T
		return nil, fmt.Errorf("%s is %T, not a %T column: %w", name, t.entries[i].column, zero, errs.ErrColumnType)
	}

	return col, nil
}
