package param

import (
	"fmt"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/header"
	"github.com/arloliu/fitstile/table"
)

// columnParam binds a tile value to a typed table column.
type columnParam[T any] struct {
	name string
	form string
	// required columns must exist when reading.
	required bool
	// create makes InitializeColumns add the column when it is missing.
	create bool

	col  *table.Column[T]
	put  func(*Tile) T
	take func(*Tile, T)
}

func (c *columnParam[T]) Name() string {
	return c.name
}

func (c *columnParam[T]) InitializeColumn(h header.Access, t *table.Table) error {
	_, declared, err := findColumn(h, c.name)
	if err != nil {
		return err
	}
	if declared {
		return c.bind(t)
	}
	if !c.create {
		c.col = nil
		return nil
	}

	if _, err := table.DeclareColumn(h, c.name, c.form); err != nil {
		return err
	}
	col, err := table.AddColumn[T](t, c.name)
	if err != nil {
		return err
	}
	c.col = col

	return nil
}

func (c *columnParam[T]) BindColumn(h header.Access, t *table.Table) error {
	_, declared, err := findColumn(h, c.name)
	if err != nil {
		return err
	}
	if !declared {
		if c.required {
			return fmt.Errorf("%s: %w", c.name, errs.ErrColumnNotFound)
		}
		c.col = nil

		return nil
	}

	return c.bind(t)
}

func (c *columnParam[T]) bind(t *table.Table) error {
	col, err := table.GetColumn[T](t, c.name)
	if err != nil {
		return err
	}
	if col.Len() != t.Rows() {
		return fmt.Errorf("%s has %d rows, table has %d: %w", c.name, col.Len(), t.Rows(), errs.ErrBufferSizeMismatch)
	}
	c.col = col

	return nil
}

func (c *columnParam[T]) SetValueInColumn(index int, tile *Tile) error {
	if c.col == nil {
		if c.create || c.required {
			return fmt.Errorf("%s: %w", c.name, errs.ErrColumnsNotReady)
		}
		return nil
	}

	return c.col.Set(index, c.put(tile))
}

func (c *columnParam[T]) GetValueFromColumn(index int, tile *Tile) error {
	if c.col == nil {
		if c.required {
			return fmt.Errorf("%s: %w", c.name, errs.ErrColumnsNotReady)
		}
		return nil
	}

	v, err := c.col.Get(index)
	if err != nil {
		return err
	}
	c.take(tile, v)

	return nil
}

func findColumn(h header.Access, name string) (int, bool, error) {
	return table.FindColumnCard(h, name)
}
