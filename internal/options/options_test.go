package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type tileConfig struct {
	width  int
	height int
	name   string
}

func (c *tileConfig) Validate() error {
	if c.width*c.height > 1<<20 {
		return errors.New("tile too large")
	}

	return nil
}

func withWidth(w int) Option[*tileConfig] {
	return New(func(c *tileConfig) error {
		if w <= 0 {
			return errors.New("width must be positive")
		}
		c.width = w

		return nil
	})
}

func withHeight(h int) Option[*tileConfig] {
	return NoError(func(c *tileConfig) { c.height = h })
}

func withName(name string) Option[*tileConfig] {
	return NoError(func(c *tileConfig) { c.name = name })
}

func TestApply(t *testing.T) {
	t.Run("applies in order", func(t *testing.T) {
		cfg := &tileConfig{}
		err := Apply(cfg, withWidth(10), withHeight(4), withName("a"), withName("b"))
		require.NoError(t, err)
		require.Equal(t, 10, cfg.width)
		require.Equal(t, 4, cfg.height)
		require.Equal(t, "b", cfg.name)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &tileConfig{}
		err := Apply(cfg, withName("a"), withWidth(0), withHeight(4))
		require.EqualError(t, err, "width must be positive")
		require.Equal(t, "a", cfg.name)
		require.Zero(t, cfg.height)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &tileConfig{}
		require.NoError(t, Apply(cfg, nil, withHeight(2)))
		require.Equal(t, 2, cfg.height)
	})

	t.Run("no options", func(t *testing.T) {
		cfg := &tileConfig{width: 3}
		require.NoError(t, Apply(cfg))
		require.Equal(t, 3, cfg.width)
	})
}

func TestApplyAndValidate(t *testing.T) {
	cfg := &tileConfig{}
	require.NoError(t, ApplyAndValidate(cfg, withWidth(100), withHeight(100)))

	cfg = &tileConfig{}
	err := ApplyAndValidate(cfg, withWidth(2048), withHeight(2048))
	require.EqualError(t, err, "tile too large")

	cfg = &tileConfig{}
	err = ApplyAndValidate(cfg, withWidth(-1))
	require.EqualError(t, err, "width must be positive")
}
