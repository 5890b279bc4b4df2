package header

import (
	"testing"

	"github.com/arloliu/fitstile/errs"
	"github.com/stretchr/testify/require"
)

func TestHeader_SetAndCard(t *testing.T) {
	h := New()
	h.Set("zcmptype", "RICE_1", "compression algorithm")
	h.Set("ZBITPIX", -32, "")
	h.Set("ZSCALE", float32(0.5), "")

	c, ok := h.Card("ZCMPTYPE")
	require.True(t, ok)
	require.Equal(t, "ZCMPTYPE", c.Key)
	require.Equal(t, "compression algorithm", c.Comment)

	v, ok := h.Card("ZBITPIX")
	require.True(t, ok)
	require.Equal(t, int64(-32), v.Value)

	f, ok := h.Card("ZSCALE")
	require.True(t, ok)
	require.Equal(t, 0.5, f.Value)

	_, ok = h.Card("MISSING")
	require.False(t, ok)
}

func TestHeader_ReplaceKeepsOrder(t *testing.T) {
	h := New()
	h.Set("A", 1, "first")
	h.Set("B", 2, "")
	h.Set("A", 3, "")

	require.Equal(t, 2, h.Len())
	require.Equal(t, "A", h.Cards()[0].Key)
	require.Equal(t, int64(3), h.Cards()[0].Value)
	require.Equal(t, "first", h.Cards()[0].Comment)
}

func TestHeader_Delete(t *testing.T) {
	h := New()
	h.Set("A", 1, "")
	h.Set("B", 2, "")
	h.Set("C", 3, "")

	require.True(t, h.Delete("b"))
	require.False(t, h.Delete("B"))

	c, ok := h.Card("C")
	require.True(t, ok)
	require.Equal(t, int64(3), c.Value)
	require.Equal(t, 2, h.Len())
}

func TestTypedAccessors(t *testing.T) {
	h := New()
	h.Set("S", "NO_DITHER   ", "")
	h.Set("I", 42, "")
	h.Set("F", 2.0, "")
	h.Set("B", true, "")

	s, ok, err := String(h, "S")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "NO_DITHER", s)

	i, ok, err := Int(h, "I")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(42), i)

	i, _, err = Int(h, "F")
	require.NoError(t, err)
	require.Equal(t, int64(2), i)

	f, _, err := Float(h, "I")
	require.NoError(t, err)
	require.Equal(t, 42.0, f)

	b, ok, err := Bool(h, "B")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, b)

	_, _, err = Int(h, "S")
	require.ErrorIs(t, err, errs.ErrInvalidHeaderValue)

	_, _, err = Bool(h, "I")
	require.ErrorIs(t, err, errs.ErrInvalidHeaderValue)

	_, ok, err = String(h, "NONE")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRequire(t *testing.T) {
	h := New()
	h.Set("ZNAXIS", 2, "")
	h.Set("ZCMPTYPE", "GZIP_1", "")

	n, err := RequireInt(h, "ZNAXIS")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	s, err := RequireString(h, "zcmptype")
	require.NoError(t, err)
	require.Equal(t, "GZIP_1", s)

	_, err = RequireInt(h, "ZNAXIS1")
	require.ErrorIs(t, err, errs.ErrMissingHeaderCard)

	_, err = RequireString(h, "ZNAXIS")
	require.ErrorIs(t, err, errs.ErrInvalidHeaderValue)
}
