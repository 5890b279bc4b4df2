package param

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/arloliu/fitstile/compress"
	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/header"
	"github.com/arloliu/fitstile/quantize"
	"github.com/arloliu/fitstile/table"
	"github.com/stretchr/testify/require"
)

func quantizedSet() *Set {
	q := quantize.DefaultConfig()
	q.Dither0 = 7

	s := NewSet(format.CompressionRice1, q, &compress.RiceOption{BlockSize: 16, BytePix: 4})
	s.HasBlank = true
	s.Blank = int64(quantize.NullValue)
	s.NullMask = true

	return s
}

func TestSet_HeaderRoundTrip(t *testing.T) {
	s := quantizedSet()
	require.NoError(t, s.Validate())

	h := header.New()
	require.NoError(t, s.SetValuesInHeader(h))

	v, err := header.RequireString(h, KeyCompressionType)
	require.NoError(t, err)
	require.Equal(t, "RICE_1", v)

	v, err = header.RequireString(h, KeyQuantize)
	require.NoError(t, err)
	require.Equal(t, "SUBTRACTIVE_DITHER_1", v)

	v, err = header.RequireString(h, "ZNAME1")
	require.NoError(t, err)
	require.Equal(t, NameBlockSize, v)

	got := NewSet(format.CompressionNone, quantize.Config{}, nil)
	require.NoError(t, got.GetValuesFromHeader(h))

	require.Equal(t, format.CompressionRice1, got.Algorithm)
	require.Equal(t, format.QuantizeDither1, got.Quantize.Method)
	require.Equal(t, 7, got.Quantize.Dither0)
	require.Equal(t, quantize.NullValue, got.Quantize.Blank)
	require.True(t, got.HasBlank)
	require.True(t, got.NullMask)
	require.Equal(t, format.CompressionGzip1, got.MaskAlgorithm)
	require.Equal(t, &compress.RiceOption{BlockSize: 16, BytePix: 4}, got.Option)
}

func TestSet_HCompressOptions(t *testing.T) {
	s := NewSet(format.CompressionHCompress, quantize.Config{}, &compress.HCompressOption{Scale: 3, Smooth: true})

	h := header.New()
	require.NoError(t, s.SetValuesInHeader(h))
	_, ok := h.Card(KeyQuantize)
	require.False(t, ok)
	_, ok = h.Card(KeyDither0)
	require.False(t, ok)

	// SCALE may be written as a float by other writers.
	h.Set("ZVAL1", 3.0, "")

	got := NewSet(format.CompressionNone, quantize.Config{}, nil)
	require.NoError(t, got.GetValuesFromHeader(h))
	require.Equal(t, &compress.HCompressOption{Scale: 3, Smooth: true}, got.Option)
	require.False(t, got.Quantized())
}

func TestSet_OptionScan(t *testing.T) {
	base := func() *header.Header {
		h := header.New()
		h.Set(KeyCompressionType, "RICE_1", "")
		return h
	}

	t.Run("stops at first gap", func(t *testing.T) {
		h := base()
		h.Set("ZNAME1", "NOISEBIT", "")
		h.Set("ZVAL1", 4, "")
		h.Set("ZNAME2", "BLOCKSIZE", "")
		h.Set("ZVAL2", 64, "")
		h.Set("ZNAME4", "BYTEPIX", "")
		h.Set("ZVAL4", 2, "")

		s := NewSet(format.CompressionRice1, quantize.Config{}, nil)
		require.NoError(t, s.GetValuesFromHeader(h))
		require.Equal(t, &compress.RiceOption{BlockSize: 64}, s.Option)
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		h := base()
		h.Set("ZNAME1", "BLOCKSIZE", "")
		h.Set("ZVAL1", 32, "")
		h.Set("ZNAME2", "blocksize", "")
		h.Set("ZVAL2", 16, "")

		s := NewSet(format.CompressionRice1, quantize.Config{}, nil)
		err := s.GetValuesFromHeader(h)
		require.ErrorIs(t, err, errs.ErrDuplicateParameter)
		require.Contains(t, err.Error(), "ZNAME1 and ZNAME2")
	})

	t.Run("missing value", func(t *testing.T) {
		h := base()
		h.Set("ZNAME1", "BLOCKSIZE", "")

		s := NewSet(format.CompressionRice1, quantize.Config{}, nil)
		require.ErrorIs(t, s.GetValuesFromHeader(h), errs.ErrMissingHeaderCard)
	})

	t.Run("rewrite replaces old sequence", func(t *testing.T) {
		h := base()
		for _, k := range []string{"ZNAME1", "ZNAME2", "ZNAME3"} {
			h.Set(k, "OLD"+k, "")
		}

		s := NewSet(format.CompressionRice1, quantize.Config{}, nil)
		require.NoError(t, s.SetValuesInHeader(h))
		_, ok := h.Card("ZNAME3")
		require.False(t, ok)
		name, _, _ := header.String(h, "ZNAME2")
		require.Equal(t, NameBytePix, name)
	})
}

func TestSet_HeaderErrors(t *testing.T) {
	s := NewSet(format.CompressionGzip1, quantize.Config{}, nil)

	h := header.New()
	require.ErrorIs(t, s.GetValuesFromHeader(h), errs.ErrMissingHeaderCard)

	h.Set(KeyCompressionType, "PLIO_1", "")
	require.ErrorIs(t, s.GetValuesFromHeader(h), errs.ErrUnknownAlgorithm)

	h.Set(KeyCompressionType, "GZIP_1", "")
	h.Set(KeyQuantize, "SUBTRACTIVE_DITHER_3", "")
	require.ErrorIs(t, s.GetValuesFromHeader(h), errs.ErrInvalidQuantization)

	h.Set(KeyQuantize, "SUBTRACTIVE_DITHER_2", "")
	require.ErrorIs(t, s.GetValuesFromHeader(h), errs.ErrMissingHeaderCard)

	h.Set(KeyDither0, 20000, "")
	require.ErrorIs(t, s.GetValuesFromHeader(h), errs.ErrInvalidHeaderValue)
}

func TestSet_Validate(t *testing.T) {
	s := NewSet(format.CompressionGzip1, quantize.Config{}, &compress.RiceOption{})
	require.ErrorIs(t, s.Validate(), errs.ErrInvalidConfig)

	s = NewSet(format.CompressionType(99), quantize.Config{}, nil)
	require.ErrorIs(t, s.Validate(), errs.ErrUnknownAlgorithm)

	q := quantize.DefaultConfig()
	q.QLevel = 0
	s = NewSet(format.CompressionRice1, q, nil)
	require.ErrorIs(t, s.Validate(), errs.ErrInvalidConfig)
}

func TestSet_Columns(t *testing.T) {
	s := quantizedSet()
	h := header.New()
	tbl := table.New(0)

	require.NoError(t, s.InitializeColumns(h, tbl, 4))
	require.Equal(t, 4, tbl.Rows())
	require.ElementsMatch(t, []string{ColumnScale, ColumnZero, ColumnMask}, tbl.ColumnNames())
	n, ok, err := table.FindColumnCard(h, ColumnMask)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, n)

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tile := &Tile{Quant: quantize.State{Scale: float64(i + 1), Zero: float64(10 * i)}}
			if i == 2 {
				tile.Mask = []byte{1, 2, 3}
			}
			require.NoError(t, s.SetValuesInColumn(i, tile))
		}()
	}
	wg.Wait()

	// Read back through a fresh set bound to the same storage.
	require.NoError(t, s.SetValuesInHeader(h))
	got := NewSet(format.CompressionNone, quantize.Config{}, nil)
	require.NoError(t, got.GetValuesFromHeader(h))
	require.NoError(t, got.BindColumns(h, tbl))

	for i := range 4 {
		var tile Tile
		require.NoError(t, got.GetValuesFromColumn(i, &tile))
		require.Equal(t, float64(i+1), tile.Quant.Scale)
		require.Equal(t, float64(10*i), tile.Quant.Zero)
		require.Equal(t, quantize.TileSeed(i, 7), tile.Quant.DitherSeed)
		require.True(t, tile.Quant.Dithered)
		require.Equal(t, quantize.NullValue, tile.Quant.Blank)
		if i == 2 {
			require.Equal(t, []byte{1, 2, 3}, tile.Mask)
		} else {
			require.Nil(t, tile.Mask)
		}
	}

	require.ErrorIs(t, got.GetValuesFromColumn(4, &Tile{}), errs.ErrRowOutOfRange)
}

func TestSet_BlankColumn(t *testing.T) {
	s := NewSet(format.CompressionGzip1, quantize.Config{}, nil)
	s.HasBlank = true
	s.BlankInColumn = true

	h := header.New()
	tbl := table.New(2)
	require.NoError(t, s.InitializeColumns(h, tbl, 2))
	require.NoError(t, s.SetValuesInColumn(0, &Tile{Blank: -99}))
	require.NoError(t, s.SetValuesInColumn(1, &Tile{Blank: -77}))
	require.NoError(t, s.SetValuesInHeader(h))

	_, ok := h.Card(KeyBlank)
	require.False(t, ok)

	got := NewSet(format.CompressionNone, quantize.Config{}, nil)
	require.NoError(t, got.GetValuesFromHeader(h))
	require.True(t, got.BlankInColumn)
	require.NoError(t, got.BindColumns(h, tbl))

	var tile Tile
	require.NoError(t, got.GetValuesFromColumn(1, &tile))
	require.Equal(t, int64(-77), tile.Blank)
}

func TestSet_BlankColumnForm(t *testing.T) {
	tests := []struct {
		name  string
		blank int64
		form  string
	}{
		{"int32 range", -99, table.FormInt32},
		{"int64 range", 1 << 40, table.FormInt64},
		{"below int32", math.MinInt32 - 1, table.FormInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet(format.CompressionGzip1, quantize.Config{}, nil)
			s.HasBlank = true
			s.Blank = tt.blank
			s.BlankInColumn = true

			h := header.New()
			tbl := table.New(1)
			require.NoError(t, s.InitializeColumns(h, tbl, 1))
			require.NoError(t, s.SetValuesInColumn(0, &Tile{Blank: tt.blank}))
			require.NoError(t, s.SetValuesInHeader(h))

			n, ok, err := table.FindColumnCard(h, ColumnBlank)
			require.NoError(t, err)
			require.True(t, ok)
			form, err := header.RequireString(h, fmt.Sprintf("TFORM%d", n))
			require.NoError(t, err)
			require.Equal(t, tt.form, form)

			got := NewSet(format.CompressionNone, quantize.Config{}, nil)
			require.NoError(t, got.GetValuesFromHeader(h))
			require.NoError(t, got.BindColumns(h, tbl))

			var tile Tile
			require.NoError(t, got.GetValuesFromColumn(0, &tile))
			require.Equal(t, tt.blank, tile.Blank)
		})
	}
}

func TestSet_BindMissingRequired(t *testing.T) {
	s := quantizedSet()
	require.ErrorIs(t, s.BindColumns(header.New(), table.New(1)), errs.ErrColumnNotFound)
}

func TestSet_NotReady(t *testing.T) {
	s := quantizedSet()
	require.ErrorIs(t, s.SetValuesInColumn(0, &Tile{}), errs.ErrColumnsNotReady)
}

func TestSet_Copy(t *testing.T) {
	s := NewSet(format.CompressionHCompress, quantize.Config{}, &compress.HCompressOption{Scale: 4})

	c := s.Copy(nil)
	c.Option.(*compress.HCompressOption).Smooth = true
	require.False(t, s.Option.(*compress.HCompressOption).Smooth)

	c2 := s.Copy(&compress.HCompressOption{Scale: 9})
	h := header.New()
	require.NoError(t, c2.SetValuesInHeader(h))
	v, _, _ := header.Int(h, "ZVAL1")
	require.Equal(t, int64(9), v)

	// The copy's header parameters write the copy, not the original.
	h2 := header.New()
	require.NoError(t, s.SetValuesInHeader(h2))
	v, _, _ = header.Int(h2, "ZVAL1")
	require.Equal(t, int64(4), v)
}
