package fitstile

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/param"
	"github.com/arloliu/fitstile/table"
	"github.com/arloliu/fitstile/tiled"
)

// TestRoundTrip_QuantizedWithNull compresses a 100x100 float image with one
// NaN through a lossless integer codec.
func TestRoundTrip_QuantizedWithNull(t *testing.T) {
	img := tiled.NewImage[float32](100, 100)
	rng := rand.New(rand.NewSource(1))
	for i := range img.Pixels {
		img.Pixels[i] = rng.Float32()
	}
	img.Pixels[4321] = float32(math.NaN())

	ctx := context.Background()
	res, err := Compress(ctx, img)
	require.NoError(t, err)
	require.Equal(t, 100, res.Stats.Tiles)

	got, err := Decompress[float32](ctx, res.Header, res.Table)
	require.NoError(t, err)

	scales, err := table.GetColumn[float64](res.Table, param.ColumnScale)
	require.NoError(t, err)
	for i, v := range img.Pixels {
		if i == 4321 {
			require.True(t, math.IsNaN(float64(got.Pixels[i])))
			continue
		}
		scale := scales.Values()[i/100]
		require.Greater(t, scale, 0.0)
		require.InDelta(t, v, got.Pixels[i], scale/2+1e-6, "pixel %d", i)
	}
}

func TestRoundTrip_Integers(t *testing.T) {
	img := tiled.NewImage[int16](64, 48)
	for i := range img.Pixels {
		img.Pixels[i] = int16(i % 700)
	}

	ctx := context.Background()
	res, err := Compress(ctx, img, tiled.WithAlgorithm(format.CompressionGzip2), tiled.WithTileShape(32, 16))
	require.NoError(t, err)
	require.Less(t, res.Stats.CompressionRatio(), 1.0)

	got, err := Decompress[int16](ctx, res.Header, res.Table)
	require.NoError(t, err)
	require.Equal(t, img.Pixels, got.Pixels)
}

func TestDecompressStream(t *testing.T) {
	payload := bytes.Repeat([]byte("SIMPLE  =                    T"), 100)

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := DecompressStream(context.Background(), buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, payload, got)

	_, err = DecompressStream(context.Background(), []byte("plain"))
	require.ErrorIs(t, err, errs.ErrNoStreamProvider)
}
