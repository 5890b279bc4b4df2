package compress

import (
	"math/rand"
	"testing"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/stretchr/testify/require"
)

// smoothTile returns big-endian pixels of a noisy gradient.
func smoothTile(g Geometry, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	size := format.TypeOf(g.Kind).Size
	out := make([]byte, g.Size())

	for i := range g.Pixels() {
		v := uint64(100+i%g.Width+i/g.Width) + uint64(rng.Intn(4))
		if g.Kind == format.KindInt32 && i%7 == 0 {
			v = uint64(int64(-5000000 + rng.Intn(100)))
		}
		for b := range size {
			out[i*size+b] = byte(v >> (8 * (size - 1 - b)))
		}
	}

	return out
}

func TestControls_LosslessRoundTrip(t *testing.T) {
	reg := DefaultRegistry()

	algorithms := []format.CompressionType{
		format.CompressionNone, format.CompressionGzip1, format.CompressionGzip2,
		format.CompressionRice1, format.CompressionHCompress, format.CompressionZstd,
		format.CompressionLZ4, format.CompressionS2,
	}
	kinds := []format.ElementKind{
		format.KindUint8, format.KindInt16, format.KindInt32, format.KindInt64,
		format.KindFloat32, format.KindFloat64,
	}
	shapes := [][2]int{{1, 1}, {17, 3}, {64, 64}}

	for _, algo := range algorithms {
		for _, kind := range kinds {
			ctrl, err := reg.FindControl("", algo, kind)
			if err != nil {
				require.ErrorIs(t, err, errs.ErrUnsupportedElement, "%s/%s", algo, kind)
				continue
			}

			for _, shape := range shapes {
				g := Geometry{Width: shape[0], Height: shape[1], Kind: kind}
				t.Run(algo.String()+"/"+kind.String(), func(t *testing.T) {
					for _, src := range [][]byte{smoothTile(g, 1), randomBytes(g.Size(), 2)} {
						orig := append([]byte(nil), src...)

						out, ok, err := ctrl.Compress(src, g, nil)
						require.NoError(t, err)
						require.True(t, ok)
						require.Equal(t, orig, src, "input must not be modified")

						dst := make([]byte, g.Size())
						require.NoError(t, ctrl.Decompress(dst, out, g, nil))
						require.Equal(t, orig, dst)
					}
				})
			}
		}
	}
}

func randomBytes(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)

	return b
}

func TestRiceControl_Options(t *testing.T) {
	ctrl, err := DefaultRegistry().FindControl("", format.CompressionRice1, format.KindInt32)
	require.NoError(t, err)

	g := Geometry{Width: 40, Height: 10, Kind: format.KindInt32}
	small := make([]byte, g.Size())
	for i := range g.Pixels() {
		small[4*i+3] = byte(i % 50)
	}

	t.Run("narrow bytepix", func(t *testing.T) {
		opt := &RiceOption{BlockSize: 16, BytePix: 2}
		out, ok, err := ctrl.Compress(small, g, opt)
		require.NoError(t, err)
		require.True(t, ok)

		dst := make([]byte, g.Size())
		require.NoError(t, ctrl.Decompress(dst, out, g, opt))
		require.Equal(t, small, dst)
	})

	t.Run("values wider than bytepix decline", func(t *testing.T) {
		wide := append([]byte(nil), small...)
		wide[1] = 0x7F
		_, ok, err := ctrl.Compress(wide, g, &RiceOption{BytePix: 1})
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("option copy is independent", func(t *testing.T) {
		opt := DefaultRiceOption()
		cp := opt.Copy().(*RiceOption)
		cp.BlockSize = 16
		require.Equal(t, DefaultRiceBlockSize, opt.BlockSize)
	})

	_, _, err = ctrl.Compress(make([]byte, 8), Geometry{Width: 2, Height: 1, Kind: format.KindFloat32}, nil)
	require.ErrorIs(t, err, errs.ErrUnsupportedElement)
}

func TestHCompressControl_Lossy(t *testing.T) {
	ctrl, err := DefaultRegistry().FindControl("", format.CompressionHCompress, format.KindInt16)
	require.NoError(t, err)

	g := Geometry{Width: 32, Height: 32, Kind: format.KindInt16}
	src := smoothTile(g, 3)

	lossless, ok, err := ctrl.Compress(src, g, &HCompressOption{})
	require.NoError(t, err)
	require.True(t, ok)

	lossy, ok, err := ctrl.Compress(src, g, &HCompressOption{Scale: 8})
	require.NoError(t, err)
	require.True(t, ok)
	require.Less(t, len(lossy), len(lossless))

	dst := make([]byte, g.Size())
	require.NoError(t, ctrl.Decompress(dst, lossy, g, &HCompressOption{Scale: 8, Smooth: true}))

	opt := &HCompressOption{Scale: 2}
	cp := opt.Copy().(*HCompressOption)
	cp.Smooth = true
	require.False(t, opt.Smooth)
}

func TestControls_GeometryErrors(t *testing.T) {
	ctrl, err := DefaultRegistry().FindControl("", format.CompressionGzip1, format.KindInt16)
	require.NoError(t, err)

	_, _, err = ctrl.Compress(make([]byte, 6), Geometry{Width: 2, Height: 2, Kind: format.KindInt16}, nil)
	require.ErrorIs(t, err, errs.ErrBufferSizeMismatch)

	_, _, err = ctrl.Compress(nil, Geometry{Width: 0, Height: 2, Kind: format.KindInt16}, nil)
	require.ErrorIs(t, err, errs.ErrInvalidTileSize)

	out, _, err := ctrl.Compress(make([]byte, 8), Geometry{Width: 2, Height: 2, Kind: format.KindInt16}, nil)
	require.NoError(t, err)

	// Payload decompresses to the wrong tile size.
	err = ctrl.Decompress(make([]byte, 4), out, Geometry{Width: 1, Height: 2, Kind: format.KindInt16}, nil)
	require.ErrorIs(t, err, errs.ErrCorruptData)

	err = ctrl.Decompress(make([]byte, 8), []byte("garbage"), Geometry{Width: 2, Height: 2, Kind: format.KindInt16}, nil)
	require.ErrorIs(t, err, errs.ErrCorruptData)
}

func TestShuffle(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, len(src))

	require.NoError(t, Shuffle(dst, src, 4))
	require.Equal(t, []byte{1, 5, 2, 6, 3, 7, 4, 8}, dst)

	back := make([]byte, len(src))
	require.NoError(t, Unshuffle(back, dst, 4))
	require.Equal(t, src, back)

	require.ErrorIs(t, Shuffle(dst[:7], src[:7], 4), errs.ErrBufferSizeMismatch)
	require.ErrorIs(t, Shuffle(dst, src, 0), errs.ErrBufferSizeMismatch)
}
