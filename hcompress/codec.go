// Package hcompress implements the HCOMPRESS_1 tile codec: a multi-level
// H-transform of the tile, optional scaling of the detail coefficients for
// lossy compression and Rice entropy coding of the result.
//
// The transform runs on a signed working type (int32 for 8 and 16-bit
// elements, int64 for 32-bit elements). Widening from and narrowing to the
// element bytes happens only in Encode and Decode.
//
// Stream layout (big-endian):
//
//	0xDD 0x99 | width uint32 | height uint32 | scale uint32 | Rice payload
package hcompress

import (
	"fmt"
	"math"

	"github.com/arloliu/fitstile/endian"
	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/internal/pool"
	"github.com/arloliu/fitstile/internal/rice"
)

const (
	magic0     = 0xDD
	magic1     = 0x99
	headerSize = 14

	// riceBlockSize is the Rice block length of the coefficient stream.
	riceBlockSize = 32
)

// Params describes one tile.
type Params struct {
	Width  int
	Height int
	// Scale > 1 makes the codec lossy; 0 and 1 are lossless.
	Scale int
	// Smooth enables artifact smoothing when decoding a lossy stream.
	Smooth bool
}

// Validate checks the tile geometry and scale.
func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("hcompress: tile %dx%d: %w", p.Width, p.Height, errs.ErrInvalidTileSize)
	}
	if p.Scale < 0 || p.Scale > math.MaxInt32 {
		return fmt.Errorf("hcompress: scale %d: %w", p.Scale, errs.ErrInvalidConfig)
	}

	return nil
}

// Supports reports whether kind can be coded.
func Supports(kind format.ElementKind) bool {
	switch kind {
	case format.KindUint8, format.KindInt16, format.KindInt32:
		return true
	default:
		return false
	}
}

// Encode appends the compressed form of the big-endian pixels in src to dst.
func Encode(dst, src []byte, kind format.ElementKind, p Params) ([]byte, error) {
	if err := checkBuffer(len(src), kind, p); err != nil {
		return nil, err
	}

	n := p.Width * p.Height
	engine := endian.GetFITSEngine()

	switch kind {
	case format.KindUint8, format.KindInt16:
		words, release := pool.GetInt32Slice(n)
		defer release()
		for i := range words {
			if kind == format.KindUint8 {
				words[i] = int32(src[i])
			} else {
				words[i] = int32(int16(engine.Uint16(src[2*i:])))
			}
		}

		return encodeWords(dst, words, p)
	default:
		words, release := pool.GetInt64Slice(n)
		defer release()
		for i := range words {
			words[i] = int64(int32(engine.Uint32(src[4*i:])))
		}

		return encodeWords(dst, words, p)
	}
}

// Decode reconstructs the big-endian pixels of a stream produced by Encode
// into dst. Values pushed outside the element range by lossy coding are
// clamped.
func Decode(dst, data []byte, kind format.ElementKind, p Params) error {
	if err := checkBuffer(len(dst), kind, p); err != nil {
		return err
	}

	n := p.Width * p.Height
	engine := endian.GetFITSEngine()

	switch kind {
	case format.KindUint8, format.KindInt16:
		words, release := pool.GetInt32Slice(n)
		defer release()
		if err := decodeWords(words, data, p); err != nil {
			return err
		}
		for i, w := range words {
			if kind == format.KindUint8 {
				dst[i] = uint8(clamp(w, 0, math.MaxUint8))
			} else {
				engine.PutUint16(dst[2*i:], uint16(int16(clamp(w, math.MinInt16, math.MaxInt16))))
			}
		}
	default:
		words, release := pool.GetInt64Slice(n)
		defer release()
		if err := decodeWords(words, data, p); err != nil {
			return err
		}
		for i, w := range words {
			engine.PutUint32(dst[4*i:], uint32(int32(clamp(w, math.MinInt32, math.MaxInt32))))
		}
	}

	return nil
}

func checkBuffer(size int, kind format.ElementKind, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !Supports(kind) {
		return fmt.Errorf("hcompress: %s: %w", kind, errs.ErrUnsupportedElement)
	}
	if want := p.Width * p.Height * format.TypeOf(kind).Size; size != want {
		return fmt.Errorf("hcompress: %d bytes for a %dx%d %s tile: %w",
			size, p.Width, p.Height, kind, errs.ErrBufferSizeMismatch)
	}

	return nil
}

func encodeWords[W word](dst []byte, words []W, p Params) ([]byte, error) {
	forward(words, p.Width, p.Height)
	digitize(words, W(p.Scale))

	coeffs, release := pool.GetInt64Slice(len(words))
	defer release()
	for i, w := range words {
		coeffs[i] = int64(w)
	}

	engine := endian.GetFITSEngine()
	dst = append(dst, magic0, magic1)
	dst = engine.AppendUint32(dst, uint32(p.Width))
	dst = engine.AppendUint32(dst, uint32(p.Height))
	dst = engine.AppendUint32(dst, uint32(p.Scale))

	params, _ := rice.ParamsFor(8)

	return rice.Encode(dst, coeffs, riceBlockSize, params, rice.Direct)
}

func decodeWords[W word](words []W, data []byte, p Params) error {
	if len(data) < headerSize || data[0] != magic0 || data[1] != magic1 {
		return fmt.Errorf("hcompress: bad stream header: %w", errs.ErrCorruptData)
	}

	engine := endian.GetFITSEngine()
	nx := int(engine.Uint32(data[2:]))
	ny := int(engine.Uint32(data[6:]))
	scale := W(engine.Uint32(data[10:]))
	if nx != p.Width || ny != p.Height {
		return fmt.Errorf("hcompress: stream is %dx%d, tile is %dx%d: %w",
			nx, ny, p.Width, p.Height, errs.ErrCorruptData)
	}

	coeffs, release := pool.GetInt64Slice(len(words))
	defer release()

	params, _ := rice.ParamsFor(8)
	if err := rice.Decode(data[headerSize:], coeffs, riceBlockSize, params, rice.Direct); err != nil {
		return fmt.Errorf("hcompress: %w", err)
	}
	for i, c := range coeffs {
		words[i] = W(c)
	}

	undigitize(words, scale)
	inverse(words, nx, ny)
	if p.Smooth && scale > 1 {
		smooth(words, nx, ny, scale)
	}

	return nil
}
