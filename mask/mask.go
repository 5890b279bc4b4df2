// Package mask keeps track of null pixels across lossy tile compression.
//
// A tile's null positions (NaN for float tiles, the blank value for integer
// tiles) are marked in a byte mask that is compressed on its own, through the
// same control registry as pixel payloads, and stored in the
// NULL_PIXEL_MASK column. Tiles without nulls produce no mask at all.
package mask

import (
	"fmt"

	"github.com/arloliu/fitstile/compress"
	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/internal/pool"
)

// NullIndicator marks a null position in an uncompressed mask.
const NullIndicator byte = 1

// DefaultAlgorithm is the ZMASKCMP default.
const DefaultAlgorithm = format.CompressionGzip1

// Preserver records and restores the null pixels of tiles of one element
// type. A Preserver holds no per-tile state and may be shared between tile
// workers.
type Preserver[T format.Pixel] struct {
	ctrl      compress.Control
	algorithm format.CompressionType
	blank     T
	hasBlank  bool
	isInteger bool
}

// NewPreserver creates a preserver. blank is only used for integer kinds and
// only when hasBlank is set. The mask is compressed with algorithm, resolved
// through reg.
func NewPreserver[T format.Pixel](reg *compress.Registry, algorithm format.CompressionType, blank int64, hasBlank bool) (*Preserver[T], error) {
	ctrl, err := reg.FindControl("", algorithm, format.KindUint8)
	if err != nil {
		return nil, fmt.Errorf("null pixel mask: %w", err)
	}

	return &Preserver[T]{
		ctrl:      ctrl,
		algorithm: algorithm,
		blank:     format.NullValue[T](blank),
		hasBlank:  hasBlank,
		isInteger: format.TypeOf(format.KindOf[T]()).IsInteger(),
	}, nil
}

// Algorithm returns the mask compression algorithm.
func (p *Preserver[T]) Algorithm() format.CompressionType {
	return p.algorithm
}

func (p *Preserver[T]) isNull(v T) bool {
	if p.isInteger {
		return p.hasBlank && v == p.blank
	}

	return v != v
}

// PreserveNull returns the compressed mask of pixels, or nil when the tile
// holds no null pixel. The no-null path does not allocate.
func (p *Preserver[T]) PreserveNull(pixels []T) ([]byte, error) {
	first := -1
	for i, v := range pixels {
		if p.isNull(v) {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, nil
	}

	buf := pool.GetMaskBuffer()
	defer pool.PutMaskBuffer(buf)
	buf.Resize(len(pixels))
	raw := buf.Bytes()
	clear(raw)
	for i := first; i < len(pixels); i++ {
		if p.isNull(pixels[i]) {
			raw[i] = NullIndicator
		}
	}

	out, ok, err := p.ctrl.Compress(raw, geometry(len(raw)), nil)
	if err != nil {
		return nil, fmt.Errorf("null pixel mask: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("null pixel mask: %s declined the mask: %w", p.algorithm, errs.ErrInvalidConfig)
	}

	return out, nil
}

// RestoreNull decompresses maskBytes and resets every marked position of
// pixels to the null value. An empty mask leaves pixels unchanged. It runs
// after dequantization so restored nulls are final.
func (p *Preserver[T]) RestoreNull(maskBytes []byte, pixels []T) error {
	if len(maskBytes) == 0 {
		return nil
	}
	if len(pixels) == 0 {
		return fmt.Errorf("mask of %d bytes for an empty tile: %w", len(maskBytes), errs.ErrMaskMismatch)
	}

	buf := pool.GetMaskBuffer()
	defer pool.PutMaskBuffer(buf)
	buf.Resize(len(pixels))
	raw := buf.Bytes()
	if err := p.ctrl.Decompress(raw, maskBytes, geometry(len(raw)), nil); err != nil {
		return fmt.Errorf("null pixel mask for %d pixels: %w: %w", len(pixels), errs.ErrMaskMismatch, err)
	}

	for i, m := range raw {
		if m == NullIndicator {
			pixels[i] = p.blank
		}
	}

	return nil
}

func geometry(n int) compress.Geometry {
	return compress.Geometry{Width: n, Height: 1, Kind: format.KindUint8}
}
