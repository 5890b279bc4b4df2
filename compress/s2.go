package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/fitstile/errs"
)

// S2Compressor stores S2_1 tiles as S2 blocks. Tiles are written once and
// read many times, so the slower "better" encoder is used; decoding speed is
// the same.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses data into one S2 block. Empty input gives nil.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.EncodeBetter(nil, data), nil
}

// Decompress decodes an S2 block, rejecting blocks whose declared length
// exceeds the tile limit before allocating.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptData, err)
	}
	if n > maxDecodedTile {
		return nil, fmt.Errorf("s2 tile claims %d bytes: %w", n, errs.ErrCorruptData)
	}

	out, err := s2.Decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptData, err)
	}

	return out, nil
}
