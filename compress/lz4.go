package compress

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/fitstile/errs"
)

// LZ4_1 tile layout: one mode byte, the uncompressed length as a big-endian
// uint32, then either an LZ4 block or the raw bytes.
const (
	lz4ModeRaw   byte = 0
	lz4ModeBlock byte = 1

	lz4HeaderSize = 5

	// maxDecodedTile bounds the length a tile header may claim.
	maxDecodedTile = 1 << 30
)

// lz4CompressorPool pools lz4.Compressor instances; each carries a hash
// table that is expensive to allocate per tile.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor stores LZ4_1 tiles as length-prefixed LZ4 blocks. Tiles the
// block format cannot shrink, such as pure noise, are stored raw behind the
// same header.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses data into one LZ4_1 payload. Empty input gives nil.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) > maxDecodedTile {
		return nil, fmt.Errorf("lz4 tile of %d bytes: %w", len(data), errs.ErrInvalidConfig)
	}

	dst := make([]byte, lz4HeaderSize+lz4.CompressBlockBound(len(data)))
	binary.BigEndian.PutUint32(dst[1:], uint32(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[lz4HeaderSize:])
	if err != nil {
		return nil, err
	}

	// n == 0 means the block would not be smaller than its input.
	if n == 0 || n >= len(data) {
		dst[0] = lz4ModeRaw
		n = copy(dst[lz4HeaderSize:], data)
	} else {
		dst[0] = lz4ModeBlock
	}

	return dst[:lz4HeaderSize+n], nil
}

// Decompress restores an LZ4_1 payload. The stored length must match the
// decoded block exactly.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < lz4HeaderSize {
		return nil, fmt.Errorf("lz4 tile of %d bytes: %w", len(data), errs.ErrCorruptData)
	}

	size := int(binary.BigEndian.Uint32(data[1:]))
	body := data[lz4HeaderSize:]
	if size > maxDecodedTile {
		return nil, fmt.Errorf("lz4 tile claims %d bytes: %w", size, errs.ErrCorruptData)
	}

	switch data[0] {
	case lz4ModeRaw:
		if len(body) != size {
			return nil, fmt.Errorf("raw lz4 tile has %d bytes, header says %d: %w", len(body), size, errs.ErrCorruptData)
		}

		return append([]byte(nil), body...), nil
	case lz4ModeBlock:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrCorruptData, err)
		}
		if n != size {
			return nil, fmt.Errorf("lz4 block decoded to %d bytes, header says %d: %w", n, size, errs.ErrCorruptData)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("lz4 tile mode %d: %w", data[0], errs.ErrCorruptData)
	}
}
