//go:build gozstd && cgo

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"

	"github.com/arloliu/fitstile/errs"
)

// zstdLevel matches zstd.SpeedDefault of the pure Go build.
const zstdLevel = 3

// Compress encodes data as one zstd frame with libzstd. Empty input gives nil.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, zstdLevel), nil
}

// Decompress decodes zstd frames with libzstd.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptData, err)
	}

	return out, nil
}
