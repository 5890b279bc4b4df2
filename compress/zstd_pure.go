//go:build !gozstd || !cgo

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/arloliu/fitstile/errs"
)

// Decoders and encoders run without allocations once warmed up, so tile
// workers share them through pools.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(maxDecodedTile),
		)
		if err != nil {
			panic(fmt.Sprintf("zstd decoder: %v", err))
		}

		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("zstd encoder: %v", err))
		}

		return encoder
	},
}

// Compress encodes data as one zstd frame. Empty input gives nil.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	encoder, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(encoder)

	return encoder.EncodeAll(data, nil), nil
}

// Decompress decodes zstd frames. The frame content size, when present,
// sizes the output up front.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var dst []byte
	var h zstd.Header
	if err := h.Decode(data); err == nil && h.HasFCS {
		if h.FrameContentSize > maxDecodedTile {
			return nil, fmt.Errorf("zstd frame claims %d bytes: %w", h.FrameContentSize, errs.ErrCorruptData)
		}
		dst = make([]byte, 0, h.FrameContentSize)
	}

	decoder, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	out, err := decoder.DecodeAll(data, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptData, err)
	}

	return out, nil
}
