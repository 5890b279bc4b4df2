package compress

import (
	"fmt"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
)

// Compressor compresses a byte payload.
//
// Payloads are tile pixel bytes in FITS (big-endian) order, byte-shuffled
// tile bytes for GZIP_2, or null pixel masks. Typical sizes are a few KiB to
// a few MiB per tile.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//     (the no-op codec returns its input)
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Compress(data []byte) ([]byte, error)
}

// Decompressor provides decompression for payloads produced by the matching
// Compressor.
//
// Example:
//
//	codec, _ := compress.GetCodec(format.CompressionGzip1)
//	original, err := codec.Decompress(payload)
//	if err != nil {
//	    return fmt.Errorf("decompression failed: %w", err)
//	}
//
// Thread Safety: all built-in decompressors are safe for concurrent use.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// Error conditions:
	//   - Returns error if input data is corrupted or invalid
	//   - Returns error if data was compressed with incompatible algorithm
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats provides information about compressing one image or tile
// set, reported by the engine and the command line tool.
type CompressionStats struct {
	// Algorithm identifies the compression algorithm used
	Algorithm format.CompressionType

	// Tiles is the number of tiles compressed
	Tiles int

	// UncompressedTiles counts tiles stored without the algorithm because it
	// could not handle them
	UncompressedTiles int

	// OriginalSize is the size of input data before compression
	OriginalSize int64

	// CompressedSize is the size of data after compression, masks included
	CompressedSize int64

	// CompressionTimeNs is the time taken to compress the data
	CompressionTimeNs int64

	// DecompressionTimeNs is the time taken to decompress the data (if applicable)
	DecompressionTimeNs int64
}

// CompressionRatio returns the compression ratio (compressed size / original size).
//
// Values less than 1.0 indicate successful compression.
// Values equal to 1.0 indicate no compression benefit.
//
// Returns:
//   - float64: Compression ratio (0.0 if original size is zero)
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage.
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// CreateCodec is a factory function that creates a byte Codec for the
// algorithms that compress an opaque byte stream.
//
// Parameters:
//   - compressionType: NOCOMPRESS, GZIP_1, ZSTD_1, LZ4_1 or S2_1
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: ErrUnknownAlgorithm for algorithms that need pixel geometry
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionGzip1:
		return NewGzipCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression %s: %w", target, compressionType, errs.ErrUnknownAlgorithm)
	}
}

// byteCodecTypes lists the algorithms CreateCodec accepts.
var byteCodecTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionGzip1,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

var builtinCodecs = func() map[format.CompressionType]Codec {
	codecs := make(map[format.CompressionType]Codec, len(byteCodecTypes))
	for _, ct := range byteCodecTypes {
		codec, err := CreateCodec(ct, "built-in")
		if err != nil {
			panic(err)
		}
		codecs[ct] = codec
	}

	return codecs
}()

// GetCodec retrieves a built-in byte Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported byte codec %s: %w", compressionType, errs.ErrUnknownAlgorithm)
}
