// Package fitstile compresses and decompresses FITS images with the tiled
// image convention.
//
// An image is split into rectangular tiles. Each tile is compressed on its
// own and stored as one row of a binary table, next to its per-tile
// parameters (ZSCALE, ZZERO, ZBLANK, NULL_PIXEL_MASK). The image-wide
// settings (ZCMPTYPE, ZQUANTIZ, ZDITHER0, ZNAMEn/ZVALn, ...) are header
// cards.
//
// # Core Features
//
//   - GZIP_1, GZIP_2, RICE_1, HCOMPRESS_1 and NOCOMPRESS tile algorithms
//   - ZSTD_1, LZ4_1 and S2_1 extensions for fast lossless storage
//   - Float quantization with NO_DITHER, SUBTRACTIVE_DITHER_1 and
//     SUBTRACTIVE_DITHER_2
//   - Null pixel masks, so NaN and BLANK survive lossy compression
//   - Concurrent tile processing with a bounded worker pool
//   - Magic-byte sniffing decompression of whole compressed files
//
// # Basic Usage
//
// Compressing a float image:
//
//	img := tiled.NewImage[float32](1024, 1024)
//	// fill img.Pixels, NAXIS1 varies fastest
//
//	res, err := fitstile.Compress(ctx, img,
//	    tiled.WithAlgorithm(format.CompressionRice1),
//	    tiled.WithTileShape(256, 256),
//	)
//	fmt.Printf("ratio %.3f\n", res.Stats.CompressionRatio())
//
// Decompressing it again:
//
//	out, err := fitstile.Decompress[float32](ctx, res.Header, res.Table)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the tiled
// package. For reusable compressors and finer control, use tiled directly;
// the compress, quantize, mask and param packages hold the building blocks.
package fitstile

import (
	"context"

	"github.com/arloliu/fitstile/compress"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/header"
	"github.com/arloliu/fitstile/table"
	"github.com/arloliu/fitstile/tiled"
)

var defaultOptions = []tiled.Option{
	tiled.WithAlgorithm(format.CompressionRice1),
	tiled.WithQuantization(format.QuantizeDither1),
}

// Compress compresses img into a header and a binary table.
//
// The defaults are RICE_1 with row by row tiles and, for float images,
// SUBTRACTIVE_DITHER_1 at quantization level 4. opts are applied after the
// defaults and override them.
//
// Example:
//
//	res, err := fitstile.Compress(ctx, img,
//	    tiled.WithAlgorithm(format.CompressionHCompress),
//	    tiled.WithHCompressOptions(4, false),
//	    tiled.WithTileShape(64, 64),
//	)
func Compress[T format.Pixel](ctx context.Context, img *tiled.Image[T], opts ...tiled.Option) (*tiled.Result, error) {
	c, err := tiled.NewCompressor[T](append(append([]tiled.Option(nil), defaultOptions...), opts...)...)
	if err != nil {
		return nil, err
	}

	return c.Compress(ctx, img)
}

// Decompress rebuilds an image of element type T from a compressed header
// and table. T must match ZBITPIX.
func Decompress[T format.Pixel](ctx context.Context, h header.Access, t *table.Table, opts ...tiled.Option) (*tiled.Image[T], error) {
	d, err := tiled.NewDecompressor[T](opts...)
	if err != nil {
		return nil, err
	}

	return d.Decompress(ctx, h, t)
}

// DecompressStream decompresses a whole compressed file, choosing the
// decoder from its first two bytes. The built-in decoders are tried before
// external programs such as gzip and uncompress.
func DecompressStream(ctx context.Context, data []byte, opts ...compress.StreamOption) ([]byte, error) {
	reg, err := compress.NewStreamRegistry(compress.DefaultStreamProviders(), opts...)
	if err != nil {
		return nil, err
	}

	return reg.Decompress(ctx, data)
}
