// Package compress provides the tile codecs of the tiled image engine, the
// registry that resolves them by algorithm name, and the magic-byte registry
// used to unwrap opaque compressed streams.
//
// # Overview
//
// There are three layers:
//
//  1. **Byte codecs** (Codec): compress an opaque byte payload. NoOp, gzip,
//     zstd, LZ4 and S2.
//  2. **Tile controls** (Control): compress one tile given its Geometry
//     (width, height, element kind). Byte codecs are adapted to controls;
//     GZIP_2, RICE_1 and HCOMPRESS_1 need the geometry.
//  3. **Registries**: Registry resolves controls by algorithm for tiled
//     compression, where the algorithm name is always known from ZCMPTYPE.
//     StreamRegistry resolves StreamProviders by the first two bytes of a
//     stream, for files whose wrapper format must be sniffed.
//
// # Architecture
//
//	type Codec interface {
//	    Compress(data []byte) ([]byte, error)
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Control interface {
//	    Compress(src []byte, g Geometry, opt Option) ([]byte, bool, error)
//	    Decompress(dst, src []byte, g Geometry, opt Option) error
//	}
//
// # Supported Algorithms
//
//	Name         | Kinds             | Lossy | Notes
//	-------------|-------------------|-------|-------------------------------
//	NOCOMPRESS   | all               | no    | payload stored as is
//	GZIP_1       | all               | no    | gzip member
//	GZIP_2       | all               | no    | byte shuffle, then gzip
//	RICE_1       | integers          | no    | BLOCKSIZE, BYTEPIX options
//	HCOMPRESS_1  | 8, 16, 32-bit int | SCALE | SMOOTH option on decode
//	ZSTD_1       | all               | no    | extension
//	LZ4_1        | all               | no    | extension, length-prefixed LZ4 block
//	S2_1         | all               | no    | extension
//
// Floating point tiles reach RICE_1 and HCOMPRESS_1 only after quantization
// to int32, which the engine performs before calling the control.
//
// # Resolving controls
//
//	reg := compress.DefaultRegistry()
//	ctrl, err := reg.FindControl("", format.CompressionRice1, format.KindInt32)
//	if err != nil {
//	    return err
//	}
//	out, ok, err := ctrl.Compress(tileBytes, compress.Geometry{Width: 64, Height: 64, Kind: format.KindInt32}, compress.DefaultRiceOption())
//
// A registry is built once from an explicit descriptor list and never
// changes, so a custom build only needs its own []Descriptor:
//
//	reg, err := compress.NewRegistry(append(compress.DefaultDescriptors(), myDescriptor))
//
// # Stream providers
//
// Providers are tried in descending priority; a provider that fails hands the
// stream to the next one claiming the same magic bytes:
//
//	Provider       | Priority | Magic
//	---------------|----------|-------
//	gzip           | 10       | 1F 8B
//	zstd           | 10       | 28 B5
//	lz4            | 10       | 04 22
//	s2             | 10       | FF 06
//	bzip2          | 10       | 42 5A
//	gzip-external  | 5        | 1F 8B
//	uncompress     | 5        | 1F 9D
//
// # Thread Safety
//
// Codecs, controls and both registries are safe for concurrent use. Encoders
// and decoders are pooled internally.
//
// # Build tags
//
// Building with -tags gozstd (cgo required) replaces the pure Go zstd
// implementation with the libzstd binding.
package compress
