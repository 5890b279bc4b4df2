package format

import (
	"math"
	"strings"
)

type (
	ElementKind     uint8
	CompressionType uint8
	QuantizeMethod  uint8
)

const (
	KindBit     ElementKind = 0x1 // KindBit represents packed single-bit elements.
	KindUint8   ElementKind = 0x2 // KindUint8 represents 8-bit unsigned integers (BITPIX 8).
	KindInt16   ElementKind = 0x3 // KindInt16 represents 16-bit signed integers (BITPIX 16).
	KindInt32   ElementKind = 0x4 // KindInt32 represents 32-bit signed integers (BITPIX 32).
	KindInt64   ElementKind = 0x5 // KindInt64 represents 64-bit signed integers (BITPIX 64).
	KindFloat32 ElementKind = 0x6 // KindFloat32 represents IEEE single precision floats (BITPIX -32).
	KindFloat64 ElementKind = 0x7 // KindFloat64 represents IEEE double precision floats (BITPIX -64).

	CompressionNone      CompressionType = 0x1 // CompressionNone stores tiles uncompressed (NOCOMPRESS).
	CompressionGzip1     CompressionType = 0x2 // CompressionGzip1 is GZIP_1.
	CompressionGzip2     CompressionType = 0x3 // CompressionGzip2 is GZIP_2, byte-shuffled gzip.
	CompressionRice1     CompressionType = 0x4 // CompressionRice1 is RICE_1.
	CompressionHCompress CompressionType = 0x5 // CompressionHCompress is HCOMPRESS_1.
	CompressionZstd      CompressionType = 0x6 // CompressionZstd is the ZSTD_1 extension.
	CompressionLZ4       CompressionType = 0x7 // CompressionLZ4 is the LZ4_1 extension.
	CompressionS2        CompressionType = 0x8 // CompressionS2 is the S2_1 extension.

	QuantizeNone     QuantizeMethod = 0x0 // QuantizeNone disables quantization (lossless float storage).
	QuantizeNoDither QuantizeMethod = 0x1 // QuantizeNoDither is NO_DITHER.
	QuantizeDither1  QuantizeMethod = 0x2 // QuantizeDither1 is SUBTRACTIVE_DITHER_1.
	QuantizeDither2  QuantizeMethod = 0x3 // QuantizeDither2 is SUBTRACTIVE_DITHER_2.
)

// ElementType describes a primitive pixel type. Values are immutable and shared
// by pointer; obtain them with TypeOf or TypeByBitpix.
type ElementType struct {
	Kind ElementKind
	// Size is the size of one element in bytes. Bit elements report 1.
	Size int
	// Bitpix is the FITS BITPIX code, 0 for bit elements.
	Bitpix int
	// NullSentinel is the native blank value of integer kinds.
	// Float kinds use NaN and leave it zero.
	NullSentinel int64
}

var elementTypes = [...]ElementType{
	KindBit:     {Kind: KindBit, Size: 1, Bitpix: 0},
	KindUint8:   {Kind: KindUint8, Size: 1, Bitpix: 8, NullSentinel: math.MaxUint8},
	KindInt16:   {Kind: KindInt16, Size: 2, Bitpix: 16, NullSentinel: math.MinInt16},
	KindInt32:   {Kind: KindInt32, Size: 4, Bitpix: 32, NullSentinel: math.MinInt32},
	KindInt64:   {Kind: KindInt64, Size: 8, Bitpix: 64, NullSentinel: math.MinInt64},
	KindFloat32: {Kind: KindFloat32, Size: 4, Bitpix: -32},
	KindFloat64: {Kind: KindFloat64, Size: 8, Bitpix: -64},
}

// TypeOf returns the element type of the given kind, or nil for an unknown kind.
func TypeOf(kind ElementKind) *ElementType {
	if kind < KindBit || kind > KindFloat64 {
		return nil
	}

	return &elementTypes[kind]
}

// TypeByBitpix returns the element type for a FITS BITPIX code, or nil.
func TypeByBitpix(bitpix int) *ElementType {
	for i := KindUint8; i <= KindFloat64; i++ {
		if elementTypes[i].Bitpix == bitpix {
			return &elementTypes[i]
		}
	}

	return nil
}

// IsFloat reports whether the type holds floating point samples.
func (t *ElementType) IsFloat() bool {
	return t.Kind == KindFloat32 || t.Kind == KindFloat64
}

// IsInteger reports whether the type holds integer samples.
func (t *ElementType) IsInteger() bool {
	return t.Kind >= KindUint8 && t.Kind <= KindInt64
}

func (t *ElementType) String() string {
	return t.Kind.String()
}

func (k ElementKind) String() string {
	switch k {
	case KindBit:
		return "bit"
	case KindUint8:
		return "uint8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	default:
		return "Unknown"
	}
}

// String returns the ZCMPTYPE name of the algorithm.
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "NOCOMPRESS"
	case CompressionGzip1:
		return "GZIP_1"
	case CompressionGzip2:
		return "GZIP_2"
	case CompressionRice1:
		return "RICE_1"
	case CompressionHCompress:
		return "HCOMPRESS_1"
	case CompressionZstd:
		return "ZSTD_1"
	case CompressionLZ4:
		return "LZ4_1"
	case CompressionS2:
		return "S2_1"
	default:
		return "Unknown"
	}
}

// ParseCompressionType maps a ZCMPTYPE value to its CompressionType.
// RICE_ONE is accepted as the historical alias of RICE_1.
func ParseCompressionType(name string) (CompressionType, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NOCOMPRESS":
		return CompressionNone, true
	case "GZIP_1":
		return CompressionGzip1, true
	case "GZIP_2":
		return CompressionGzip2, true
	case "RICE_1", "RICE_ONE":
		return CompressionRice1, true
	case "HCOMPRESS_1":
		return CompressionHCompress, true
	case "ZSTD_1":
		return CompressionZstd, true
	case "LZ4_1":
		return CompressionLZ4, true
	case "S2_1":
		return CompressionS2, true
	default:
		return 0, false
	}
}

// String returns the ZQUANTIZ value of the method.
func (q QuantizeMethod) String() string {
	switch q {
	case QuantizeNone:
		return "NONE"
	case QuantizeNoDither:
		return "NO_DITHER"
	case QuantizeDither1:
		return "SUBTRACTIVE_DITHER_1"
	case QuantizeDither2:
		return "SUBTRACTIVE_DITHER_2"
	default:
		return "Unknown"
	}
}

// IsDithered reports whether the method applies subtractive dithering.
func (q QuantizeMethod) IsDithered() bool {
	return q == QuantizeDither1 || q == QuantizeDither2
}

// ParseQuantizeMethod maps a ZQUANTIZ value to its QuantizeMethod.
func ParseQuantizeMethod(name string) (QuantizeMethod, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NONE", "":
		return QuantizeNone, true
	case "NO_DITHER":
		return QuantizeNoDither, true
	case "SUBTRACTIVE_DITHER_1":
		return QuantizeDither1, true
	case "SUBTRACTIVE_DITHER_2":
		return QuantizeDither2, true
	default:
		return 0, false
	}
}
