package format

import (
	"fmt"
	"math"

	"github.com/arloliu/fitstile/endian"
	"github.com/arloliu/fitstile/errs"
)

// Pixel is the set of Go types that back image elements.
type Pixel interface {
	uint8 | int16 | int32 | int64 | float32 | float64
}

// KindOf returns the element kind backing the Go type T.
func KindOf[T Pixel]() ElementKind {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return KindUint8
	case int16:
		return KindInt16
	case int32:
		return KindInt32
	case int64:
		return KindInt64
	case float32:
		return KindFloat32
	default:
		return KindFloat64
	}
}

// IsNull reports whether v is the null representation for its kind: NaN for
// floats and blank for integers. hasBlank false means integers are never null.
func IsNull[T Pixel](v T, blank int64, hasBlank bool) bool {
	switch x := any(v).(type) {
	case float32:
		return x != x
	case float64:
		return math.IsNaN(x)
	default:
		return hasBlank && int64(v) == blank
	}
}

// NullValue returns the value written for restored null pixels.
func NullValue[T Pixel](blank int64) T {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return T(math.NaN())
	default:
		return T(blank)
	}
}

// BlankInRange reports whether an integer blank is representable by T.
// Float types use NaN and accept any blank.
func BlankInRange[T Pixel](blank int64) bool {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return true
	default:
		return int64(T(blank)) == blank
	}
}

// EncodePixels writes src into dst using the given byte order.
// dst must hold len(src)*size bytes.
func EncodePixels[T Pixel](engine endian.EndianEngine, dst []byte, src []T) error {
	size := TypeOf(KindOf[T]()).Size
	if len(dst) < len(src)*size {
		return fmt.Errorf("encode %d pixels into %d bytes: %w", len(src), len(dst), errs.ErrBufferSizeMismatch)
	}

	switch s := any(src).(type) {
	case []uint8:
		copy(dst, s)
	case []int16:
		for i, v := range s {
			engine.PutUint16(dst[i*2:], uint16(v))
		}
	case []int32:
		for i, v := range s {
			engine.PutUint32(dst[i*4:], uint32(v))
		}
	case []int64:
		for i, v := range s {
			engine.PutUint64(dst[i*8:], uint64(v))
		}
	case []float32:
		for i, v := range s {
			engine.PutUint32(dst[i*4:], math.Float32bits(v))
		}
	case []float64:
		for i, v := range s {
			engine.PutUint64(dst[i*8:], math.Float64bits(v))
		}
	}

	return nil
}

// DecodePixels reads len(dst) pixels from src using the given byte order.
func DecodePixels[T Pixel](engine endian.EndianEngine, dst []T, src []byte) error {
	size := TypeOf(KindOf[T]()).Size
	if len(src) < len(dst)*size {
		return fmt.Errorf("decode %d pixels from %d bytes: %w", len(dst), len(src), errs.ErrBufferSizeMismatch)
	}

	switch d := any(dst).(type) {
	case []uint8:
		copy(d, src)
	case []int16:
		for i := range d {
			d[i] = int16(engine.Uint16(src[i*2:]))
		}
	case []int32:
		for i := range d {
			d[i] = int32(engine.Uint32(src[i*4:]))
		}
	case []int64:
		for i := range d {
			d[i] = int64(engine.Uint64(src[i*8:]))
		}
	case []float32:
		for i := range d {
			d[i] = math.Float32frombits(engine.Uint32(src[i*4:]))
		}
	case []float64:
		for i := range d {
			d[i] = math.Float64frombits(engine.Uint64(src[i*8:]))
		}
	}

	return nil
}
