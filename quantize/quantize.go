// Package quantize maps floating point tiles to 32-bit integers and back so
// they can be stored by integer codecs such as RICE_1 and HCOMPRESS_1.
//
// A tile is quantized with a per-tile scale and zero point:
//
//	q = round((v - zero) / scale)                 NO_DITHER
//	q = round((v - zero) / scale + r - 0.5)       SUBTRACTIVE_DITHER_1/2
//
// where r is a reproducible pseudo-random offset drawn from a fixed table
// starting at the tile seed. Reconstruction inverts the same formula, so the
// error of a finite pixel never exceeds scale/2.
//
// Non-finite pixels bypass the formula and are stored as the blank value; they
// come back as NaN.
package quantize

import (
	"fmt"
	"math"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
)

const (
	// NullValue is the default blank integer for quantized tiles (ZBLANK).
	NullValue int32 = -2147483647
	// ZeroValue marks an exact 0.0 under SUBTRACTIVE_DITHER_2.
	ZeroValue int32 = -2147483646
	// NReserved is the number of integers at the bottom of the int32 range
	// kept free for NullValue, ZeroValue and future markers.
	NReserved = 10

	// DefaultQLevel is the default quantization level: scale = noise / 4.
	DefaultQLevel = 4.0
)

// rangeBudget is the number of integer steps a tile may span.
const rangeBudget = 2*float64(math.MaxInt32) - 2*NReserved - 4

// Config holds the image-wide quantization settings.
type Config struct {
	Method format.QuantizeMethod
	// QLevel > 0 sets scale = noise/QLevel; QLevel < 0 sets scale = -QLevel.
	QLevel float64
	// Dither0 is ZDITHER0, 1..NRandom.
	Dither0 int
	// Blank is the integer written for non-finite pixels.
	Blank int32
}

// DefaultConfig returns SUBTRACTIVE_DITHER_1 at the default level.
func DefaultConfig() Config {
	return Config{
		Method:  format.QuantizeDither1,
		QLevel:  DefaultQLevel,
		Dither0: 1,
		Blank:   NullValue,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Method {
	case format.QuantizeNoDither, format.QuantizeDither1, format.QuantizeDither2:
	default:
		return fmt.Errorf("method %s: %w", c.Method, errs.ErrInvalidQuantization)
	}
	if c.QLevel == 0 || math.IsNaN(c.QLevel) || math.IsInf(c.QLevel, 0) {
		return fmt.Errorf("quantization level %v: %w", c.QLevel, errs.ErrInvalidConfig)
	}
	if c.Method.IsDithered() && (c.Dither0 < 1 || c.Dither0 > NRandom) {
		return fmt.Errorf("ZDITHER0 %d outside 1..%d: %w", c.Dither0, NRandom, errs.ErrInvalidConfig)
	}

	return nil
}

// State is the per-tile quantization state. It is created by Quantize,
// persisted to the ZSCALE/ZZERO columns and rebuilt before Dequantize.
type State struct {
	Scale      float64
	Zero       float64
	DitherSeed int
	Blank      int32
	Dithered   bool
	Dither2    bool
	// Degenerate is set when the tile data could not support a real scale
	// (constant or entirely non-finite); the fallback transform was used.
	Degenerate bool
}

// NewState builds the reconstruction state of a tile from its stored scale
// and zero.
func NewState(cfg Config, tileIndex int, scale, zero float64) State {
	return State{
		Scale:      scale,
		Zero:       zero,
		DitherSeed: TileSeed(tileIndex, cfg.Dither0),
		Blank:      cfg.Blank,
		Dithered:   cfg.Method.IsDithered(),
		Dither2:    cfg.Method == format.QuantizeDither2,
	}
}

// Result is the outcome of quantizing one tile.
type Result struct {
	State
	// Nulls lists the linear indices of non-finite input pixels. It stays
	// nil for tiles without nulls.
	Nulls []int
}

// Quantize converts src into dst using a scale and zero derived from the tile
// data. width is the tile row length used by the noise estimator.
func Quantize[T float32 | float64](src []T, dst []int32, width int, cfg Config, tileIndex int) (Result, error) {
	if len(dst) != len(src) {
		return Result{}, fmt.Errorf("quantize %d pixels into %d: %w", len(src), len(dst), errs.ErrBufferSizeMismatch)
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{State: NewState(cfg, tileIndex, 1, 0)}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range src {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			res.Nulls = append(res.Nulls, i)
			continue
		}
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}

	switch {
	case len(res.Nulls) == len(src):
		res.Degenerate = true
	case lo == hi:
		res.Degenerate = true
		res.Zero = lo
	default:
		res.Scale, res.Zero = scaleAndZero(src, width, cfg.QLevel, lo, hi)
	}

	apply(src, dst, res.State)

	return res, nil
}

func scaleAndZero[T float32 | float64](src []T, width int, qlevel, lo, hi float64) (float64, float64) {
	span := hi - lo

	var scale float64
	if qlevel < 0 {
		scale = -qlevel
	} else if noise := EstimateNoise(src, width); noise > 0 {
		scale = noise / qlevel
	} else {
		// Noise-free data such as smooth gradients: use the full range.
		scale = span / rangeBudget
	}

	if span/scale > rangeBudget {
		scale = span / rangeBudget
	}

	if span/scale < float64(math.MaxInt32)-NReserved {
		return scale, lo
	}

	return scale, lo + span/2
}

func apply[T float32 | float64](src []T, dst []int32, st State) {
	var d *Dither
	if st.Dithered {
		d = NewDither(st.DitherSeed)
	}

	for i, v := range src {
		var r float64
		if d != nil {
			r = d.Next()
		}

		f := float64(v)
		switch {
		case math.IsNaN(f) || math.IsInf(f, 0):
			dst[i] = st.Blank
		case st.Dither2 && f == 0:
			dst[i] = ZeroValue
		case d != nil:
			dst[i] = int32(math.Round((f-st.Zero)/st.Scale + r - 0.5))
		default:
			dst[i] = int32(math.Round((f - st.Zero) / st.Scale))
		}
	}
}

// Dequantize restores dst from the quantized tile src. Blank pixels become
// NaN and, under dither2, ZeroValue pixels become exactly 0.
func Dequantize[T float32 | float64](src []int32, dst []T, st State) error {
	if len(dst) != len(src) {
		return fmt.Errorf("dequantize %d pixels into %d: %w", len(src), len(dst), errs.ErrBufferSizeMismatch)
	}

	var d *Dither
	if st.Dithered {
		d = NewDither(st.DitherSeed)
	}

	nan := T(math.NaN())
	for i, q := range src {
		var r float64
		if d != nil {
			r = d.Next()
		}

		switch {
		case q == st.Blank:
			dst[i] = nan
		case st.Dither2 && q == ZeroValue:
			dst[i] = 0
		case d != nil:
			dst[i] = T((float64(q)-r+0.5)*st.Scale + st.Zero)
		default:
			dst[i] = T(float64(q)*st.Scale + st.Zero)
		}
	}

	return nil
}
