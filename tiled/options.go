package tiled

import (
	"fmt"
	"io"
	"log"
	"math"
	"runtime"

	"github.com/arloliu/fitstile/compress"
	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/internal/options"
	"github.com/arloliu/fitstile/mask"
	"github.com/arloliu/fitstile/quantize"
)

// Config holds the settings shared by Compressor and Decompressor.
// Settings that only concern compression are ignored when decompressing.
type Config struct {
	algorithm     format.CompressionType
	option        compress.Option
	preferred     string
	tileShape     []int
	strict        bool
	quantize      quantize.Config
	maskAlgorithm format.CompressionType
	blankInColumn bool
	workers       int
	logger        *log.Logger
	registry      *compress.Registry
	smooth        *bool
}

func newConfig() *Config {
	return &Config{
		algorithm:     format.CompressionRice1,
		quantize:      quantize.DefaultConfig(),
		maskAlgorithm: mask.DefaultAlgorithm,
		workers:       runtime.GOMAXPROCS(0),
		logger:        log.New(io.Discard, "", 0),
		registry:      compress.DefaultRegistry(),
	}
}

// Validate checks settings that span several options.
func (c *Config) Validate() error {
	switch c.option.(type) {
	case nil:
	case *compress.RiceOption:
		if c.algorithm != format.CompressionRice1 {
			return fmt.Errorf("RICE_1 options with %s: %w", c.algorithm, errs.ErrInvalidConfig)
		}
	case *compress.HCompressOption:
		if c.algorithm != format.CompressionHCompress {
			return fmt.Errorf("HCOMPRESS_1 options with %s: %w", c.algorithm, errs.ErrInvalidConfig)
		}
	}
	if c.quantize.Method != format.QuantizeNone {
		if err := c.quantize.Validate(); err != nil {
			return err
		}
	}
	// The dither2 zero marker is a single reserved integer and only survives
	// a lossless codec.
	if opt, ok := c.option.(*compress.HCompressOption); ok && opt.Scale > 1 &&
		c.quantize.Method == format.QuantizeDither2 {
		return fmt.Errorf("%s with HCOMPRESS_1 scale %d: %w", c.quantize.Method, opt.Scale, errs.ErrInvalidConfig)
	}

	return nil
}

// Option configures a Compressor or a Decompressor.
type Option = options.Option[*Config]

// WithAlgorithm sets the tile compression algorithm. The default is RICE_1.
func WithAlgorithm(algorithm format.CompressionType) Option {
	return options.New(func(c *Config) error {
		if _, ok := format.ParseCompressionType(algorithm.String()); !ok {
			return fmt.Errorf("algorithm %d: %w", algorithm, errs.ErrUnknownAlgorithm)
		}
		c.algorithm = algorithm

		return nil
	})
}

// WithRiceOptions sets the RICE_1 block size and BYTEPIX.
// A zero value keeps the default for that setting.
func WithRiceOptions(blockSize, bytePix int) Option {
	return options.New(func(c *Config) error {
		if blockSize < 0 {
			return fmt.Errorf("rice block size %d: %w", blockSize, errs.ErrInvalidConfig)
		}
		switch bytePix {
		case 0, 1, 2, 4, 8:
		default:
			return fmt.Errorf("rice BYTEPIX %d: %w", bytePix, errs.ErrInvalidConfig)
		}
		c.option = &compress.RiceOption{BlockSize: blockSize, BytePix: bytePix}

		return nil
	})
}

// WithHCompressOptions sets the HCOMPRESS_1 scale and smoothing flag.
// A scale of 0 or 1 is lossless.
func WithHCompressOptions(scale int, smooth bool) Option {
	return options.New(func(c *Config) error {
		if scale < 0 || scale > math.MaxInt32 {
			return fmt.Errorf("hcompress scale %d: %w", scale, errs.ErrInvalidConfig)
		}
		c.option = &compress.HCompressOption{Scale: scale, Smooth: smooth}

		return nil
	})
}

// WithPreferredControl picks the registered control with the given name
// when several serve the algorithm.
func WithPreferredControl(name string) Option {
	return options.NoError(func(c *Config) {
		c.preferred = name
	})
}

// WithTileShape sets the tile extent, fastest axis first. Missing axes
// default to 1. The default tiles the image row by row.
func WithTileShape(shape ...int) Option {
	return options.New(func(c *Config) error {
		for i, s := range shape {
			if s <= 0 {
				return fmt.Errorf("tile axis %d is %d: %w", i+1, s, errs.ErrInvalidTileSize)
			}
		}
		c.tileShape = append([]int(nil), shape...)

		return nil
	})
}

// WithStrictTiling rejects tile shapes that do not divide the image axes.
func WithStrictTiling() Option {
	return options.NoError(func(c *Config) {
		c.strict = true
	})
}

// WithQuantization sets the quantization method of float images.
// format.QuantizeNone stores floats losslessly.
func WithQuantization(method format.QuantizeMethod) Option {
	return options.New(func(c *Config) error {
		if _, ok := format.ParseQuantizeMethod(method.String()); !ok {
			return fmt.Errorf("method %d: %w", method, errs.ErrInvalidQuantization)
		}
		c.quantize.Method = method

		return nil
	})
}

// WithQuantizeLevel sets the quantization level. A positive level divides
// the tile noise estimate; a negative level is the absolute scale.
func WithQuantizeLevel(level float64) Option {
	return options.New(func(c *Config) error {
		if level == 0 || math.IsNaN(level) || math.IsInf(level, 0) {
			return fmt.Errorf("quantization level %v: %w", level, errs.ErrInvalidConfig)
		}
		c.quantize.QLevel = level

		return nil
	})
}

// WithDitherSeed sets ZDITHER0, the dither offset of the first tile.
func WithDitherSeed(seed int) Option {
	return options.New(func(c *Config) error {
		if seed < 1 || seed > quantize.NRandom {
			return fmt.Errorf("dither seed %d outside 1..%d: %w", seed, quantize.NRandom, errs.ErrInvalidConfig)
		}
		c.quantize.Dither0 = seed

		return nil
	})
}

// WithMaskAlgorithm sets the null pixel mask algorithm (ZMASKCMP).
func WithMaskAlgorithm(algorithm format.CompressionType) Option {
	return options.New(func(c *Config) error {
		if _, ok := format.ParseCompressionType(algorithm.String()); !ok {
			return fmt.Errorf("mask algorithm %d: %w", algorithm, errs.ErrUnknownAlgorithm)
		}
		c.maskAlgorithm = algorithm

		return nil
	})
}

// WithBlankColumn stores the blank value per tile in a ZBLANK column
// instead of the ZBLANK header card.
func WithBlankColumn() Option {
	return options.NoError(func(c *Config) {
		c.blankInColumn = true
	})
}

// WithWorkers bounds the number of tiles processed concurrently.
// The default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return options.New(func(c *Config) error {
		if n < 1 {
			return fmt.Errorf("worker count %d: %w", n, errs.ErrInvalidConfig)
		}
		c.workers = n

		return nil
	})
}

// WithLogger sets the logger for fallback decisions. The default discards.
func WithLogger(logger *log.Logger) Option {
	return options.NoError(func(c *Config) {
		if logger == nil {
			logger = log.New(io.Discard, "", 0)
		}
		c.logger = logger
	})
}

// WithRegistry replaces the default control registry.
func WithRegistry(reg *compress.Registry) Option {
	return options.New(func(c *Config) error {
		if reg == nil {
			return fmt.Errorf("nil registry: %w", errs.ErrInvalidConfig)
		}
		c.registry = reg

		return nil
	})
}

// WithSmoothing overrides the HCOMPRESS_1 smoothing flag stored in the
// header when decompressing.
func WithSmoothing(smooth bool) Option {
	return options.NoError(func(c *Config) {
		c.smooth = &smooth
	})
}
