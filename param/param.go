// Package param holds the compression parameter set of a tiled image: the
// settings stored once in header cards (ZCMPTYPE, ZQUANTIZ, ZDITHER0, ZBLANK,
// ZMASKCMP and the ZNAMEn/ZVALn algorithm options) and the values stored per
// tile in table columns (ZSCALE, ZZERO, ZBLANK, NULL_PIXEL_MASK).
//
// Column storage is sized once by InitializeColumns or BindColumns. After
// that, SetValuesInColumn and GetValuesFromColumn may run concurrently for
// different tile indices. Header values are read or written once, outside
// tile processing.
package param

import (
	"fmt"
	"math"

	"github.com/arloliu/fitstile/compress"
	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/header"
	"github.com/arloliu/fitstile/quantize"
	"github.com/arloliu/fitstile/table"
)

// Header keywords.
const (
	KeyCompressionType = "ZCMPTYPE"
	KeyQuantize        = "ZQUANTIZ"
	KeyDither0         = "ZDITHER0"
	KeyBlank           = "ZBLANK"
	KeyMaskCompression = "ZMASKCMP"
	KeyName            = "ZNAME"
	KeyValue           = "ZVAL"
)

// Column names.
const (
	ColumnCompressed   = "COMPRESSED_DATA"
	ColumnUncompressed = "UNCOMPRESSED_DATA"
	ColumnGzip         = "GZIP_COMPRESSED_DATA"
	ColumnScale        = "ZSCALE"
	ColumnZero         = "ZZERO"
	ColumnBlank        = "ZBLANK"
	ColumnMask         = "NULL_PIXEL_MASK"
)

// HeaderParameter is a setting stored once per compressed image.
type HeaderParameter interface {
	Name() string
	GetValueFromHeader(h header.Access) error
	SetValueInHeader(h header.Access) error
}

// ColumnParameter is a setting stored once per tile, at the tile's row.
type ColumnParameter interface {
	Name() string
	InitializeColumn(h header.Access, t *table.Table) error
	BindColumn(h header.Access, t *table.Table) error
	SetValueInColumn(index int, tile *Tile) error
	GetValueFromColumn(index int, tile *Tile) error
}

// Tile holds the column-resident values of one tile.
type Tile struct {
	Quant quantize.State
	// Blank is the integer blank of the tile when HasBlank is set.
	Blank int64
	// Mask is the compressed null pixel mask; nil when the tile has no nulls.
	Mask []byte
}

// Set is the parameter set of one compressed image.
type Set struct {
	Algorithm     format.CompressionType
	Quantize      quantize.Config
	MaskAlgorithm format.CompressionType
	// Option holds the ZNAMEn/ZVALn settings of Algorithm. It is nil for
	// algorithms without options.
	Option compress.Option

	// HasBlank reports whether integer data uses Blank as its null value.
	HasBlank bool
	Blank    int64
	// BlankInColumn stores the blank per tile in the ZBLANK column instead
	// of the ZBLANK header card.
	BlankInColumn bool
	// NullMask enables the NULL_PIXEL_MASK column.
	NullMask bool

	headers []HeaderParameter
	columns []ColumnParameter
}

// NewSet creates a parameter set. A nil opt selects the algorithm defaults.
func NewSet(algorithm format.CompressionType, q quantize.Config, opt compress.Option) *Set {
	s := &Set{
		Algorithm:     algorithm,
		Quantize:      q,
		MaskAlgorithm: format.CompressionGzip1,
		Option:        opt,
	}
	if s.Option == nil {
		s.Option = DefaultOption(algorithm)
	}
	s.build()

	return s
}

// DefaultOption returns the default option instance of an algorithm, or nil
// for algorithms without options.
func DefaultOption(algorithm format.CompressionType) compress.Option {
	switch algorithm {
	case format.CompressionRice1:
		return compress.DefaultRiceOption()
	case format.CompressionHCompress:
		return &compress.HCompressOption{}
	default:
		return nil
	}
}

// Quantized reports whether tiles are quantized floats.
func (s *Set) Quantized() bool {
	return s.Quantize.Method != format.QuantizeNone
}

// Validate checks the configuration.
func (s *Set) Validate() error {
	if _, ok := format.ParseCompressionType(s.Algorithm.String()); !ok {
		return fmt.Errorf("algorithm %d: %w", s.Algorithm, errs.ErrUnknownAlgorithm)
	}
	if s.Quantized() {
		if err := s.Quantize.Validate(); err != nil {
			return err
		}
	}
	switch s.Option.(type) {
	case nil:
	case *compress.RiceOption:
		if s.Algorithm != format.CompressionRice1 {
			return fmt.Errorf("RICE_1 options for %s: %w", s.Algorithm, errs.ErrInvalidConfig)
		}
	case *compress.HCompressOption:
		if s.Algorithm != format.CompressionHCompress {
			return fmt.Errorf("HCOMPRESS_1 options for %s: %w", s.Algorithm, errs.ErrInvalidConfig)
		}
	}

	return nil
}

// build creates the parameter lists for the current configuration.
func (s *Set) build() {
	s.headers = headerParams(s)
	s.columns = []ColumnParameter{
		&columnParam[float64]{
			name: ColumnScale, form: table.FormFloat64, required: s.Quantized(), create: s.Quantized(),
			put:  func(t *Tile) float64 { return t.Quant.Scale },
			take: func(t *Tile, v float64) { t.Quant.Scale = v },
		},
		&columnParam[float64]{
			name: ColumnZero, form: table.FormFloat64, required: s.Quantized(), create: s.Quantized(),
			put:  func(t *Tile) float64 { return t.Quant.Zero },
			take: func(t *Tile, v float64) { t.Quant.Zero = v },
		},
		&columnParam[int64]{
			name: ColumnBlank, form: s.blankForm(), create: s.BlankInColumn,
			put: func(t *Tile) int64 { return t.Blank },
			take: func(t *Tile, v int64) {
				t.Blank = v
				t.Quant.Blank = int32(v)
			},
		},
		&columnParam[[]byte]{
			name: ColumnMask, form: table.FormByteArray, create: s.NullMask,
			put:  func(t *Tile) []byte { return t.Mask },
			take: func(t *Tile, v []byte) { t.Mask = v },
		},
	}
}

// blankForm declares ZBLANK as 32-bit unless the blank needs 64 bits.
func (s *Set) blankForm() string {
	if s.Blank < math.MinInt32 || s.Blank > math.MaxInt32 {
		return table.FormInt64
	}

	return table.FormInt32
}

// GetValuesFromHeader reads every header-resident parameter.
func (s *Set) GetValuesFromHeader(h header.Access) error {
	for _, p := range s.headers {
		if err := p.GetValueFromHeader(h); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}

	return nil
}

// SetValuesInHeader writes every header-resident parameter.
func (s *Set) SetValuesInHeader(h header.Access) error {
	for _, p := range s.headers {
		if err := p.SetValueInHeader(h); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}

	return nil
}

// InitializeColumns sizes t for tileCount tiles and binds every column
// parameter, creating the columns the configuration needs that the header
// does not declare yet. The column parameters are rebuilt from the current
// configuration first.
func (s *Set) InitializeColumns(h header.Access, t *table.Table, tileCount int) error {
	if err := t.EnsureRows(tileCount); err != nil {
		return err
	}
	s.build()
	for _, c := range s.columns {
		if err := c.InitializeColumn(h, t); err != nil {
			return err
		}
	}

	return nil
}

// BindColumns binds the column parameters to the columns declared in h
// without creating any. A missing required column is an error.
func (s *Set) BindColumns(h header.Access, t *table.Table) error {
	s.build()
	for _, c := range s.columns {
		if err := c.BindColumn(h, t); err != nil {
			return err
		}
	}

	return nil
}

// SetValuesInColumn stores the values of the tile at index.
func (s *Set) SetValuesInColumn(index int, tile *Tile) error {
	for _, c := range s.columns {
		if err := c.SetValueInColumn(index, tile); err != nil {
			return err
		}
	}

	return nil
}

// GetValuesFromColumn loads the values of the tile at index. The dither seed
// is not stored; it is recomputed from index and ZDITHER0.
func (s *Set) GetValuesFromColumn(index int, tile *Tile) error {
	*tile = Tile{
		Quant: quantize.NewState(s.Quantize, index, 1, 0),
		Blank: s.Blank,
	}
	for _, c := range s.columns {
		if err := c.GetValueFromColumn(index, tile); err != nil {
			return err
		}
	}

	return nil
}

// Copy returns an independent set with the same configuration bound to opt.
// A nil opt copies the current option. Column bindings are shared.
func (s *Set) Copy(opt compress.Option) *Set {
	c := *s
	switch {
	case opt != nil:
		c.Option = opt
	case s.Option != nil:
		c.Option = s.Option.Copy()
	}
	c.columns = append([]ColumnParameter(nil), s.columns...)
	c.headers = headerParams(&c)

	return &c
}
