package param

import (
	"fmt"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/header"
	"github.com/arloliu/fitstile/quantize"
)

// headerParams lists the header-resident parameters in read order. ZCMPTYPE
// comes first because it decides which option the ZNAMEn cards fill.
func headerParams(s *Set) []HeaderParameter {
	return []HeaderParameter{
		compressionTypeParam{s},
		quantizeParam{s},
		dither0Param{s},
		blankParam{s},
		maskCompressionParam{s},
		optionParams{s},
	}
}

type compressionTypeParam struct{ s *Set }

func (p compressionTypeParam) Name() string { return KeyCompressionType }

func (p compressionTypeParam) GetValueFromHeader(h header.Access) error {
	name, err := header.RequireString(h, KeyCompressionType)
	if err != nil {
		return err
	}
	ct, ok := format.ParseCompressionType(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, errs.ErrUnknownAlgorithm)
	}

	if ct != p.s.Algorithm || p.s.Option == nil {
		p.s.Option = DefaultOption(ct)
	}
	p.s.Algorithm = ct

	return nil
}

func (p compressionTypeParam) SetValueInHeader(h header.Access) error {
	h.Set(KeyCompressionType, p.s.Algorithm.String(), "compression algorithm")
	return nil
}

type quantizeParam struct{ s *Set }

func (p quantizeParam) Name() string { return KeyQuantize }

func (p quantizeParam) GetValueFromHeader(h header.Access) error {
	name, ok, err := header.String(h, KeyQuantize)
	if err != nil {
		return err
	}
	if !ok {
		p.s.Quantize.Method = format.QuantizeNone
		return nil
	}

	m, ok := format.ParseQuantizeMethod(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, errs.ErrInvalidQuantization)
	}
	p.s.Quantize.Method = m

	return nil
}

func (p quantizeParam) SetValueInHeader(h header.Access) error {
	if !p.s.Quantized() {
		h.Delete(KeyQuantize)
		return nil
	}
	h.Set(KeyQuantize, p.s.Quantize.Method.String(), "pixel quantization method")

	return nil
}

type dither0Param struct{ s *Set }

func (p dither0Param) Name() string { return KeyDither0 }

func (p dither0Param) GetValueFromHeader(h header.Access) error {
	v, ok, err := header.Int(h, KeyDither0)
	if err != nil {
		return err
	}
	if !ok {
		if p.s.Quantize.Method.IsDithered() {
			return fmt.Errorf("%s needs %s: %w", p.s.Quantize.Method, KeyDither0, errs.ErrMissingHeaderCard)
		}
		return nil
	}
	if v < 1 || v > quantize.NRandom {
		return fmt.Errorf("%d outside 1..%d: %w", v, quantize.NRandom, errs.ErrInvalidHeaderValue)
	}
	p.s.Quantize.Dither0 = int(v)

	return nil
}

func (p dither0Param) SetValueInHeader(h header.Access) error {
	if !p.s.Quantize.Method.IsDithered() {
		h.Delete(KeyDither0)
		return nil
	}
	h.Set(KeyDither0, p.s.Quantize.Dither0, "dithering offset")

	return nil
}

// blankParam is the image-wide ZBLANK card. It is absent when blanks are
// kept per tile in the ZBLANK column.
type blankParam struct{ s *Set }

func (p blankParam) Name() string { return KeyBlank }

func (p blankParam) GetValueFromHeader(h header.Access) error {
	v, ok, err := header.Int(h, KeyBlank)
	if err != nil {
		return err
	}

	p.s.BlankInColumn = false
	if !ok {
		// A ZBLANK column may still be declared.
		_, inColumn, err := findColumn(h, ColumnBlank)
		if err != nil {
			return err
		}
		p.s.HasBlank = inColumn
		p.s.BlankInColumn = inColumn
		if p.s.Quantized() {
			p.s.Quantize.Blank = quantize.NullValue
		}

		return nil
	}

	p.s.HasBlank = true
	p.s.Blank = v
	if p.s.Quantized() {
		p.s.Quantize.Blank = int32(v)
	}

	return nil
}

func (p blankParam) SetValueInHeader(h header.Access) error {
	if !p.s.HasBlank || p.s.BlankInColumn {
		h.Delete(KeyBlank)
		return nil
	}
	h.Set(KeyBlank, p.s.Blank, "null value in the compressed integer array")

	return nil
}

type maskCompressionParam struct{ s *Set }

func (p maskCompressionParam) Name() string { return KeyMaskCompression }

func (p maskCompressionParam) GetValueFromHeader(h header.Access) error {
	name, ok, err := header.String(h, KeyMaskCompression)
	if err != nil {
		return err
	}
	if !ok {
		_, declared, err := findColumn(h, ColumnMask)
		p.s.NullMask = declared

		return err
	}

	ct, ok := format.ParseCompressionType(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, errs.ErrUnknownAlgorithm)
	}
	p.s.MaskAlgorithm = ct
	p.s.NullMask = true

	return nil
}

func (p maskCompressionParam) SetValueInHeader(h header.Access) error {
	if !p.s.NullMask {
		h.Delete(KeyMaskCompression)
		return nil
	}
	h.Set(KeyMaskCompression, p.s.MaskAlgorithm.String(), "null pixel mask compression")

	return nil
}
