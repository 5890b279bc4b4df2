package param

import (
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/fitstile/compress"
	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/header"
	"github.com/arloliu/fitstile/internal/collision"
)

// Algorithm option names stored in ZNAMEn cards.
const (
	NameBlockSize = "BLOCKSIZE"
	NameBytePix   = "BYTEPIX"
	NameScale     = "SCALE"
	NameSmooth    = "SMOOTH"
)

// optionValue binds one ZNAMEn name to a field of the algorithm option.
type optionValue struct {
	name string
	get  func() any
	set  func(c header.Card) error
}

func optionValues(opt compress.Option) []optionValue {
	switch o := opt.(type) {
	case *compress.RiceOption:
		return []optionValue{
			{
				name: NameBlockSize,
				get:  func() any { return o.BlockSize },
				set:  intSetter(func(v int) { o.BlockSize = v }),
			},
			{
				name: NameBytePix,
				get:  func() any { return o.BytePix },
				set:  intSetter(func(v int) { o.BytePix = v }),
			},
		}
	case *compress.HCompressOption:
		return []optionValue{
			{
				name: NameScale,
				get:  func() any { return o.Scale },
				set: func(c header.Card) error {
					f, err := c.FloatValue()
					if err != nil {
						return err
					}
					if f < 0 || f > math.MaxInt32 {
						return fmt.Errorf("SCALE %v: %w", f, errs.ErrInvalidHeaderValue)
					}
					o.Scale = int(math.Round(f))

					return nil
				},
			},
			{
				name: NameSmooth,
				get: func() any {
					if o.Smooth {
						return 1
					}
					return 0
				},
				set: intSetter(func(v int) { o.Smooth = v != 0 }),
			},
		}
	default:
		return nil
	}
}

func intSetter(assign func(int)) func(header.Card) error {
	return func(c header.Card) error {
		v, err := c.IntValue()
		if err != nil {
			return err
		}
		assign(int(v))

		return nil
	}
}

// optionParams is the ZNAMEn/ZVALn sequence of the algorithm option.
type optionParams struct{ s *Set }

func (p optionParams) Name() string { return KeyName + "n/" + KeyValue + "n" }

// GetValueFromHeader scans ZNAME1, ZNAME2, ... until the first absent card.
// Names the option does not know are skipped. A name that appears twice is
// rejected.
func (p optionParams) GetValueFromHeader(h header.Access) error {
	values := optionValues(p.s.Option)
	tracker := collision.NewTracker()

	for n := 1; ; n++ {
		name, ok, err := header.String(h, fmt.Sprintf("%s%d", KeyName, n))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := tracker.Track(name, n); err != nil {
			return err
		}

		card, ok := h.Card(fmt.Sprintf("%s%d", KeyValue, n))
		if !ok {
			return fmt.Errorf("%s%d for %s: %w", KeyValue, n, name, errs.ErrMissingHeaderCard)
		}

		for _, v := range values {
			if strings.EqualFold(strings.TrimSpace(name), v.name) {
				if err := v.set(card); err != nil {
					return fmt.Errorf("%s: %w", v.name, err)
				}

				break
			}
		}
	}
}

// SetValueInHeader replaces any existing ZNAMEn/ZVALn sequence.
func (p optionParams) SetValueInHeader(h header.Access) error {
	for n := 1; ; n++ {
		if !h.Delete(fmt.Sprintf("%s%d", KeyName, n)) {
			break
		}
		h.Delete(fmt.Sprintf("%s%d", KeyValue, n))
	}

	for i, v := range optionValues(p.s.Option) {
		h.Set(fmt.Sprintf("%s%d", KeyName, i+1), v.name, "compression option")
		h.Set(fmt.Sprintf("%s%d", KeyValue, i+1), v.get(), "")
	}

	return nil
}
