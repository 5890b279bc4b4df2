// Package rice implements the adaptive Rice entropy coder used by RICE_1 and
// by the coefficient stream of HCOMPRESS_1.
//
// Values are coded in blocks. Each block stores a k parameter (fs) chosen
// from the mean magnitude of the block, followed by the values split into a
// unary high part and fs raw low bits. Blocks of zeros cost fsbits bits, and
// blocks too noisy for Rice coding are stored raw.
package rice

import (
	"fmt"
	"math/bits"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/internal/bitio"
)

// Params are the per-width coding constants.
type Params struct {
	FSBits uint // bits used to store fs
	FSMax  uint // fs value that switches a block to raw storage
	BBits  uint // width of a raw value
}

// ParamsFor returns the coding constants for values of bytepix bytes.
func ParamsFor(bytepix int) (Params, error) {
	switch bytepix {
	case 1:
		return Params{FSBits: 3, FSMax: 6, BBits: 8}, nil
	case 2:
		return Params{FSBits: 4, FSMax: 14, BBits: 16}, nil
	case 4:
		return Params{FSBits: 5, FSMax: 25, BBits: 32}, nil
	case 8:
		return Params{FSBits: 6, FSMax: 58, BBits: 64}, nil
	default:
		return Params{}, fmt.Errorf("rice: bytepix %d: %w", bytepix, errs.ErrInvalidConfig)
	}
}

// Mode selects what the coder stores.
type Mode uint8

const (
	// Differential codes the difference to the previous value, with the first
	// value stored raw. This is the RICE_1 layout.
	Differential Mode = iota
	// Direct codes each value on its own, for already decorrelated data.
	Direct
)

// wrap sign-extends the low n bits of v.
func wrap(v int64, n uint) int64 {
	if n >= 64 {
		return v
	}
	shift := 64 - n

	return v << shift >> shift
}

func zigzag(d int64) uint64 {
	return uint64(d<<1) ^ uint64(d>>63)
}

func unzigzag(m uint64) int64 {
	return int64(m>>1) ^ -int64(m&1)
}

// Encode appends the Rice coded form of values to dst.
func Encode(dst []byte, values []int64, blockSize int, p Params, mode Mode) ([]byte, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("rice: block size %d: %w", blockSize, errs.ErrInvalidConfig)
	}

	w := bitio.NewWriter(dst)
	if len(values) == 0 {
		return w.Bytes(), nil
	}

	var last int64
	if mode == Differential {
		last = wrap(values[0], p.BBits)
		w.WriteBits(uint64(last), p.BBits)
	}

	var mask uint64 = 1<<p.BBits - 1
	if p.BBits == 64 {
		mask = ^uint64(0)
	}

	mapped := make([]uint64, blockSize)
	for start := 0; start < len(values); start += blockSize {
		end := min(start+blockSize, len(values))
		block := mapped[:end-start]

		var sum uint64
		overflow := false
		for i, v := range values[start:end] {
			d := wrap(v, p.BBits)
			if mode == Differential {
				d, last = wrap(d-last, p.BBits), d
			}
			m := zigzag(d) & mask
			block[i] = m

			var carry uint64
			sum, carry = bits.Add64(sum, m, 0)
			overflow = overflow || carry != 0
		}

		fs := p.FSMax
		if !overflow {
			n := uint64(len(block))
			var dpsum uint64
			if sum > n/2+1 {
				dpsum = (sum - n/2 - 1) / n
			}
			fs = uint(bits.Len64(dpsum >> 1))
		}

		if fs < p.FSMax && !overflow && riceCost(block, fs) > uint64(len(block))*uint64(p.BBits) {
			fs = p.FSMax
		}

		switch {
		case fs >= p.FSMax:
			w.WriteBits(uint64(p.FSMax+1), p.FSBits)
			for _, m := range block {
				w.WriteBits(m, p.BBits)
			}
		case fs == 0 && sum == 0:
			w.WriteBits(0, p.FSBits)
		default:
			w.WriteBits(uint64(fs+1), p.FSBits)
			low := uint64(1)<<fs - 1
			for _, m := range block {
				w.WriteUnary(m >> fs)
				w.WriteBits(m&low, fs)
			}
		}
	}

	return w.Bytes(), nil
}

// riceCost returns the coded size in bits of a block for the given fs,
// saturating instead of overflowing.
func riceCost(block []uint64, fs uint) uint64 {
	var cost uint64
	for _, m := range block {
		c := (m >> fs) + 1 + uint64(fs)
		var carry uint64
		cost, carry = bits.Add64(cost, c, 0)
		if carry != 0 {
			return ^uint64(0)
		}
	}

	return cost
}

// Decode fills dst from a stream produced by Encode with the same parameters.
// Decoded values are sign-extended from BBits; callers narrow them to the
// element type.
func Decode(data []byte, dst []int64, blockSize int, p Params, mode Mode) error {
	if blockSize <= 0 {
		return fmt.Errorf("rice: block size %d: %w", blockSize, errs.ErrInvalidConfig)
	}
	if len(dst) == 0 {
		return nil
	}

	r := bitio.NewReader(data)

	var last int64
	if mode == Differential {
		v, err := r.ReadBits(p.BBits)
		if err != nil {
			return corrupt(err)
		}
		last = wrap(int64(v), p.BBits)
	}

	for start := 0; start < len(dst); start += blockSize {
		end := min(start+blockSize, len(dst))

		code, err := r.ReadBits(p.FSBits)
		if err != nil {
			return corrupt(err)
		}
		fs := int(code) - 1

		for i := start; i < end; i++ {
			var m uint64
			switch {
			case fs < 0:
				m = 0
			case uint(fs) == p.FSMax:
				if m, err = r.ReadBits(p.BBits); err != nil {
					return corrupt(err)
				}
			case uint(fs) > p.FSMax:
				return fmt.Errorf("rice: fs %d exceeds %d: %w", fs, p.FSMax, errs.ErrCorruptData)
			default:
				top, err := r.ReadUnary()
				if err != nil {
					return corrupt(err)
				}
				low, err := r.ReadBits(uint(fs))
				if err != nil {
					return corrupt(err)
				}
				m = top<<uint(fs) | low
			}

			d := unzigzag(m)
			if mode == Differential {
				last = wrap(last+d, p.BBits)
				dst[i] = last
			} else {
				dst[i] = wrap(d, p.BBits)
			}
		}
	}

	return nil
}

func corrupt(err error) error {
	return fmt.Errorf("rice: %w: %w", errs.ErrCorruptData, err)
}
