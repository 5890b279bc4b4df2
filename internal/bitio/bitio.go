// Package bitio implements MSB-first bit streams for the entropy coders.
package bitio

import (
	"errors"
	"math/bits"
)

// ErrUnexpectedEOF is returned when a read runs past the end of the stream.
var ErrUnexpectedEOF = errors.New("bitio: unexpected end of bit stream")

// Writer accumulates bits most significant bit first.
type Writer struct {
	buf   []byte
	acc   uint64 // pending bits, right aligned
	nbits uint   // number of pending bits, always < 8 between calls
}

// NewWriter creates a writer that appends to buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// WriteBits writes the low n bits of v, n <= 64.
func (w *Writer) WriteBits(v uint64, n uint) {
	if n > 32 {
		w.WriteBits(v>>32, n-32)
		v &= 0xffffffff
		n = 32
	}

	w.acc = w.acc<<n | v&(1<<n-1)
	w.nbits += n
	for w.nbits >= 8 {
		w.nbits -= 8
		w.buf = append(w.buf, byte(w.acc>>w.nbits))
	}
	w.acc &= 1<<w.nbits - 1
}

// WriteUnary writes n zero bits followed by a single one bit.
func (w *Writer) WriteUnary(n uint64) {
	for n >= 32 {
		w.WriteBits(0, 32)
		n -= 32
	}
	w.WriteBits(1, uint(n)+1)
}

// Bytes flushes the pending bits, padding with zeros, and returns the stream.
// The writer must not be used afterwards.
func (w *Writer) Bytes() []byte {
	if w.nbits > 0 {
		w.buf = append(w.buf, byte(w.acc<<(8-w.nbits)))
		w.acc, w.nbits = 0, 0
	}

	return w.buf
}

// Reader reads bits most significant bit first.
type Reader struct {
	data  []byte
	pos   int
	acc   uint64
	nbits uint
}

// NewReader creates a reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadBits reads n bits, n <= 64.
func (r *Reader) ReadBits(n uint) (uint64, error) {
	if n > 32 {
		hi, err := r.ReadBits(n - 32)
		if err != nil {
			return 0, err
		}
		lo, err := r.ReadBits(32)
		if err != nil {
			return 0, err
		}

		return hi<<32 | lo, nil
	}

	for r.nbits < n {
		if r.pos >= len(r.data) {
			return 0, ErrUnexpectedEOF
		}
		r.acc = r.acc<<8 | uint64(r.data[r.pos])
		r.pos++
		r.nbits += 8
	}

	r.nbits -= n
	v := r.acc >> r.nbits
	r.acc &= 1<<r.nbits - 1

	return v, nil
}

// ReadUnary counts zero bits up to and including the next one bit.
func (r *Reader) ReadUnary() (uint64, error) {
	var count uint64
	for {
		if r.nbits == 0 {
			if r.pos >= len(r.data) {
				return 0, ErrUnexpectedEOF
			}
			r.acc = uint64(r.data[r.pos])
			r.pos++
			r.nbits = 8
		}

		if r.acc == 0 {
			count += uint64(r.nbits)
			r.nbits = 0
			continue
		}

		l := uint(bits.Len64(r.acc))
		count += uint64(r.nbits - l)
		r.nbits = l - 1
		r.acc &= 1<<r.nbits - 1

		return count, nil
	}
}
