package tiled

import (
	"fmt"

	"github.com/arloliu/fitstile/compress"
	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/header"
	"github.com/arloliu/fitstile/table"
)

// Image is an N-dimensional image held in memory, fastest axis first
// (NAXIS1 is Axes[0]).
type Image[T format.Pixel] struct {
	Axes   []int
	Pixels []T
	// Blank is the integer null value (the BLANK keyword). It is ignored
	// for float images, where NaN is the null value.
	Blank    int64
	HasBlank bool
}

// NewImage allocates a zeroed image with the given axes.
func NewImage[T format.Pixel](axes ...int) *Image[T] {
	n := 1
	for _, a := range axes {
		n *= max(a, 0)
	}

	return &Image[T]{
		Axes:   append([]int(nil), axes...),
		Pixels: make([]T, n),
	}
}

// Len returns the number of pixels described by the axes.
func (img *Image[T]) Len() int {
	if len(img.Axes) == 0 {
		return 0
	}

	n := 1
	for _, a := range img.Axes {
		n *= a
	}

	return n
}

func (img *Image[T]) validate() error {
	if len(img.Axes) == 0 {
		return fmt.Errorf("image has no axes: %w", errs.ErrInvalidConfig)
	}
	for i, a := range img.Axes {
		if a <= 0 {
			return fmt.Errorf("NAXIS%d is %d: %w", i+1, a, errs.ErrInvalidConfig)
		}
	}
	if len(img.Pixels) != img.Len() {
		return fmt.Errorf("image holds %d pixels, axes describe %d: %w", len(img.Pixels), img.Len(), errs.ErrBufferSizeMismatch)
	}
	if img.HasBlank && !format.BlankInRange[T](img.Blank) {
		return fmt.Errorf("BLANK %d out of range for %s: %w", img.Blank, format.KindOf[T](), errs.ErrInvalidConfig)
	}

	return nil
}

// hasNulls reports whether any pixel would need the null pixel mask.
func (img *Image[T]) hasNulls() bool {
	for _, v := range img.Pixels {
		if format.IsNull(v, img.Blank, img.HasBlank) {
			return true
		}
	}

	return false
}

// Result is a compressed image: the header cards and the binary table that
// carry it, plus the statistics of the run.
type Result struct {
	Header *header.Header
	Table  *table.Table
	Stats  compress.CompressionStats
}
