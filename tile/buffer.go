// Package tile splits N-dimensional images into rectangular tiles and gives
// each tile a linear view over the full image storage.
package tile

import (
	"fmt"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
)

// Layout is the physical access pattern of a Buffer.
type Layout uint8

const (
	// RowMajor is a direct contiguous slice of the image. It is used when the
	// tile spans full image rows, so consecutive tile rows are adjacent.
	RowMajor Layout = iota
	// ColumnMajor gathers and scatters tile rows with the image row stride.
	ColumnMajor
)

func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "RowMajor"
	case ColumnMajor:
		return "ColumnMajor"
	default:
		return "Unknown"
	}
}

// Buffer is a view over one 2-D tile of an image stored row after row.
//
// The layout is chosen once by NewBuffer and never changes. Both layouts
// answer Get/Put/Extract/Store identically.
type Buffer[T format.Pixel] struct {
	src    []T
	offset int
	stride int
	width  int
	height int
	layout Layout
}

// NewBuffer creates the view of the tileWidth x tileHeight tile whose first
// pixel is src[offset], in an image whose rows are imageWidth pixels long.
//
// Callers clamp boundary tiles to the image before calling; a tile reaching
// past the image row or past the end of src is an error.
func NewBuffer[T format.Pixel](src []T, offset, imageWidth, tileWidth, tileHeight int) (*Buffer[T], error) {
	if imageWidth <= 0 || tileWidth <= 0 || tileHeight <= 0 {
		return nil, fmt.Errorf("tile %dx%d in image width %d: %w", tileWidth, tileHeight, imageWidth, errs.ErrInvalidTileSize)
	}
	if offset < 0 || offset%imageWidth+tileWidth > imageWidth ||
		offset+(tileHeight-1)*imageWidth+tileWidth > len(src) {
		return nil, fmt.Errorf("tile %dx%d at offset %d in %d pixels of width %d: %w",
			tileWidth, tileHeight, offset, len(src), imageWidth, errs.ErrTileOutOfBounds)
	}

	b := &Buffer[T]{
		src:    src,
		offset: offset,
		stride: imageWidth,
		width:  tileWidth,
		height: tileHeight,
		layout: ColumnMajor,
	}
	if tileWidth == imageWidth {
		b.layout = RowMajor
		b.src = src[offset : offset+tileWidth*tileHeight]
		b.offset = 0
	}

	return b, nil
}

// Layout returns the layout chosen at construction.
func (b *Buffer[T]) Layout() Layout {
	return b.layout
}

// Width returns the tile width.
func (b *Buffer[T]) Width() int {
	return b.width
}

// Height returns the tile height.
func (b *Buffer[T]) Height() int {
	return b.height
}

// Len returns the number of pixels in the tile.
func (b *Buffer[T]) Len() int {
	return b.width * b.height
}

func (b *Buffer[T]) index(x, y int) int {
	if b.layout == RowMajor {
		return y*b.width + x
	}

	return b.offset + y*b.stride + x
}

// Get returns the tile pixel at (x, y).
func (b *Buffer[T]) Get(x, y int) T {
	return b.src[b.index(x, y)]
}

// Put sets the tile pixel at (x, y).
func (b *Buffer[T]) Put(x, y int, v T) {
	b.src[b.index(x, y)] = v
}

// Slice returns the contiguous tile storage for RowMajor buffers.
func (b *Buffer[T]) Slice() ([]T, bool) {
	if b.layout != RowMajor {
		return nil, false
	}

	return b.src, true
}

// Extract copies the tile into dst, row after row.
func (b *Buffer[T]) Extract(dst []T) error {
	if len(dst) != b.Len() {
		return fmt.Errorf("extract %d pixels into %d: %w", b.Len(), len(dst), errs.ErrBufferSizeMismatch)
	}

	if b.layout == RowMajor {
		copy(dst, b.src)
		return nil
	}

	for y := 0; y < b.height; y++ {
		start := b.offset + y*b.stride
		copy(dst[y*b.width:(y+1)*b.width], b.src[start:start+b.width])
	}

	return nil
}

// Store copies src, row after row, into the tile.
func (b *Buffer[T]) Store(src []T) error {
	if len(src) != b.Len() {
		return fmt.Errorf("store %d pixels into %d: %w", len(src), b.Len(), errs.ErrBufferSizeMismatch)
	}

	if b.layout == RowMajor {
		copy(b.src, src)
		return nil
	}

	for y := 0; y < b.height; y++ {
		start := b.offset + y*b.stride
		copy(b.src[start:start+b.width], src[y*b.width:(y+1)*b.width])
	}

	return nil
}
