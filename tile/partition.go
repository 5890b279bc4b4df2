package tile

import (
	"fmt"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
)

// Descriptor locates one tile of an image partition.
type Descriptor struct {
	// Index is the sequential tile number, also the table row of the tile.
	Index int
	// Origin is the coordinate of the first tile pixel, fastest axis first.
	Origin []int
	// Size is the clamped tile extent along each axis.
	Size []int
}

// Len returns the number of pixels in the tile.
func (d Descriptor) Len() int {
	n := 1
	for _, s := range d.Size {
		n *= s
	}

	return n
}

// Partition splits an image with the given axes (fastest first) into tiles of
// tileShape. Missing trailing tile axes default to 1. Tiles at the far edge of
// an axis are clamped to the image; a nominal tile larger than its axis is
// clamped to the axis length.
func Partition(axes, tileShape []int) ([]Descriptor, error) {
	return partition(axes, tileShape, false)
}

// PartitionStrict is Partition without edge clamping: every tile axis must
// divide its image axis exactly.
func PartitionStrict(axes, tileShape []int) ([]Descriptor, error) {
	return partition(axes, tileShape, true)
}

// NormalizeShape returns tileShape padded with 1 to the image rank and
// clamped to the axes.
func NormalizeShape(axes, tileShape []int) ([]int, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("image has no axes: %w", errs.ErrInvalidConfig)
	}
	if len(tileShape) > len(axes) {
		return nil, fmt.Errorf("tile rank %d exceeds image rank %d: %w", len(tileShape), len(axes), errs.ErrInvalidTileSize)
	}

	shape := make([]int, len(axes))
	for i, n := range axes {
		if n <= 0 {
			return nil, fmt.Errorf("axis %d has length %d: %w", i+1, n, errs.ErrInvalidConfig)
		}

		shape[i] = 1
		if i < len(tileShape) {
			shape[i] = tileShape[i]
		}
		if shape[i] <= 0 {
			return nil, fmt.Errorf("tile axis %d is %d: %w", i+1, shape[i], errs.ErrInvalidTileSize)
		}
		shape[i] = min(shape[i], n)
	}

	return shape, nil
}

func partition(axes, tileShape []int, strict bool) ([]Descriptor, error) {
	shape, err := NormalizeShape(axes, tileShape)
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(axes))
	total := 1
	for i, n := range axes {
		if strict && n%shape[i] != 0 {
			return nil, fmt.Errorf("tile axis %d (%d) does not divide image axis (%d): %w", i+1, shape[i], n, errs.ErrInvalidTileSize)
		}
		counts[i] = (n + shape[i] - 1) / shape[i]
		total *= counts[i]
	}

	tiles := make([]Descriptor, total)
	pos := make([]int, len(axes))
	for idx := range tiles {
		d := Descriptor{Index: idx, Origin: make([]int, len(axes)), Size: make([]int, len(axes))}
		for i := range axes {
			d.Origin[i] = pos[i] * shape[i]
			d.Size[i] = min(shape[i], axes[i]-d.Origin[i])
		}
		tiles[idx] = d

		for i := range pos {
			pos[i]++
			if pos[i] < counts[i] {
				break
			}
			pos[i] = 0
		}
	}

	return tiles, nil
}

// Region is the set of 2-D plane buffers that make up an N-D tile.
type Region[T format.Pixel] struct {
	planes []*Buffer[T]
	length int
}

// NewRegion creates the views of tile d over src, an image with the given
// axes stored fastest axis first.
func NewRegion[T format.Pixel](src []T, axes []int, d Descriptor) (*Region[T], error) {
	if len(d.Origin) != len(axes) || len(d.Size) != len(axes) {
		return nil, fmt.Errorf("descriptor rank %d for image rank %d: %w", len(d.Origin), len(axes), errs.ErrInvalidConfig)
	}

	total := 1
	for _, n := range axes {
		total *= n
	}
	if len(src) != total {
		return nil, fmt.Errorf("image holds %d pixels, axes need %d: %w", len(src), total, errs.ErrBufferSizeMismatch)
	}

	width := axes[0]
	height, th, oy := 1, 1, 0
	if len(axes) > 1 {
		height, th, oy = axes[1], d.Size[1], d.Origin[1]
	}

	// Enumerate the planes spanned by the tile along axes 3..n.
	outer := axes[min(2, len(axes)):]
	outerOrigin := d.Origin[min(2, len(axes)):]
	outerSize := d.Size[min(2, len(axes)):]
	planes := 1
	for _, s := range outerSize {
		planes *= s
	}

	r := &Region[T]{planes: make([]*Buffer[T], 0, planes), length: d.Len()}
	pos := make([]int, len(outer))
	planeLen := width * height
	for p := 0; p < planes; p++ {
		plane, mul := 0, 1
		for i := range outer {
			plane += (outerOrigin[i] + pos[i]) * mul
			mul *= outer[i]
		}

		b, err := NewBuffer(src[plane*planeLen:(plane+1)*planeLen], oy*width+d.Origin[0], width, d.Size[0], th)
		if err != nil {
			return nil, err
		}
		r.planes = append(r.planes, b)

		for i := range pos {
			pos[i]++
			if pos[i] < outerSize[i] {
				break
			}
			pos[i] = 0
		}
	}

	return r, nil
}

// Len returns the number of pixels in the tile.
func (r *Region[T]) Len() int {
	return r.length
}

// Planes returns the per-plane buffers in storage order.
func (r *Region[T]) Planes() []*Buffer[T] {
	return r.planes
}

// Extract copies the tile into dst in FITS pixel order.
func (r *Region[T]) Extract(dst []T) error {
	if len(dst) != r.length {
		return fmt.Errorf("extract %d pixels into %d: %w", r.length, len(dst), errs.ErrBufferSizeMismatch)
	}

	pos := 0
	for _, b := range r.planes {
		if err := b.Extract(dst[pos : pos+b.Len()]); err != nil {
			return err
		}
		pos += b.Len()
	}

	return nil
}

// Store copies src, in FITS pixel order, into the tile.
func (r *Region[T]) Store(src []T) error {
	if len(src) != r.length {
		return fmt.Errorf("store %d pixels into %d: %w", len(src), r.length, errs.ErrBufferSizeMismatch)
	}

	pos := 0
	for _, b := range r.planes {
		if err := b.Store(src[pos : pos+b.Len()]); err != nil {
			return err
		}
		pos += b.Len()
	}

	return nil
}
