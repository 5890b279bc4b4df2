package tiled

import (
	"fmt"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/header"
)

// Image description keywords of a compressed image HDU.
const (
	KeyImage  = "ZIMAGE"
	KeyBitpix = "ZBITPIX"
	KeyNaxis  = "ZNAXIS"
	KeyTile   = "ZTILE"
)

// maxAxes is the FITS limit on NAXIS.
const maxAxes = 999

// geometry is the image description stored in the header.
type geometry struct {
	elem      *format.ElementType
	axes      []int
	tileShape []int
}

func writeGeometry(h header.Access, g geometry) {
	h.Set(KeyImage, true, "extension contains compressed image")
	h.Set(KeyBitpix, g.elem.Bitpix, "data type of original image")
	h.Set(KeyNaxis, len(g.axes), "dimension of original image")
	for i, a := range g.axes {
		h.Set(fmt.Sprintf("%s%d", KeyNaxis, i+1), a, "length of original image axis")
	}
	for i, s := range g.tileShape {
		h.Set(fmt.Sprintf("%s%d", KeyTile, i+1), s, "size of tiles to be compressed")
	}
}

func readGeometry(h header.Access) (geometry, error) {
	var g geometry

	zimage, ok, err := header.Bool(h, KeyImage)
	if err != nil {
		return g, err
	}
	if ok && !zimage {
		return g, fmt.Errorf("%s is false: %w", KeyImage, errs.ErrInvalidHeaderValue)
	}

	bitpix, err := header.RequireInt(h, KeyBitpix)
	if err != nil {
		return g, err
	}
	g.elem = format.TypeByBitpix(int(bitpix))
	if g.elem == nil {
		return g, fmt.Errorf("%s %d: %w", KeyBitpix, bitpix, errs.ErrInvalidHeaderValue)
	}

	naxis, err := header.RequireInt(h, KeyNaxis)
	if err != nil {
		return g, err
	}
	if naxis < 1 || naxis > maxAxes {
		return g, fmt.Errorf("%s %d: %w", KeyNaxis, naxis, errs.ErrInvalidHeaderValue)
	}

	g.axes = make([]int, naxis)
	g.tileShape = make([]int, naxis)
	for i := range g.axes {
		key := fmt.Sprintf("%s%d", KeyNaxis, i+1)
		n, err := header.RequireInt(h, key)
		if err != nil {
			return g, err
		}
		if n < 1 {
			return g, fmt.Errorf("%s %d: %w", key, n, errs.ErrInvalidHeaderValue)
		}
		g.axes[i] = int(n)

		// Absent ZTILEn means row by row tiles.
		key = fmt.Sprintf("%s%d", KeyTile, i+1)
		t, ok, err := header.Int(h, key)
		if err != nil {
			return g, err
		}
		switch {
		case !ok && i == 0:
			g.tileShape[i] = g.axes[i]
		case !ok:
			g.tileShape[i] = 1
		case t < 1:
			return g, fmt.Errorf("%s %d: %w", key, t, errs.ErrInvalidTileSize)
		default:
			g.tileShape[i] = int(t)
		}
	}

	return g, nil
}
