package tiled

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/fitstile/compress"
	"github.com/arloliu/fitstile/endian"
	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/header"
	"github.com/arloliu/fitstile/internal/options"
	"github.com/arloliu/fitstile/internal/pool"
	"github.com/arloliu/fitstile/mask"
	"github.com/arloliu/fitstile/param"
	"github.com/arloliu/fitstile/quantize"
	"github.com/arloliu/fitstile/table"
	"github.com/arloliu/fitstile/tile"
)

// Compressor compresses images of element type T into tiled form.
//
// A Compressor holds only configuration and may be used by several
// goroutines at once; each Compress call runs its own bounded tile pool.
type Compressor[T format.Pixel] struct {
	cfg *Config
}

// NewCompressor creates a compressor.
//
// Float images are quantized with SUBTRACTIVE_DITHER_1 at level 4 unless
// WithQuantization says otherwise; integer images are never quantized.
//
// Example:
//
//	c, err := tiled.NewCompressor[float32](
//	    tiled.WithAlgorithm(format.CompressionRice1),
//	    tiled.WithTileShape(100, 100),
//	)
func NewCompressor[T format.Pixel](opts ...Option) (*Compressor[T], error) {
	cfg := newConfig()
	if err := options.ApplyAndValidate(cfg, opts...); err != nil {
		return nil, err
	}

	return &Compressor[T]{cfg: cfg}, nil
}

// fallback is a tile stored outside COMPRESSED_DATA.
type fallback struct {
	column string
	data   []byte
}

// compressJob is the state of one Compress call shared by its tile workers.
// Workers write disjoint indices of the pre-sized columns and fallbacks.
type compressJob[T format.Pixel] struct {
	cfg       *Config
	img       *Image[T]
	set       *param.Set
	ctrl      compress.Control
	preserver *mask.Preserver[T]
	data      *table.Column[[]byte]
	fallbacks []fallback
	engine    endian.EndianEngine

	compressed   atomic.Int64
	uncompressed atomic.Int64
}

// Compress partitions img into tiles, compresses them concurrently and
// returns the header cards and table rows of the compressed image.
func (c *Compressor[T]) Compress(ctx context.Context, img *Image[T]) (*Result, error) {
	start := time.Now()

	if img == nil {
		return nil, fmt.Errorf("nil image: %w", errs.ErrInvalidConfig)
	}
	if err := img.validate(); err != nil {
		return nil, err
	}

	var tiles []tile.Descriptor
	var err error
	if c.cfg.strict {
		tiles, err = tile.PartitionStrict(img.Axes, c.tileShape(img))
	} else {
		tiles, err = tile.Partition(img.Axes, c.tileShape(img))
	}
	if err != nil {
		return nil, err
	}

	job := &compressJob[T]{
		cfg:       c.cfg,
		img:       img,
		set:       c.newSet(img),
		fallbacks: make([]fallback, len(tiles)),
		engine:    endian.GetFITSEngine(),
	}
	if err := job.set.Validate(); err != nil {
		return nil, err
	}

	kind := format.KindOf[T]()
	if job.set.Quantized() {
		kind = format.KindInt32
	}
	job.ctrl, err = c.cfg.registry.FindControl(c.cfg.preferred, job.set.Algorithm, kind)
	switch {
	case errors.Is(err, errs.ErrUnsupportedElement):
		c.cfg.logger.Printf("%s does not handle %s tiles, storing them in %s", job.set.Algorithm, kind, fallbackColumn(job.set))
	case err != nil:
		return nil, err
	}

	if job.set.NullMask {
		job.preserver, err = mask.NewPreserver[T](c.cfg.registry, job.set.MaskAlgorithm, img.Blank, img.HasBlank)
		if err != nil {
			return nil, err
		}
	}

	h := header.New()
	t := table.New(len(tiles))
	if err := job.set.InitializeColumns(h, t, len(tiles)); err != nil {
		return nil, err
	}
	job.data, err = addDataColumn(h, t, param.ColumnCompressed)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.workers)
	for _, d := range tiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			return job.compressTile(d)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := job.storeFallbacks(h, t); err != nil {
		return nil, err
	}

	writeGeometry(h, geometry{
		elem:      format.TypeOf(format.KindOf[T]()),
		axes:      img.Axes,
		tileShape: tiles[0].Size,
	})
	if err := job.set.SetValuesInHeader(h); err != nil {
		return nil, err
	}

	return &Result{
		Header: h,
		Table:  t,
		Stats: compress.CompressionStats{
			Algorithm:         job.set.Algorithm,
			Tiles:             len(tiles),
			UncompressedTiles: int(job.uncompressed.Load()),
			OriginalSize:      int64(len(img.Pixels) * format.TypeOf(format.KindOf[T]()).Size),
			CompressedSize:    job.compressed.Load(),
			CompressionTimeNs: time.Since(start).Nanoseconds(),
		},
	}, nil
}

// tileShape returns the configured shape, or row by row tiles.
func (c *Compressor[T]) tileShape(img *Image[T]) []int {
	if len(c.cfg.tileShape) > 0 {
		return c.cfg.tileShape
	}

	return []int{img.Axes[0]}
}

// newSet builds the parameter set for img from the configuration.
func (c *Compressor[T]) newSet(img *Image[T]) *param.Set {
	q := c.cfg.quantize
	if !isFloat[T]() {
		q.Method = format.QuantizeNone
	}

	var opt compress.Option
	if c.cfg.option != nil {
		opt = c.cfg.option.Copy()
	}

	s := param.NewSet(c.cfg.algorithm, q, opt)
	s.MaskAlgorithm = c.cfg.maskAlgorithm
	switch {
	case s.Quantized():
		s.HasBlank = true
		s.Blank = int64(q.Blank)
	case !isFloat[T]() && img.HasBlank:
		s.HasBlank = true
		s.Blank = img.Blank
	}
	s.BlankInColumn = c.cfg.blankInColumn && s.HasBlank
	s.NullMask = img.hasNulls()

	return s
}

func (j *compressJob[T]) compressTile(d tile.Descriptor) error {
	region, err := tile.NewRegion(j.img.Pixels, j.img.Axes, d)
	if err != nil {
		return err
	}
	pixels := make([]T, region.Len())
	if err := region.Extract(pixels); err != nil {
		return err
	}

	g := compress.Geometry{
		Width:  d.Size[0],
		Height: len(pixels) / d.Size[0],
		Kind:   format.KindOf[T](),
	}
	pt := param.Tile{Quant: quantize.NewState(j.set.Quantize, d.Index, 1, 0), Blank: j.set.Blank}

	var payload []byte
	if j.set.Quantized() {
		ints, release := pool.GetInt32Slice(len(pixels))
		defer release()

		res, err := quantizeTile(pixels, ints, g.Width, j.set.Quantize, d.Index)
		if err != nil {
			return fmt.Errorf("tile %d: %w", d.Index, err)
		}
		// Dithering a constant tile would lose the constant.
		if res.Degenerate && res.Dithered && len(res.Nulls) < len(pixels) {
			j.cfg.logger.Printf("tile %d is constant, storing it losslessly", d.Index)
			return j.storeFallback(d.Index, &pt, pixels)
		}
		pt.Quant = res.State

		g.Kind = format.KindInt32
		payload = make([]byte, len(ints)*4)
		if err := format.EncodePixels(j.engine, payload, ints); err != nil {
			return err
		}
	} else {
		payload = make([]byte, g.Size())
		if err := format.EncodePixels(j.engine, payload, pixels); err != nil {
			return err
		}
	}

	if j.ctrl == nil {
		return j.storeFallback(d.Index, &pt, pixels)
	}

	out, ok, err := j.ctrl.Compress(payload, g, j.set.Option)
	if err != nil {
		return fmt.Errorf("tile %d: %w", d.Index, err)
	}
	if !ok {
		j.cfg.logger.Printf("tile %d: %s declined the tile, storing it in %s", d.Index, j.set.Algorithm, fallbackColumn(j.set))
		return j.storeFallback(d.Index, &pt, pixels)
	}

	if j.preserver != nil {
		pt.Mask, err = j.preserver.PreserveNull(pixels)
		if err != nil {
			return fmt.Errorf("tile %d: %w", d.Index, err)
		}
	}
	if err := j.set.SetValuesInColumn(d.Index, &pt); err != nil {
		return err
	}
	if err := j.data.Set(d.Index, out); err != nil {
		return err
	}
	j.compressed.Add(int64(len(out) + len(pt.Mask)))

	return nil
}

// storeFallback keeps the original pixels of a tile: gzipped for quantized
// floats, raw otherwise. Nulls survive as stored values, so no mask is kept.
func (j *compressJob[T]) storeFallback(index int, pt *param.Tile, pixels []T) error {
	buf := pool.GetTileBuffer()
	defer pool.PutTileBuffer(buf)
	buf.Resize(len(pixels) * format.TypeOf(format.KindOf[T]()).Size)
	if err := format.EncodePixels(j.engine, buf.Bytes(), pixels); err != nil {
		return err
	}

	fb := fallback{column: fallbackColumn(j.set)}
	if fb.column == param.ColumnGzip {
		codec, err := compress.GetCodec(format.CompressionGzip1)
		if err != nil {
			return err
		}
		if fb.data, err = codec.Compress(buf.Bytes()); err != nil {
			return fmt.Errorf("tile %d: %w", index, err)
		}
	} else {
		fb.data = buf.Clone()
	}
	j.fallbacks[index] = fb

	pt.Quant.Scale, pt.Quant.Zero = 1, 0
	pt.Mask = nil
	if err := j.set.SetValuesInColumn(index, pt); err != nil {
		return err
	}
	j.compressed.Add(int64(len(fb.data)))
	j.uncompressed.Add(1)

	return nil
}

// storeFallbacks adds the fallback columns used by any tile.
func (j *compressJob[T]) storeFallbacks(h header.Access, t *table.Table) error {
	cols := make(map[string]*table.Column[[]byte])
	for i, fb := range j.fallbacks {
		if fb.column == "" {
			continue
		}

		col, ok := cols[fb.column]
		if !ok {
			var err error
			if col, err = addDataColumn(h, t, fb.column); err != nil {
				return err
			}
			cols[fb.column] = col
		}
		if err := col.Set(i, fb.data); err != nil {
			return err
		}
	}

	return nil
}

// fallbackColumn is the column holding tiles the algorithm cannot compress.
func fallbackColumn(s *param.Set) string {
	if s.Quantized() {
		return param.ColumnGzip
	}

	return param.ColumnUncompressed
}

func addDataColumn(h header.Access, t *table.Table, name string) (*table.Column[[]byte], error) {
	if _, err := table.DeclareColumn(h, name, table.FormByteArray); err != nil {
		return nil, err
	}

	return table.AddColumn[[]byte](t, name)
}

func isFloat[T format.Pixel]() bool {
	return format.TypeOf(format.KindOf[T]()).IsFloat()
}

func quantizeTile[T format.Pixel](src []T, dst []int32, width int, cfg quantize.Config, index int) (quantize.Result, error) {
	switch s := any(src).(type) {
	case []float32:
		return quantize.Quantize(s, dst, width, cfg, index)
	case []float64:
		return quantize.Quantize(s, dst, width, cfg, index)
	default:
		return quantize.Result{}, fmt.Errorf("quantize %s: %w", format.KindOf[T](), errs.ErrUnsupportedElement)
	}
}

func dequantizeTile[T format.Pixel](src []int32, dst []T, st quantize.State) error {
	switch d := any(dst).(type) {
	case []float32:
		return quantize.Dequantize(src, d, st)
	case []float64:
		return quantize.Dequantize(src, d, st)
	default:
		return fmt.Errorf("dequantize %s: %w", format.KindOf[T](), errs.ErrUnsupportedElement)
	}
}
