package tiled

import (
	"context"
	"errors"
	"fmt"
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

// Decompressor rebuilds images of element type T from their tiled form.
type Decompressor[T format.Pixel] struct {
	cfg *Config
}

// NewDecompressor creates a decompressor. Only the worker, logger,
// registry, preferred control and smoothing options apply.
func NewDecompressor[T format.Pixel](opts ...Option) (*Decompressor[T], error) {
	cfg := newConfig()
	if err := options.ApplyAndValidate(cfg, opts...); err != nil {
		return nil, err
	}

	return &Decompressor[T]{cfg: cfg}, nil
}

type decompressJob[T format.Pixel] struct {
	cfg       *Config
	img       *Image[T]
	set       *param.Set
	ctrl      compress.Control
	preserver *mask.Preserver[T]
	engine    endian.EndianEngine

	compressed   *table.Column[[]byte]
	uncompressed *table.Column[[]byte]
	gzipped      *table.Column[[]byte]
}

// Decompress reads the image described by h from the rows of t.
//
// A tile is read from whichever of COMPRESSED_DATA, GZIP_COMPRESSED_DATA
// and UNCOMPRESSED_DATA holds it. A tile with no payload fails with
// errs.ErrMissingTilePayload, or errs.ErrMaskMismatch when it still has a
// null pixel mask.
func (d *Decompressor[T]) Decompress(ctx context.Context, h header.Access, t *table.Table) (*Image[T], error) {
	img, _, err := d.decompress(ctx, h, t)
	return img, err
}

// DecompressWithStats is Decompress that also reports the work done.
func (d *Decompressor[T]) DecompressWithStats(ctx context.Context, h header.Access, t *table.Table) (*Image[T], compress.CompressionStats, error) {
	return d.decompress(ctx, h, t)
}

func (d *Decompressor[T]) decompress(ctx context.Context, h header.Access, t *table.Table) (*Image[T], compress.CompressionStats, error) {
	start := time.Now()
	var stats compress.CompressionStats

	geo, err := readGeometry(h)
	if err != nil {
		return nil, stats, err
	}
	if geo.elem.Kind != format.KindOf[T]() {
		return nil, stats, fmt.Errorf("%s %d holds %s, not %s: %w", KeyBitpix, geo.elem.Bitpix, geo.elem, format.KindOf[T](), errs.ErrUnsupportedElement)
	}

	job := &decompressJob[T]{cfg: d.cfg, engine: endian.GetFITSEngine()}
	if job.set, err = d.readSet(h); err != nil {
		return nil, stats, err
	}
	if err := job.set.BindColumns(h, t); err != nil {
		return nil, stats, err
	}
	if err := job.bindData(h, t); err != nil {
		return nil, stats, err
	}

	tiles, err := tile.Partition(geo.axes, geo.tileShape)
	if err != nil {
		return nil, stats, err
	}
	if t.Rows() < len(tiles) {
		return nil, stats, fmt.Errorf("table has %d rows for %d tiles: %w", t.Rows(), len(tiles), errs.ErrMissingTilePayload)
	}

	kind := geo.elem.Kind
	if job.set.Quantized() {
		kind = format.KindInt32
	}
	job.ctrl, err = d.cfg.registry.FindControl(d.cfg.preferred, job.set.Algorithm, kind)
	if err != nil && !errors.Is(err, errs.ErrUnsupportedElement) {
		return nil, stats, err
	}

	job.img = NewImage[T](geo.axes...)
	if !isFloat[T]() && job.set.HasBlank {
		job.img.HasBlank = true
		job.img.Blank = job.set.Blank
		if job.set.BlankInColumn {
			var first param.Tile
			if err := job.set.GetValuesFromColumn(0, &first); err != nil {
				return nil, stats, err
			}
			job.img.Blank = first.Blank
		}
		if !format.BlankInRange[T](job.img.Blank) {
			return nil, stats, fmt.Errorf("%s %d out of range for %s: %w", param.KeyBlank, job.img.Blank, geo.elem.Kind, errs.ErrInvalidHeaderValue)
		}
	}
	if job.set.NullMask {
		job.preserver, err = mask.NewPreserver[T](d.cfg.registry, job.set.MaskAlgorithm, job.img.Blank, job.img.HasBlank)
		if err != nil {
			return nil, stats, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.workers)
	for _, td := range tiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			return job.decompressTile(td)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	stats = compress.CompressionStats{
		Algorithm:           job.set.Algorithm,
		Tiles:               len(tiles),
		OriginalSize:        int64(len(job.img.Pixels) * geo.elem.Size),
		DecompressionTimeNs: time.Since(start).Nanoseconds(),
	}
	for i := range tiles {
		if len(cell(job.compressed, i)) == 0 {
			stats.UncompressedTiles++
		}
		stats.CompressedSize += int64(len(cell(job.compressed, i)) + len(cell(job.gzipped, i)) + len(cell(job.uncompressed, i)))
	}

	return job.img, stats, nil
}

// readSet loads the parameter set from the header cards.
func (d *Decompressor[T]) readSet(h header.Access) (*param.Set, error) {
	set := param.NewSet(format.CompressionNone, quantize.Config{}, nil)
	if err := set.GetValuesFromHeader(h); err != nil {
		return nil, err
	}

	if isFloat[T]() && !set.Quantized() {
		// Old writers leave ZQUANTIZ out of quantized images.
		_, scaled, err := table.FindColumnCard(h, param.ColumnScale)
		if err != nil {
			return nil, err
		}
		if scaled {
			set.Quantize.Method = format.QuantizeNoDither
			set.Quantize.Blank = quantize.NullValue
			if set.HasBlank {
				set.Quantize.Blank = int32(set.Blank)
			}
		}
	}
	if !isFloat[T]() && set.Quantized() {
		d.cfg.logger.Printf("ignoring %s %s on an integer image", param.KeyQuantize, set.Quantize.Method)
		set.Quantize.Method = format.QuantizeNone
	}

	if opt, ok := set.Option.(*compress.HCompressOption); ok && d.cfg.smooth != nil {
		o := *opt
		o.Smooth = *d.cfg.smooth
		set = set.Copy(&o)
	}

	return set, nil
}

func (j *decompressJob[T]) bindData(h header.Access, t *table.Table) error {
	var err error
	if j.compressed, err = bindDataColumn(h, t, param.ColumnCompressed); err != nil {
		return err
	}
	if j.uncompressed, err = bindDataColumn(h, t, param.ColumnUncompressed); err != nil {
		return err
	}
	if j.gzipped, err = bindDataColumn(h, t, param.ColumnGzip); err != nil {
		return err
	}
	if j.compressed == nil && j.uncompressed == nil && j.gzipped == nil {
		return fmt.Errorf("%s: %w", param.ColumnCompressed, errs.ErrColumnNotFound)
	}

	return nil
}

func (j *decompressJob[T]) decompressTile(d tile.Descriptor) error {
	var pt param.Tile
	if err := j.set.GetValuesFromColumn(d.Index, &pt); err != nil {
		return err
	}

	pixels := make([]T, d.Len())
	var err error
	switch {
	case len(cell(j.gzipped, d.Index)) > 0:
		err = j.readGzipped(pixels, cell(j.gzipped, d.Index))
	case len(cell(j.uncompressed, d.Index)) > 0:
		err = j.readRaw(pixels, cell(j.uncompressed, d.Index))
	case len(cell(j.compressed, d.Index)) > 0:
		err = j.readCompressed(pixels, cell(j.compressed, d.Index), d, &pt)
	case len(pt.Mask) > 0:
		return fmt.Errorf("tile %d has a null pixel mask but no data: %w", d.Index, errs.ErrMaskMismatch)
	default:
		return fmt.Errorf("tile %d: %w", d.Index, errs.ErrMissingTilePayload)
	}
	if err != nil {
		return fmt.Errorf("tile %d: %w", d.Index, err)
	}

	if len(pt.Mask) > 0 {
		p := j.preserver
		if p == nil || (j.img.HasBlank && j.set.BlankInColumn && pt.Blank != j.img.Blank) {
			if j.img.HasBlank && !format.BlankInRange[T](pt.Blank) {
				return fmt.Errorf("tile %d: %s %d out of range: %w", d.Index, param.KeyBlank, pt.Blank, errs.ErrInvalidHeaderValue)
			}
			p, err = mask.NewPreserver[T](j.cfg.registry, j.set.MaskAlgorithm, pt.Blank, j.img.HasBlank)
			if err != nil {
				return err
			}
		}
		if err := p.RestoreNull(pt.Mask, pixels); err != nil {
			return fmt.Errorf("tile %d: %w", d.Index, err)
		}
	}

	region, err := tile.NewRegion(j.img.Pixels, j.img.Axes, d)
	if err != nil {
		return err
	}

	return region.Store(pixels)
}

func (j *decompressJob[T]) readCompressed(pixels []T, data []byte, d tile.Descriptor, pt *param.Tile) error {
	if j.ctrl == nil {
		return fmt.Errorf("%s cannot decode %s tiles: %w", j.set.Algorithm, format.KindOf[T](), errs.ErrUnsupportedElement)
	}

	g := compress.Geometry{Width: d.Size[0], Height: len(pixels) / d.Size[0], Kind: format.KindOf[T]()}
	if !j.set.Quantized() {
		buf := make([]byte, g.Size())
		if err := j.ctrl.Decompress(buf, data, g, j.set.Option); err != nil {
			return err
		}

		return format.DecodePixels(j.engine, pixels, buf)
	}

	g.Kind = format.KindInt32
	buf := make([]byte, g.Size())
	if err := j.ctrl.Decompress(buf, data, g, j.set.Option); err != nil {
		return err
	}
	ints, release := pool.GetInt32Slice(len(pixels))
	defer release()
	if err := format.DecodePixels(j.engine, ints, buf); err != nil {
		return err
	}

	return dequantizeTile(ints, pixels, pt.Quant)
}

func (j *decompressJob[T]) readGzipped(pixels []T, data []byte) error {
	codec, err := compress.GetCodec(format.CompressionGzip1)
	if err != nil {
		return err
	}
	raw, err := codec.Decompress(data)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrCorruptData, err)
	}

	return j.readRaw(pixels, raw)
}

func (j *decompressJob[T]) readRaw(pixels []T, raw []byte) error {
	want := len(pixels) * format.TypeOf(format.KindOf[T]()).Size
	if len(raw) != want {
		return fmt.Errorf("stored tile has %d bytes, want %d: %w", len(raw), want, errs.ErrCorruptData)
	}

	return format.DecodePixels(j.engine, pixels, raw)
}

func bindDataColumn(h header.Access, t *table.Table, name string) (*table.Column[[]byte], error) {
	_, declared, err := table.FindColumnCard(h, name)
	if err != nil || !declared {
		return nil, err
	}
	col, err := table.GetColumn[[]byte](t, name)
	if err != nil {
		return nil, err
	}
	if col.Len() < t.Rows() {
		return nil, fmt.Errorf("%s has %d rows, table has %d: %w", name, col.Len(), t.Rows(), errs.ErrBufferSizeMismatch)
	}

	return col, nil
}

// cell returns the payload of row i, or nil when col is absent.
func cell(col *table.Column[[]byte], i int) []byte {
	if col == nil {
		return nil
	}
	v, err := col.Get(i)
	if err != nil {
		return nil
	}

	return v
}
