package compress

import (
	"bytes"
	"fmt"

	"github.com/arloliu/fitstile/endian"
	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/hcompress"
	"github.com/arloliu/fitstile/internal/pool"
	"github.com/arloliu/fitstile/internal/rice"
)

// Geometry describes the tile a Control works on. Tile payloads are the
// big-endian element bytes of the tile in row order.
type Geometry struct {
	Width  int
	Height int
	Kind   format.ElementKind
}

// Pixels returns the number of elements in the tile.
func (g Geometry) Pixels() int {
	return g.Width * g.Height
}

// Size returns the uncompressed payload size in bytes.
func (g Geometry) Size() int {
	t := format.TypeOf(g.Kind)
	if t == nil {
		return 0
	}

	return g.Pixels() * t.Size
}

func (g Geometry) validate(payload int) error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("tile %dx%d: %w", g.Width, g.Height, errs.ErrInvalidTileSize)
	}
	if format.TypeOf(g.Kind) == nil || g.Kind == format.KindBit {
		return fmt.Errorf("element kind %s: %w", g.Kind, errs.ErrUnsupportedElement)
	}
	if payload != g.Size() {
		return fmt.Errorf("%d bytes for a %dx%d %s tile: %w", payload, g.Width, g.Height, g.Kind, errs.ErrBufferSizeMismatch)
	}

	return nil
}

// Option carries algorithm specific settings of a Control. Options are values
// owned by a parameter set; Copy returns an independent instance.
type Option interface {
	Copy() Option
}

// RiceOption configures RICE_1 (ZNAME BLOCKSIZE / BYTEPIX).
type RiceOption struct {
	BlockSize int
	// BytePix narrows the coded value width. 0 means the element size.
	BytePix int
}

// DefaultRiceBlockSize is the RICE_1 block length when none is configured.
const DefaultRiceBlockSize = 32

// DefaultRiceOption returns the RICE_1 defaults.
func DefaultRiceOption() *RiceOption {
	return &RiceOption{BlockSize: DefaultRiceBlockSize}
}

func (o *RiceOption) Copy() Option {
	c := *o
	return &c
}

// HCompressOption configures HCOMPRESS_1 (ZNAME SCALE / SMOOTH).
type HCompressOption struct {
	Scale  int
	Smooth bool
}

func (o *HCompressOption) Copy() Option {
	c := *o
	return &c
}

// Control compresses and decompresses single tiles of one algorithm.
//
// Compress reports ok=false, without an error, when the control cannot store
// this particular tile (for example a BYTEPIX narrower than the tile values
// need); the caller then stores the tile uncompressed. Decompress fills dst,
// which must be exactly g.Size() bytes.
type Control interface {
	Compress(src []byte, g Geometry, opt Option) (out []byte, ok bool, err error)
	Decompress(dst, src []byte, g Geometry, opt Option) error
}

// byteControl adapts a byte Codec to tiles; the geometry only sizes the
// output.
type byteControl struct {
	codec Codec
}

// NewByteControl returns a Control compressing whole tile payloads with codec.
func NewByteControl(codec Codec) Control {
	return byteControl{codec: codec}
}

func (c byteControl) Compress(src []byte, g Geometry, _ Option) ([]byte, bool, error) {
	if err := g.validate(len(src)); err != nil {
		return nil, false, err
	}

	out, err := c.codec.Compress(src)
	if err != nil {
		return nil, false, err
	}
	if _, passThrough := c.codec.(NoOpCompressor); passThrough {
		out = bytes.Clone(out)
	}

	return out, true, nil
}

func (c byteControl) Decompress(dst, src []byte, g Geometry, _ Option) error {
	if err := g.validate(len(dst)); err != nil {
		return err
	}

	out, err := c.codec.Decompress(src)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrCorruptData, err)
	}
	if len(out) != len(dst) {
		return fmt.Errorf("tile decompressed to %d bytes, want %d: %w", len(out), len(dst), errs.ErrCorruptData)
	}
	copy(dst, out)

	return nil
}

// shuffleControl is GZIP_2: byte shuffle by element size, then gzip.
type shuffleControl struct {
	codec Codec
}

func (c shuffleControl) Compress(src []byte, g Geometry, _ Option) ([]byte, bool, error) {
	if err := g.validate(len(src)); err != nil {
		return nil, false, err
	}

	buf := pool.GetTileBuffer()
	defer pool.PutTileBuffer(buf)
	buf.Resize(len(src))

	if err := Shuffle(buf.Bytes(), src, format.TypeOf(g.Kind).Size); err != nil {
		return nil, false, err
	}
	out, err := c.codec.Compress(buf.Bytes())
	if err != nil {
		return nil, false, err
	}

	return out, true, nil
}

func (c shuffleControl) Decompress(dst, src []byte, g Geometry, _ Option) error {
	if err := g.validate(len(dst)); err != nil {
		return err
	}

	shuffled, err := c.codec.Decompress(src)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrCorruptData, err)
	}
	if len(shuffled) != len(dst) {
		return fmt.Errorf("tile decompressed to %d bytes, want %d: %w", len(shuffled), len(dst), errs.ErrCorruptData)
	}

	return Unshuffle(dst, shuffled, format.TypeOf(g.Kind).Size)
}

// riceControl is RICE_1 over integer tiles.
type riceControl struct{}

func riceSettings(g Geometry, opt Option) (blockSize, bytepix int) {
	size := format.TypeOf(g.Kind).Size
	blockSize, bytepix = DefaultRiceBlockSize, size
	if o, ok := opt.(*RiceOption); ok && o != nil {
		if o.BlockSize > 0 {
			blockSize = o.BlockSize
		}
		if o.BytePix > 0 && o.BytePix < size {
			bytepix = o.BytePix
		}
	}

	return blockSize, bytepix
}

func (riceControl) Compress(src []byte, g Geometry, opt Option) ([]byte, bool, error) {
	if err := g.validate(len(src)); err != nil {
		return nil, false, err
	}
	if !format.TypeOf(g.Kind).IsInteger() {
		return nil, false, fmt.Errorf("RICE_1 on %s: %w", g.Kind, errs.ErrUnsupportedElement)
	}

	blockSize, bytepix := riceSettings(g, opt)
	params, err := rice.ParamsFor(bytepix)
	if err != nil {
		return nil, false, err
	}

	values, release := pool.GetInt64Slice(g.Pixels())
	defer release()
	readInts(values, src, g.Kind)

	if bytepix < format.TypeOf(g.Kind).Size {
		limit := int64(1) << (8*bytepix - 1)
		for _, v := range values {
			if v < -limit || v >= limit {
				return nil, false, nil
			}
		}
	}

	out, err := rice.Encode(nil, values, blockSize, params, rice.Differential)
	if err != nil {
		return nil, false, err
	}

	return out, true, nil
}

func (riceControl) Decompress(dst, src []byte, g Geometry, opt Option) error {
	if err := g.validate(len(dst)); err != nil {
		return err
	}
	if !format.TypeOf(g.Kind).IsInteger() {
		return fmt.Errorf("RICE_1 on %s: %w", g.Kind, errs.ErrUnsupportedElement)
	}

	blockSize, bytepix := riceSettings(g, opt)
	params, err := rice.ParamsFor(bytepix)
	if err != nil {
		return err
	}

	values, release := pool.GetInt64Slice(g.Pixels())
	defer release()
	if err := rice.Decode(src, values, blockSize, params, rice.Differential); err != nil {
		return err
	}
	writeInts(dst, values, g.Kind)

	return nil
}

// readInts widens big-endian integer elements.
func readInts(dst []int64, src []byte, kind format.ElementKind) {
	engine := endian.GetFITSEngine()
	for i := range dst {
		switch kind {
		case format.KindUint8:
			dst[i] = int64(src[i])
		case format.KindInt16:
			dst[i] = int64(int16(engine.Uint16(src[2*i:])))
		case format.KindInt32:
			dst[i] = int64(int32(engine.Uint32(src[4*i:])))
		default:
			dst[i] = int64(engine.Uint64(src[8*i:]))
		}
	}
}

// writeInts narrows values to big-endian elements, keeping the low bits.
func writeInts(dst []byte, values []int64, kind format.ElementKind) {
	engine := endian.GetFITSEngine()
	for i, v := range values {
		switch kind {
		case format.KindUint8:
			dst[i] = uint8(v)
		case format.KindInt16:
			engine.PutUint16(dst[2*i:], uint16(v))
		case format.KindInt32:
			engine.PutUint32(dst[4*i:], uint32(v))
		default:
			engine.PutUint64(dst[8*i:], uint64(v))
		}
	}
}

// hcompressControl is HCOMPRESS_1.
type hcompressControl struct{}

func hcompressParams(g Geometry, opt Option) hcompress.Params {
	p := hcompress.Params{Width: g.Width, Height: g.Height}
	if o, ok := opt.(*HCompressOption); ok && o != nil {
		p.Scale, p.Smooth = o.Scale, o.Smooth
	}

	return p
}

func (hcompressControl) Compress(src []byte, g Geometry, opt Option) ([]byte, bool, error) {
	if err := g.validate(len(src)); err != nil {
		return nil, false, err
	}
	if !hcompress.Supports(g.Kind) {
		return nil, false, fmt.Errorf("HCOMPRESS_1 on %s: %w", g.Kind, errs.ErrUnsupportedElement)
	}

	out, err := hcompress.Encode(nil, src, g.Kind, hcompressParams(g, opt))
	if err != nil {
		return nil, false, err
	}

	return out, true, nil
}

func (hcompressControl) Decompress(dst, src []byte, g Geometry, opt Option) error {
	if err := g.validate(len(dst)); err != nil {
		return err
	}

	return hcompress.Decode(dst, src, g.Kind, hcompressParams(g, opt))
}
