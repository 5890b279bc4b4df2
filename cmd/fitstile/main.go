package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/arloliu/fitstile"
	"github.com/arloliu/fitstile/compress"
	"github.com/arloliu/fitstile/endian"
	"github.com/arloliu/fitstile/format"
	"github.com/arloliu/fitstile/tiled"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	return logger
}

func main() {
	app := cli.NewApp()

	app.Name = "fitstile"
	app.Usage = "FITS tiled image compression utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "stat",
			Usage:       "Compress a raw image and report statistics",
			Description: "FILE holds the pixels in FITS order: big-endian, NAXIS1 varying fastest.",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "bitpix", Value: -32, Usage: "FITS BITPIX of the pixels (8, 16, 32, 64, -32, -64)"},
				&cli.IntSliceFlag{Name: "axes", Required: true, Usage: "image axes, NAXIS1 first"},
				&cli.IntSliceFlag{Name: "tile", Usage: "tile shape, defaults to one row per tile"},
				&cli.StringFlag{Name: "algorithm", Value: "RICE_1", Usage: "ZCMPTYPE of the tiles"},
				&cli.StringFlag{Name: "quantize", Value: "SUBTRACTIVE_DITHER_1", Usage: "ZQUANTIZ for float images, NONE for lossless"},
				&cli.Float64Flag{Name: "qlevel", Value: 4, Usage: "quantization level, negative for an absolute scale"},
				&cli.IntFlag{Name: "dither-seed", Value: 1, Usage: "ZDITHER0 (1..10000)"},
				&cli.IntFlag{Name: "blocksize", Usage: "RICE_1 block size"},
				&cli.IntFlag{Name: "bytepix", Usage: "RICE_1 bytes per pixel"},
				&cli.IntFlag{Name: "scale", Usage: "HCOMPRESS_1 scale"},
				&cli.BoolFlag{Name: "smooth", Usage: "HCOMPRESS_1 smoothing"},
				&cli.IntFlag{Name: "workers", Usage: "concurrent tiles, defaults to the CPU count"},
				&cli.StringFlag{Name: "byte-order", Value: "fits", Usage: "byte order of FILE: fits (big-endian) or native"},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				opts, err := tileOptions(c)
				if err != nil {
					return cli.Exit(err, 1)
				}

				var engine endian.EndianEngine
				switch c.String("byte-order") {
				case "fits":
					engine = endian.GetFITSEngine()
				case "native":
					engine = endian.NativeEngine()
				default:
					return cli.Exit(fmt.Errorf("unknown byte order %q", c.String("byte-order")), 1)
				}

				data, err := os.ReadFile(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := runStat(c.Context, c.Int("bitpix"), data, engine, c.IntSlice("axes"), opts, os.Stdout); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "unwrap",
			Usage:       "Decompress a gzip, zstd, lz4, s2, bzip2 or compress file",
			Description: "The decoder is chosen from the first two bytes of FILE.",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to this file instead of stdout"},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				data, err := os.ReadFile(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				out, err := fitstile.DecompressStream(c.Context, data, compress.WithStreamLogger(newLogger(c)))
				if err != nil {
					return cli.Exit(err, 1)
				}

				if name := c.String("output"); name != "" {
					if err := os.WriteFile(name, out, 0o644); err != nil {
						return cli.Exit(err, 1)
					}

					return nil
				}

				if _, err := os.Stdout.Write(out); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func tileOptions(c *cli.Context) ([]tiled.Option, error) {
	algorithm, ok := format.ParseCompressionType(c.String("algorithm"))
	if !ok {
		return nil, fmt.Errorf("unknown algorithm %q", c.String("algorithm"))
	}
	method, ok := format.ParseQuantizeMethod(c.String("quantize"))
	if !ok {
		return nil, fmt.Errorf("unknown quantization method %q", c.String("quantize"))
	}

	opts := []tiled.Option{
		tiled.WithAlgorithm(algorithm),
		tiled.WithQuantization(method),
		tiled.WithQuantizeLevel(c.Float64("qlevel")),
		tiled.WithDitherSeed(c.Int("dither-seed")),
		tiled.WithLogger(newLogger(c)),
	}
	if shape := c.IntSlice("tile"); len(shape) > 0 {
		opts = append(opts, tiled.WithTileShape(shape...))
	}
	if n := c.Int("workers"); n > 0 {
		opts = append(opts, tiled.WithWorkers(n))
	}

	switch algorithm { //nolint: exhaustive
	case format.CompressionRice1:
		opts = append(opts, tiled.WithRiceOptions(c.Int("blocksize"), c.Int("bytepix")))
	case format.CompressionHCompress:
		opts = append(opts, tiled.WithHCompressOptions(c.Int("scale"), c.Bool("smooth")))
	}

	return opts, nil
}

func runStat(ctx context.Context, bitpix int, data []byte, engine endian.EndianEngine, axes []int, opts []tiled.Option, w io.Writer) error {
	elem := format.TypeByBitpix(bitpix)
	if elem == nil {
		return fmt.Errorf("unsupported BITPIX %d", bitpix)
	}

	switch elem.Kind { //nolint: exhaustive
	case format.KindUint8:
		return stat[uint8](ctx, data, engine, axes, opts, w)
	case format.KindInt16:
		return stat[int16](ctx, data, engine, axes, opts, w)
	case format.KindInt32:
		return stat[int32](ctx, data, engine, axes, opts, w)
	case format.KindInt64:
		return stat[int64](ctx, data, engine, axes, opts, w)
	case format.KindFloat32:
		return stat[float32](ctx, data, engine, axes, opts, w)
	case format.KindFloat64:
		return stat[float64](ctx, data, engine, axes, opts, w)
	default:
		return fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
}

// stat compresses the raw pixels, decompresses them again and prints the
// statistics of both directions.
func stat[T format.Pixel](ctx context.Context, data []byte, engine endian.EndianEngine, axes []int, opts []tiled.Option, w io.Writer) error {
	img := tiled.NewImage[T](axes...)
	size := format.TypeOf(format.KindOf[T]()).Size
	if len(data) != len(img.Pixels)*size {
		return fmt.Errorf("file holds %d bytes, axes %v need %d", len(data), axes, len(img.Pixels)*size)
	}
	if err := format.DecodePixels(engine, img.Pixels, data); err != nil {
		return err
	}

	res, err := fitstile.Compress(ctx, img, opts...)
	if err != nil {
		return err
	}

	d, err := tiled.NewDecompressor[T](opts...)
	if err != nil {
		return err
	}
	got, dstats, err := d.DecompressWithStats(ctx, res.Header, res.Table)
	if err != nil {
		return err
	}

	var maxErr float64
	mismatched := 0
	for i, v := range img.Pixels {
		a, b := float64(v), float64(got.Pixels[i])
		switch {
		case math.IsNaN(a) && math.IsNaN(b):
		case math.IsNaN(a) || math.IsNaN(b):
			mismatched++
		default:
			maxErr = math.Max(maxErr, math.Abs(a-b))
		}
	}

	s := res.Stats
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "algorithm\t%s\n", s.Algorithm)
	fmt.Fprintf(tw, "tiles\t%d (%d stored without %s)\n", s.Tiles, s.UncompressedTiles, s.Algorithm)
	fmt.Fprintf(tw, "original size\t%d\n", s.OriginalSize)
	fmt.Fprintf(tw, "compressed size\t%d\n", s.CompressedSize)
	fmt.Fprintf(tw, "ratio\t%.4f\n", s.CompressionRatio())
	fmt.Fprintf(tw, "space savings\t%.2f%%\n", s.SpaceSavings())
	fmt.Fprintf(tw, "compress time\t%s\n", time.Duration(s.CompressionTimeNs))
	fmt.Fprintf(tw, "decompress time\t%s\n", time.Duration(dstats.DecompressionTimeNs))
	fmt.Fprintf(tw, "max abs error\t%g\n", maxErr)
	fmt.Fprintf(tw, "null mismatches\t%d\n", mismatched)

	return tw.Flush()
}
