package main

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/bodgit/imgarray"
	"github.com/bodgit/imgarray/carray"
	"github.com/bodgit/imgarray/imagefile"
	"github.com/bodgit/imgarray/quantize"
	"github.com/bodgit/imgarray/tile"
	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v2"
)

const defaultBpp = 4

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) hclog.Logger {
	level := hclog.Info
	switch {
	case c.Bool("verbose"):
		level = hclog.Debug
	case c.Bool("quiet"):
		level = hclog.Error
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "imgarray",
		Output: os.Stderr,
		Level:  level,
	})
}

func paletteFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "bpp",
			Aliases: []string{"b"},
			EnvVars: []string{"IMGARRAY_BPP"},
			Value:   defaultBpp,
			Usage:   "bits per pixel, each palette row holds 2^bpp colors",
		},
		&cli.StringFlag{
			Name:    "palette",
			Aliases: []string{"p"},
			EnvVars: []string{"IMGARRAY_PALETTE"},
			Usage:   "reference palette image",
		},
		&cli.StringSliceFlag{
			Name:    "map",
			Aliases: []string{"m"},
			Usage:   "explicit `#RRGGBB=N` mapping applied to every palette row",
		},
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Value:   carray.U8.String(),
			Usage:   "array element type, u8 or u16",
		},
		&cli.BoolFlag{
			Name:  "static",
			Usage: "declare arrays static",
		},
		&cli.StringFlag{
			Name:  "tile",
			Usage: "emit pixels in tile order, tile size as `WxH`",
		},
		&cli.BoolFlag{
			Name:  "pack",
			Usage: "pack several indices into each element",
		},
		&cli.StringFlag{
			Name:    "cache",
			EnvVars: []string{"IMGARRAY_CACHE"},
			Usage:   "path to conversion cache database",
		},
	}
}

func newConverter(c *cli.Context, logger hclog.Logger) (*imgarray.Converter, func(), error) {
	t, err := carray.ParseType(c.String("type"))
	if err != nil {
		return nil, nil, err
	}

	layout, err := tile.ParseLayout(c.String("tile"))
	if err != nil {
		return nil, nil, err
	}

	cfg := imgarray.Config{
		Bpp:      c.Int("bpp"),
		Palette:  c.String("palette"),
		Mappings: c.StringSlice("map"),
		Type:     t,
		Static:   c.Bool("static"),
		Name:     c.String("name"),
		Tile:     layout,
		Pack:     c.Bool("pack"),
	}

	var cache *imgarray.Cache
	closer := func() {}
	if file := c.String("cache"); file != "" {
		if cache, err = imgarray.NewCache(file); err != nil {
			return nil, nil, err
		}
		closer = func() {
			if err := cache.Close(); err != nil {
				logger.Error("could not close cache", "error", err)
			}
		}
	}

	conv, err := imgarray.New(cfg, cache, logger)
	if err != nil {
		closer()
		return nil, nil, err
	}

	return conv, closer, nil
}

func convert(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowSubcommandHelpAndExit(c, 1)
	}
	if c.String("name") != "" && c.NArg() > 1 {
		return cli.Exit("--name can only be used with a single file", 1)
	}

	logger := newLogger(c)

	conv, closer, err := newConverter(c, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer closer()

	var w io.Writer = os.Stdout
	if file := c.String("output"); file != "" && file != "-" {
		f, err := os.Create(file)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer f.Close()
		w = f
	}

	for _, file := range c.Args().Slice() {
		if err := conv.Convert(file, w); err != nil {
			return cli.Exit(err, 1)
		}
	}

	return nil
}

func batch(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowSubcommandHelpAndExit(c, 1)
	}

	logger := newLogger(c)

	conv, closer, err := newConverter(c, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer closer()

	if err := conv.Batch(c.Context, c.Args().First(), c.String("ext"), c.Int("jobs")); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func generatePalette(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowSubcommandHelpAndExit(c, 1)
	}

	logger := newLogger(c)

	bpp := c.Int("bpp")
	if bpp < 1 || bpp > 8 {
		return cli.Exit(fmt.Sprintf("bits per pixel must be between 1 and 8: %d", bpp), 1)
	}

	method, err := quantize.ParseMethod(c.String("method"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	m, _, err := imagefile.Load(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}

	p, err := quantize.Quantize(m, 1<<uint(bpp), method)
	if err != nil {
		return cli.Exit(err, 1)
	}
	logger.Info("generated palette", "method", method.String(), "colors", len(p))

	if err := writeFile(c.Args().Get(1), func(w io.Writer) error {
		return quantize.WritePNG(w, p)
	}); err != nil {
		return cli.Exit(err, 1)
	}

	if file := c.String("remap"); file != "" {
		if err := writeFile(file, func(w io.Writer) error {
			return png.Encode(w, quantize.Remap(m, p))
		}); err != nil {
			return cli.Exit(err, 1)
		}
		logger.Info("wrote remapped image", "file", file)
	}

	return nil
}

func writeFile(file string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}

func main() {
	app := cli.NewApp()

	app.Name = "imgarray"
	app.Usage = "Convert images to palette index arrays"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "only report errors",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert images to C arrays",
			Description: "Each image is matched against the palette rows and its indices written as an array named after the file",
			ArgsUsage:   "FILE...",
			Flags: append(paletteFlags(),
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "write to `FILE` instead of stdout",
				},
				&cli.StringFlag{
					Name:  "name",
					Usage: "array name, defaults to the file name",
				},
			),
			Action: convert,
		},
		{
			Name:        "batch",
			Usage:       "Convert every image in a directory",
			Description: "Output for each image is written alongside it",
			ArgsUsage:   "DIRECTORY",
			Flags: append(paletteFlags(),
				&cli.StringFlag{
					Name:  "ext",
					Value: imgarray.DefaultExtension,
					Usage: "extension of the output files",
				},
				&cli.IntFlag{
					Name:    "jobs",
					Aliases: []string{"j"},
					Value:   4,
					Usage:   "number of images to convert in parallel",
				},
			),
			Action: batch,
		},
		{
			Name:        "palette",
			Usage:       "Generate a reference palette image",
			Description: "Reduce an image to at most 2^bpp colors and write them as a one pixel high PNG",
			ArgsUsage:   "FILE OUTPUT",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "bpp",
					Aliases: []string{"b"},
					EnvVars: []string{"IMGARRAY_BPP"},
					Value:   defaultBpp,
					Usage:   "bits per pixel",
				},
				&cli.StringFlag{
					Name:  "method",
					Value: quantize.MedianCut.String(),
					Usage: "quantizer, mediancut or kmeans",
				},
				&cli.StringFlag{
					Name:  "remap",
					Usage: "also write the image reduced to the palette to `FILE`",
				},
			},
			Action: generatePalette,
		},
	}

	if err := app.Run(os.Args); err != nil {
		var ec cli.ExitCoder
		if !errors.As(err, &ec) {
			hclog.Default().Error("failed", "error", err)
		}
		os.Exit(1)
	}
}
