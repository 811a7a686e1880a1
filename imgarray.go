/*
Package imgarray is a library for converting images into palette index data
for use as C array initializers in firmware and other embedded graphics.

A palette of one or more rows is built once from a reference palette image
and/or explicit color mappings. Each image converted is matched against the
rows, the first row containing every color of the image supplies the index
for each pixel.
*/
package imgarray

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/imgarray/carray"
	"github.com/bodgit/imgarray/imagefile"
	"github.com/bodgit/imgarray/palette"
	"github.com/bodgit/imgarray/tile"
	"github.com/hashicorp/go-hclog"
)

// Config controls how the palette is built and how index data is emitted.
type Config struct {
	// Bpp is the number of bits per pixel, each palette row has 2^Bpp
	// entries
	Bpp int
	// Palette is the path of the reference palette image, if any
	Palette string
	// Mappings are explicit overrides in "#RRGGBB=N" form
	Mappings []string
	// Type is the array element type
	Type carray.Type
	// Static prefixes the declaration with static
	Static bool
	// Name overrides the array name derived from the file name
	Name string
	// Tile reorders pixels into tiles of the given size
	Tile tile.Layout
	// Pack stores several indices in each element
	Pack bool
}

// Validate checks the configuration is consistent
func (c *Config) Validate() error {
	if c.Bpp < 1 {
		return fmt.Errorf("%w: %d", palette.ErrInvalidBpp, c.Bpp)
	}
	if c.Type.Size() == 0 {
		return fmt.Errorf("%w: %s", carray.ErrUnknownType, c.Type)
	}
	if c.Pack {
		if !tile.CanPack(c.Bpp, c.Type) {
			return fmt.Errorf("%w: %d bpp into %s", tile.ErrPacking, c.Bpp, c.Type)
		}
	} else if c.Bpp > c.Type.Bits() {
		return fmt.Errorf("%w: %d bpp indices as %s", carray.ErrValueOverflow, c.Bpp, c.Type)
	}
	return nil
}

// Everything affecting the output of a given image
func (c *Config) fingerprint(p *palette.Palette, name string) string {
	return fmt.Sprintf("%s|%s|%t|%s|%t|%s", p.Digest(), c.Type, c.Static, c.Tile, c.Pack, name)
}

// Converter converts images using a palette built once from its Config.
type Converter struct {
	cfg     Config
	palette *palette.Palette
	cache   *Cache
	logger  hclog.Logger
}

// New validates cfg and builds the palette. cache and logger may be nil.
func New(cfg Config, cache *Cache, logger hclog.Logger) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	var ref image.Image
	if cfg.Palette != "" {
		var err error
		if ref, _, err = imagefile.Load(cfg.Palette); err != nil {
			return nil, err
		}
	}

	p, err := palette.Build(cfg.Bpp, ref, cfg.Mappings)
	if err != nil {
		return nil, err
	}
	logger.Debug("built palette", "rows", p.Len(), "bpp", p.Bpp(), "mappings", len(cfg.Mappings))

	return &Converter{
		cfg:     cfg,
		palette: p,
		cache:   cache,
		logger:  logger,
	}, nil
}

// Palette returns the palette built from the configuration
func (c *Converter) Palette() *palette.Palette {
	return c.palette
}

func (c *Converter) name(file string) string {
	if c.cfg.Name != "" {
		return c.cfg.Name
	}
	base := filepath.Base(file)
	return carray.Identifier(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Convert writes the index data for the image in file to w.
func (c *Converter) Convert(file string, w io.Writer) error {
	m, sha, err := imagefile.Load(file)
	if err != nil {
		return err
	}

	name := c.name(file)
	logger := c.logger.With("file", file)

	var options string
	if c.cache != nil {
		options = c.cfg.fingerprint(c.palette, name)
		b, err := c.cache.Get(sha, options)
		if err != nil {
			return err
		}
		if b != nil {
			logger.Debug("converted", "cached", true)
			_, err = w.Write(b)
			return err
		}
	}

	b := new(bytes.Buffer)
	if err := c.encode(b, m, name, logger); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	if c.cache != nil {
		if err := c.cache.Put(sha, options, b.Bytes()); err != nil {
			return err
		}
	}

	_, err = w.Write(b.Bytes())
	return err
}

// Encode writes the index data for m to w as an array called name.
func (c *Converter) Encode(w io.Writer, m image.Image, name string) error {
	return c.encode(w, m, name, c.logger)
}

func (c *Converter) encode(w io.Writer, m image.Image, name string, logger hclog.Logger) error {
	row, n, err := c.palette.Find(m)
	if err != nil {
		var me *palette.MatchError
		if errors.As(err, &me) {
			c.hint(logger, me.Missing)
		}
		return err
	}

	values, err := tile.Indices(m, row, c.cfg.Tile)
	if err != nil {
		return err
	}

	if c.cfg.Pack {
		if values, err = tile.Pack(values, c.cfg.Bpp, c.cfg.Type); err != nil {
			return err
		}
	}

	aw := carray.NewWriter(w, c.cfg.Type)
	if err := aw.Begin(name, c.cfg.Static, len(values)); err != nil {
		return err
	}
	if err := aw.WriteAll(values); err != nil {
		return err
	}
	if err := aw.End(); err != nil {
		return err
	}

	logger.Debug("converted", "row", n, "name", name, "values", len(values))

	return nil
}

// Log the closest color available for each one missing
func (c *Converter) hint(logger hclog.Logger, missing []palette.Color) {
	for _, m := range missing {
		if nearest, ok := c.palette.Row(0).Nearest(m); ok {
			logger.Info("color not in palette", "color", m, "nearest", nearest)
		} else {
			logger.Info("color not in palette", "color", m)
		}
	}
}
