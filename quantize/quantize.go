/*
Package quantize generates reference palettes from true color images.

A generated palette is written as a single row PNG, one pixel per color, which
can be used directly as the reference palette image when converting.
*/
package quantize

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sort"
	"strings"

	"github.com/bodgit/imgarray/palette"
	mediancut "github.com/ericpauley/go-quantize/quantize"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// Method selects the quantization algorithm.
type Method int

// Supported methods
const (
	MedianCut Method = iota
	KMeans
)

var (
	// ErrUnknownMethod is returned when parsing an unsupported method
	ErrUnknownMethod = errors.New("quantize: unknown method")
	errNoColors      = errors.New("quantize: no colors requested")
	errEmpty         = errors.New("quantize: empty image")
)

// ParseMethod parses "mediancut" or "kmeans"
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "mediancut", "median-cut":
		return MedianCut, nil
	case "kmeans", "k-means":
		return KMeans, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownMethod, s)
	}
}

func (m Method) String() string {
	switch m {
	case KMeans:
		return "kmeans"
	default:
		return "mediancut"
	}
}

// Quantize returns a palette of at most n distinct colors representing m.
// If m already uses n colors or fewer they are returned unchanged, in the
// order they first appear.
func Quantize(m image.Image, n int, method Method) (color.Palette, error) {
	if n < 1 {
		return nil, errNoColors
	}
	if m.Bounds().Empty() {
		return nil, errEmpty
	}

	if colors := palette.Colors(m); len(colors) <= n {
		p := make(color.Palette, len(colors))
		for i, c := range colors {
			p[i] = c
		}
		return p, nil
	}

	var p color.Palette
	switch method {
	case KMeans:
		var err error
		if p, err = kmeansPalette(m, n); err != nil {
			return nil, err
		}
	default:
		q := mediancut.MedianCutQuantizer{}
		p = q.Quantize(make(color.Palette, 0, n), m)
	}

	return dedupe(p), nil
}

// The quantizers can return 16-bit or duplicate colors, reduce them to
// unique 24-bit entries
func dedupe(in color.Palette) color.Palette {
	seen := make(map[palette.Color]struct{})
	out := make(color.Palette, 0, len(in))
	for _, c := range in {
		pc := palette.FromColor(c)
		if _, ok := seen[pc]; ok {
			continue
		}
		seen[pc] = struct{}{}
		out = append(out, pc)
	}
	return out
}

func kmeansPalette(m image.Image, n int) (color.Palette, error) {
	b := m.Bounds()

	dataset := make(clusters.Observations, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, _ := colorful.MakeColor(palette.FromColor(m.At(x, y)))
			dataset = append(dataset, clusters.Coordinates{c.R, c.G, c.B})
		}
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, n)
	if err != nil {
		return nil, err
	}

	// Most populous cluster first
	sort.SliceStable(cc, func(i, j int) bool {
		return len(cc[i].Observations) > len(cc[j].Observations)
	})

	p := make(color.Palette, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		r, g, b := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped().RGB255()
		p = append(p, palette.Color{R: r, G: g, B: b})
	}

	return p, nil
}

// Remap draws m using only the colors in p, which must have no more than
// 256 entries.
func Remap(m image.Image, p color.Palette) *image.Paletted {
	b := m.Bounds()
	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), p)
	draw.Draw(pm, pm.Rect, m, b.Min, draw.Src)
	return pm
}

// WritePNG writes p to w as a PNG one pixel high with one pixel per color.
func WritePNG(w io.Writer, p color.Palette) error {
	if len(p) == 0 {
		return errNoColors
	}

	m := image.NewRGBA(image.Rect(0, 0, len(p), 1))
	for i, c := range p {
		m.Set(i, 0, c)
	}

	return png.Encode(w, m)
}
