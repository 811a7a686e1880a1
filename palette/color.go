package palette

import (
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Color is a 24-bit RGB color. It is comparable and can be used as a map
// key.
type Color struct {
	R, G, B uint8
}

// FromColor converts any color.Color to a Color using its non-premultiplied
// channels. Alpha is discarded.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{n.R, n.G, n.B}
}

// Key packs the color into a single integer
func (c Color) Key() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// RGBA implements the color.Color interface, the color is always opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{c.R, c.G, c.B, 0xff}.RGBA()
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor parses a color in RRGGBB form with an optional leading '#'.
func ParseColor(text string) (Color, error) {
	s := strings.TrimPrefix(text, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, text)
	}

	var b [3]byte
	if _, err := hex.Decode(b[:], []byte(s)); err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, text)
	}

	return Color{b[0], b[1], b[2]}, nil
}

// Colors returns the distinct colors of m in the order they are first
// seen when scanning row-major.
func Colors(m image.Image) []Color {
	b := m.Bounds()
	seen := make(map[Color]struct{})
	var colors []Color
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := FromColor(m.At(x, y))
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				colors = append(colors, c)
			}
		}
	}
	return colors
}
