/*
Package tile turns an image into a stream of palette indices.

Pixels are visited either in plain row-major order or, given a tile layout,
tile by tile: tiles left to right then top to bottom, and the pixels of each
tile row-major. This is the order expected by hardware that stores graphics
as 8 by 8 character blocks. Indices can then be packed several to an array
element, the first pixel occupying the least significant bits.
*/
package tile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrTileSize is returned when an image is not a whole number of
	// tiles
	ErrTileSize = errors.New("tile: image is not a multiple of the tile size")
	// ErrPacking is returned when indices cannot be packed evenly into
	// an element
	ErrPacking = errors.New("tile: bits per pixel does not divide element size")
	// ErrLayout is returned when parsing an invalid layout
	ErrLayout = errors.New("tile: invalid layout")
)

// Layout is the size of a tile in pixels. The zero value disables tile
// ordering.
type Layout struct {
	Width, Height int
}

// ParseLayout parses a layout in WxH form, an empty string returns the zero
// Layout.
func ParseLayout(s string) (Layout, error) {
	if s == "" {
		return Layout{}, nil
	}

	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return Layout{}, fmt.Errorf("%w: %q", ErrLayout, s)
	}

	w, err := strconv.Atoi(parts[0])
	if err != nil || w < 1 {
		return Layout{}, fmt.Errorf("%w: %q", ErrLayout, s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h < 1 {
		return Layout{}, fmt.Errorf("%w: %q", ErrLayout, s)
	}

	return Layout{w, h}, nil
}

// Enabled reports whether pixels are reordered into tiles
func (l Layout) Enabled() bool {
	return l.Width > 0 && l.Height > 0
}

func (l Layout) String() string {
	if !l.Enabled() {
		return ""
	}
	return fmt.Sprintf("%dx%d", l.Width, l.Height)
}
