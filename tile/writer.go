package tile

import (
	"fmt"
	"image"

	"github.com/bodgit/imgarray/carray"
	"github.com/bodgit/imgarray/palette"
)

type encoder struct {
	m   image.Image
	row *palette.Row
	out []uint
}

func (e *encoder) pixel(x, y int) error {
	c := palette.FromColor(e.m.At(x, y))
	i, ok := e.row.Index(c)
	if !ok {
		return fmt.Errorf("%w: %s at (%d, %d)", palette.ErrRowNotFound, c, x, y)
	}
	e.out = append(e.out, i)
	return nil
}

func (e *encoder) scan(b image.Rectangle) error {
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if err := e.pixel(x, y); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *encoder) tiles(b image.Rectangle, l Layout) error {
	tileX, tileY := b.Dx()/l.Width, b.Dy()/l.Height
	for ty := 0; ty < tileY; ty++ {
		for tx := 0; tx < tileX; tx++ {
			for y := 0; y < l.Height; y++ {
				for x := 0; x < l.Width; x++ {
					dx := b.Min.X + tx*l.Width + x
					dy := b.Min.Y + ty*l.Height + y

					if err := e.pixel(dx, dy); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// Indices returns the index of every pixel of m in row, ordered according
// to l.
func Indices(m image.Image, row *palette.Row, l Layout) ([]uint, error) {
	b := m.Bounds()

	e := encoder{
		m:   m,
		row: row,
		out: make([]uint, 0, b.Dx()*b.Dy()),
	}

	if !l.Enabled() {
		if err := e.scan(b); err != nil {
			return nil, err
		}
		return e.out, nil
	}

	if b.Dx()%l.Width != 0 || b.Dy()%l.Height != 0 {
		return nil, fmt.Errorf("%w: %dx%d image, %s tiles", ErrTileSize, b.Dx(), b.Dy(), l)
	}

	if err := e.tiles(b, l); err != nil {
		return nil, err
	}
	return e.out, nil
}

// CanPack reports whether indices of bpp bits fit evenly into elements of
// type t
func CanPack(bpp int, t carray.Type) bool {
	return bpp > 0 && bpp <= t.Bits() && t.Bits()%bpp == 0
}

// Pack combines consecutive indices of bpp bits into elements of type t.
// The first index is stored in the least significant bits, a short final
// element is padded with zero.
func Pack(indices []uint, bpp int, t carray.Type) ([]uint, error) {
	if !CanPack(bpp, t) {
		return nil, fmt.Errorf("%w: %d bpp into %s", ErrPacking, bpp, t)
	}

	per := t.Bits() / bpp
	mask := uint(1)<<uint(bpp) - 1

	out := make([]uint, 0, (len(indices)+per-1)/per)
	for i := 0; i < len(indices); i += per {
		var v uint
		for j := 0; j < per && i+j < len(indices); j++ {
			v |= (indices[i+j] & mask) << uint(j*bpp)
		}
		out = append(out, v)
	}

	return out, nil
}
