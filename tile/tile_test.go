package tile

import (
	"image"
	"testing"

	"github.com/bodgit/imgarray/carray"
	"github.com/bodgit/imgarray/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient returns a w by h image where every pixel has a distinct color and
// a palette mapping pixel i to index i
func gradient(t *testing.T, w, h int) (*image.RGBA, *palette.Row) {
	t.Helper()

	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		m.Set(i%w, i/w, palette.Color{R: uint8(i), G: 0x10, B: 0x20})
	}

	p, err := palette.Build(8, m, nil)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())

	return m, p.Row(0)
}

func TestParseLayout(t *testing.T) {
	tests := []struct {
		in   string
		want Layout
		err  bool
	}{
		{"", Layout{}, false},
		{"8x8", Layout{8, 8}, false},
		{"16X8", Layout{16, 8}, false},
		{"8", Layout{}, true},
		{"0x8", Layout{}, true},
		{"8x-1", Layout{}, true},
		{"axb", Layout{}, true},
	}

	for _, tt := range tests {
		l, err := ParseLayout(tt.in)
		if tt.err {
			assert.ErrorIs(t, err, ErrLayout, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, l)
		assert.Equal(t, tt.in != "", l.Enabled())
	}
}

func TestIndicesScan(t *testing.T) {
	m, row := gradient(t, 4, 2)

	indices, err := Indices(m, row, Layout{})
	require.NoError(t, err)
	assert.Equal(t, []uint{0, 1, 2, 3, 4, 5, 6, 7}, indices)
}

func TestIndicesTiles(t *testing.T) {
	m, row := gradient(t, 4, 4)

	indices, err := Indices(m, row, Layout{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint{
		0, 1, 4, 5,
		2, 3, 6, 7,
		8, 9, 12, 13,
		10, 11, 14, 15,
	}, indices)
}

func TestIndicesOffsetBounds(t *testing.T) {
	m, row := gradient(t, 2, 2)
	sub := m.SubImage(image.Rect(1, 0, 2, 2))

	indices, err := Indices(sub, row, Layout{})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 3}, indices)
}

func TestIndicesErrors(t *testing.T) {
	m, row := gradient(t, 4, 3)

	_, err := Indices(m, row, Layout{2, 2})
	assert.ErrorIs(t, err, ErrTileSize)

	p, err := palette.Build(1, nil, nil)
	require.NoError(t, err)
	_, err = Indices(m, p.Row(0), Layout{})
	assert.ErrorIs(t, err, palette.ErrRowNotFound)
}

func TestPack(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint
		bpp     int
		typ     carray.Type
		want    []uint
	}{
		{"4bpp u8", []uint{1, 2, 3, 4}, 4, carray.U8, []uint{0x21, 0x43}},
		{"4bpp u8 short", []uint{1, 2, 3}, 4, carray.U8, []uint{0x21, 0x03}},
		{"4bpp u16", []uint{1, 2, 3, 4, 5}, 4, carray.U16, []uint{0x4321, 0x0005}},
		{"1bpp u8", []uint{1, 0, 1, 1, 0, 0, 0, 1}, 1, carray.U8, []uint{0x8d}},
		{"8bpp u8", []uint{7, 8}, 8, carray.U8, []uint{7, 8}},
		{"2bpp u8", []uint{3, 0, 1, 2}, 2, carray.U8, []uint{0x93}},
		{"empty", nil, 4, carray.U8, []uint{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Pack(tt.indices, tt.bpp, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestPackInvalid(t *testing.T) {
	for _, bpp := range []int{3, 5, 9, 0} {
		assert.False(t, CanPack(bpp, carray.U8))
		_, err := Pack([]uint{0}, bpp, carray.U8)
		assert.ErrorIs(t, err, ErrPacking)
	}
	assert.True(t, CanPack(16, carray.U16))
}
