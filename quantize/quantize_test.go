package quantize

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/bodgit/imgarray/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripes(w, h, n int) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			m.Set(x, y, palette.Color{R: v, G: v / 2, B: uint8(y * n)})
		}
	}
	return m
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("MedianCut")
	require.NoError(t, err)
	assert.Equal(t, MedianCut, m)

	m, err = ParseMethod("kmeans")
	require.NoError(t, err)
	assert.Equal(t, KMeans, m)
	assert.Equal(t, "kmeans", m.String())

	_, err = ParseMethod("octree")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestQuantizeFewColors(t *testing.T) {
	red := palette.Color{R: 0xff}
	blue := palette.Color{B: 0xff}

	m := image.NewRGBA(image.Rect(0, 0, 2, 2))
	m.Set(0, 0, blue)
	m.Set(1, 0, red)
	m.Set(0, 1, blue)
	m.Set(1, 1, red)

	for _, method := range []Method{MedianCut, KMeans} {
		p, err := Quantize(m, 4, method)
		require.NoError(t, err)
		require.Len(t, p, 2)
		assert.Equal(t, blue, palette.FromColor(p[0]))
		assert.Equal(t, red, palette.FromColor(p[1]))
	}
}

func TestQuantize(t *testing.T) {
	m := stripes(64, 4, 16)

	for _, method := range []Method{MedianCut, KMeans} {
		t.Run(method.String(), func(t *testing.T) {
			p, err := Quantize(m, 16, method)
			require.NoError(t, err)
			assert.NotEmpty(t, p)
			assert.LessOrEqual(t, len(p), 16)

			seen := make(map[palette.Color]bool)
			for _, c := range p {
				pc := palette.FromColor(c)
				assert.False(t, seen[pc], "duplicate %s", pc)
				seen[pc] = true
			}

			pm := Remap(m, p)
			assert.Equal(t, m.Bounds(), pm.Bounds())
			for _, c := range palette.Colors(pm) {
				assert.True(t, seen[c], "unexpected %s", c)
			}
		})
	}
}

func TestQuantizeErrors(t *testing.T) {
	_, err := Quantize(stripes(4, 4, 1), 0, MedianCut)
	assert.Error(t, err)

	_, err = Quantize(image.NewRGBA(image.Rect(0, 0, 0, 0)), 4, MedianCut)
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	m := stripes(8, 1, 1)
	p, err := Quantize(m, 8, MedianCut)
	require.NoError(t, err)

	b := new(bytes.Buffer)
	require.NoError(t, WritePNG(b, p))

	out, err := png.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, len(p), 1), out.Bounds())

	// The strip is a valid reference palette, pixel i has index i
	ref, err := palette.Build(3, out, nil)
	require.NoError(t, err)
	require.Equal(t, 1, ref.Len())
	for i, c := range p {
		idx, ok := ref.Row(0).Index(palette.FromColor(c))
		assert.True(t, ok)
		assert.Equal(t, uint(i), idx)
	}

	assert.Error(t, WritePNG(b, nil))
}
