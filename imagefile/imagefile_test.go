package imagefile

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func testImage() *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, 3, 2))
	m.Set(0, 0, color.RGBA{0xff, 0x00, 0x00, 0xff})
	m.Set(2, 1, color.RGBA{0x00, 0x00, 0xff, 0xff})
	return m
}

func TestIsImage(t *testing.T) {
	for file, want := range map[string]bool{
		"sprite.png":     true,
		"SPRITE.PNG":     true,
		"a/b.webp":       true,
		"font.BMP":       true,
		"sprite.inc":     false,
		"sprite":         false,
		"archive.png.gz": false,
	} {
		assert.Equal(t, want, IsImage(file), file)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		encode func(*bytes.Buffer, image.Image) error
	}{
		{"png", func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }},
		{"bmp", func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := new(bytes.Buffer)
			require.NoError(t, tt.encode(b, testImage()))

			file := filepath.Join(t.TempDir(), "test."+tt.name)
			require.NoError(t, os.WriteFile(file, b.Bytes(), 0o644))

			m, sha, err := Load(file)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("%X", sha1.Sum(b.Bytes())), sha)
			assert.Equal(t, image.Rect(0, 0, 3, 2), m.Bounds())

			r, g, bl, _ := m.At(2, 1).RGBA()
			assert.Equal(t, []uint32{0, 0, 0xffff}, []uint32{r, g, bl})
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, _, err := Load("")
	assert.Error(t, err)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(file, []byte("not an image"), 0o644))
	_, _, err = Load(file)
	assert.ErrorIs(t, err, image.ErrFormat)
}
