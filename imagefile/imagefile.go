/*
Package imagefile loads images from disk.

GIF, JPEG and PNG are supported through the standard library, BMP, TIFF and
WebP through golang.org/x/image. Along with the decoded image the SHA-1 of
the file contents is returned so callers can recognise an unchanged file.
*/
package imagefile

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format
)

var errEmptyPath = errors.New("imagefile: empty path")

var extensions = map[string]struct{}{
	".bmp":  {},
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// IsImage reports whether file has the extension of a supported format
func IsImage(file string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(file))]
	return ok
}

// Decode decodes an image from r and returns it with the SHA-1 of the bytes
// read.
func Decode(r io.Reader) (image.Image, string, error) {
	h := sha1.New()
	m, _, err := image.Decode(io.TeeReader(r, h))
	if err != nil {
		return nil, "", err
	}

	// Trailing bytes not consumed by the decoder are part of the file
	if _, err := io.Copy(h, r); err != nil {
		return nil, "", err
	}

	return m, fmt.Sprintf("%X", h.Sum(nil)), nil
}

// Load decodes the image at path and returns it with the SHA-1 of the file.
func Load(path string) (image.Image, string, error) {
	if path == "" {
		return nil, "", errEmptyPath
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	m, sha, err := Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}

	return m, sha, nil
}
