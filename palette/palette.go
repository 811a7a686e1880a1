/*
Package palette builds fixed-size color to index mappings and matches images
against them.

A Palette is made of one or more rows. Each row maps up to 2^bpp colors to an
index in the range [0, 2^bpp). Rows are populated by scanning a reference
image in row-major order, every 2^bpp pixels starting a new row, and can then
be overridden with explicit color=index mappings which apply to every row.
Once built a Palette is read-only and may be shared between goroutines.
*/
package palette

import (
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math/bits"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrInvalidBpp is returned when the bits per pixel is not positive or
	// too large to index
	ErrInvalidBpp = errors.New("palette: invalid bits per pixel")
	// ErrInvalidMappingFormat is returned for a mapping that is not in
	// #RRGGBB=N form
	ErrInvalidMappingFormat = errors.New("palette: invalid mapping format")
	// ErrInvalidColorFormat is returned for a color that is not in
	// #RRGGBB form
	ErrInvalidColorFormat = errors.New("palette: invalid color format")
	// ErrRowNotFound is returned when no row contains every color of an
	// image
	ErrRowNotFound = errors.New("palette: no row contains all image colors")
	// ErrTooManyColors is returned when an image has more distinct colors
	// than any row holds
	ErrTooManyColors = errors.New("palette: too many colors in image")
)

// Row maps colors to indices.
type Row struct {
	capacity uint
	indices  map[uint32]uint
	colors   []Color
}

func newRow(capacity uint) *Row {
	return &Row{
		capacity: capacity,
		indices:  make(map[uint32]uint),
	}
}

// first-seen-wins
func (r *Row) insert(c Color, i uint) {
	if _, ok := r.indices[c.Key()]; ok {
		return
	}
	r.indices[c.Key()] = i
	r.colors = append(r.colors, c)
}

func (r *Row) set(c Color, i uint) {
	if _, ok := r.indices[c.Key()]; !ok {
		r.colors = append(r.colors, c)
	}
	r.indices[c.Key()] = i
}

// Index returns the index for c and whether the row contains it
func (r *Row) Index(c Color) (uint, bool) {
	i, ok := r.indices[c.Key()]
	return i, ok
}

// Contains reports whether the row has an index for c
func (r *Row) Contains(c Color) bool {
	_, ok := r.indices[c.Key()]
	return ok
}

// Covers reports whether the row has an index for every color in colors
func (r *Row) Covers(colors []Color) bool {
	for _, c := range colors {
		if !r.Contains(c) {
			return false
		}
	}
	return true
}

// Len returns the number of colors in the row
func (r *Row) Len() int {
	return len(r.colors)
}

// Capacity returns the number of indices available to the row
func (r *Row) Capacity() uint {
	return r.capacity
}

// Colors returns the colors of the row in insertion order
func (r *Row) Colors() []Color {
	return append([]Color(nil), r.colors...)
}

// Palette is an ordered list of rows.
type Palette struct {
	bpp  int
	rows []*Row
}

// Bpp returns the bits per pixel the palette was built with
func (p *Palette) Bpp() int {
	return p.bpp
}

// Capacity returns the number of indices available to each row
func (p *Palette) Capacity() uint {
	return 1 << uint(p.bpp)
}

// Len returns the number of rows
func (p *Palette) Len() int {
	return len(p.rows)
}

// Row returns the row at position i
func (p *Palette) Row(i int) *Row {
	return p.rows[i]
}

// Build returns a new Palette with rows of 2^bpp entries. If ref is not nil
// its pixels populate the rows, then each mapping in "#RRGGBB=N" form is
// applied to every row, replacing any existing index for that color.
func Build(bpp int, ref image.Image, mappings []string) (*Palette, error) {
	if bpp < 1 || bpp >= bits.UintSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBpp, bpp)
	}

	p := &Palette{bpp: bpp}
	capacity := p.Capacity()

	if ref != nil {
		b := ref.Bounds()
		w := b.Dx()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				i := uint((y-b.Min.Y)*w + (x - b.Min.X))
				row := int(i / capacity)
				if row == len(p.rows) {
					p.rows = append(p.rows, newRow(capacity))
				}
				p.rows[row].insert(FromColor(ref.At(x, y)), i%capacity)
			}
		}
	}

	if len(p.rows) == 0 {
		p.rows = append(p.rows, newRow(capacity))
	}

	for _, m := range mappings {
		c, i, err := parseMapping(m, capacity)
		if err != nil {
			return nil, err
		}
		for _, r := range p.rows {
			r.set(c, i)
		}
	}

	return p, nil
}

func parseMapping(s string, capacity uint) (Color, uint, error) {
	parts := strings.Split(s, "=")
	if len(parts) != 2 {
		return Color{}, 0, fmt.Errorf("%w: %q", ErrInvalidMappingFormat, s)
	}

	c, err := ParseColor(parts[0])
	if err != nil {
		return Color{}, 0, fmt.Errorf("%w: %q: %w", ErrInvalidMappingFormat, s, err)
	}

	i, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Color{}, 0, fmt.Errorf("%w: %q: bad index", ErrInvalidMappingFormat, s)
	}

	return c, uint(i % uint64(capacity)), nil
}

// MatchError lists the colors of an image which no row contains.
type MatchError struct {
	Missing []Color
}

func (e *MatchError) Error() string {
	s := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		s[i] = c.String()
	}
	return fmt.Sprintf("%s: missing %s", ErrRowNotFound, strings.Join(s, ", "))
}

// Unwrap allows errors.Is(err, ErrRowNotFound)
func (e *MatchError) Unwrap() error {
	return ErrRowNotFound
}

// FindRow returns the first row containing every color in colors along with
// its position.
func (p *Palette) FindRow(colors []Color) (*Row, int, error) {
	// Mappings can grow a row beyond its capacity
	var largest int
	for _, r := range p.rows {
		largest = max(largest, r.Len())
	}
	if len(colors) > largest {
		return nil, -1, fmt.Errorf("%w: %d colors, at most %d", ErrTooManyColors, len(colors), largest)
	}

	for i, r := range p.rows {
		if r.Covers(colors) {
			return r, i, nil
		}
	}

	var missing []Color
	for _, c := range colors {
		found := false
		for _, r := range p.rows {
			if r.Contains(c) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, c)
		}
	}

	return nil, -1, &MatchError{Missing: missing}
}

// Find returns the first row containing every color used by m along with
// its position.
func (p *Palette) Find(m image.Image) (*Row, int, error) {
	return p.FindRow(Colors(m))
}

// Digest returns a hash of the bits per pixel and every row's mappings.
func (p *Palette) Digest() string {
	h := sha1.New()

	var tmp [8]byte
	binary.LittleEndian.PutUint32(tmp[:4], uint32(p.bpp))
	h.Write(tmp[:4])

	for _, r := range p.rows {
		keys := make([]uint32, 0, len(r.indices))
		for k := range r.indices {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		binary.LittleEndian.PutUint32(tmp[:4], uint32(len(keys)))
		h.Write(tmp[:4])
		for _, k := range keys {
			binary.LittleEndian.PutUint32(tmp[:4], k)
			binary.LittleEndian.PutUint32(tmp[4:], uint32(r.indices[k]))
			h.Write(tmp[:])
		}
	}

	return fmt.Sprintf("%X", h.Sum(nil))
}
