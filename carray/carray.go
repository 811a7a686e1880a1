/*
Package carray writes integer data as C array initializers.

Values are written in hexadecimal, zero-padded to the width of the element
type, eight to a line:

	static const u8 sprite[10] = {
	0x00,0x01,0x01,0x00,0x02,0x02,0x03,0x00,
	0x01,0x02,
	};
*/
package carray

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

const perLine = 8

var (
	// ErrUnknownType is returned when parsing an unsupported type name
	ErrUnknownType = errors.New("carray: unknown data type")
	// ErrValueOverflow is returned when a value does not fit the element
	// type
	ErrValueOverflow = errors.New("carray: value too large for data type")
	errNotStarted    = errors.New("carray: array not started")
)

// Type is the element type of an array.
type Type int

// Supported element types
const (
	U8 Type = iota + 1
	U16
)

// ParseType returns the Type for the given name, either "u8" or "u16".
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "u8":
		return U8, nil
	case "u16":
		return U16, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownType, s)
	}
}

// Size returns the size of the type in bytes
func (t Type) Size() int {
	switch t {
	case U8:
		return 1
	case U16:
		return 2
	default:
		return 0
	}
}

// Bits returns the width of the type in bits
func (t Type) Bits() int {
	return t.Size() << 3
}

func (t Type) String() string {
	switch t {
	case U8:
		return "u8"
	case U16:
		return "u16"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Writer writes a single array at a time to an underlying io.Writer.
type Writer struct {
	w     io.Writer
	t     Type
	count int
	open  bool
	err   error
}

// NewWriter returns a Writer emitting elements of type t to w
func NewWriter(w io.Writer, t Type) *Writer {
	return &Writer{
		w: w,
		t: t,
	}
}

func (w *Writer) print(s string) error {
	if w.err != nil {
		return w.err
	}
	_, w.err = io.WriteString(w.w, s)
	return w.err
}

// Begin writes the array declaration
func (w *Writer) Begin(name string, static bool, size int) error {
	if w.t.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownType, w.t)
	}

	var b strings.Builder
	if static {
		b.WriteString("static ")
	}
	fmt.Fprintf(&b, "const %s %s[%d] = {\n", w.t, name, size)

	w.count = 0
	w.open = true

	return w.print(b.String())
}

// Write writes a single value
func (w *Writer) Write(v uint) error {
	if !w.open {
		return errNotStarted
	}
	if v>>uint(w.t.Bits()) != 0 {
		return fmt.Errorf("%w: %#x as %s", ErrValueOverflow, v, w.t)
	}

	s := fmt.Sprintf("0x%0*x,", w.t.Size()<<1, v)
	if w.count%perLine == perLine-1 {
		s += "\n"
	}
	w.count++

	return w.print(s)
}

// WriteAll writes each value in turn
func (w *Writer) WriteAll(values []uint) error {
	for _, v := range values {
		if err := w.Write(v); err != nil {
			return err
		}
	}
	return nil
}

// End closes the array
func (w *Writer) End() error {
	if !w.open {
		return errNotStarted
	}
	w.open = false

	s := "};\n"
	if w.count%perLine != 0 {
		s = "\n" + s
	}

	return w.print(s)
}

// Count returns the number of values written to the current array
func (w *Writer) Count() int {
	return w.count
}

// Identifier turns s into a valid C identifier
func Identifier(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || r == '_'):
			b.WriteRune(r)
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
