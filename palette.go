/*
Package canim encodes ComputerCraft terminal animations.

An animation is a sequence of frames, each a grid of background colours taken
from the fixed 16 colour ComputerCraft palette. Animations are stored as a
plain JSON manifest (.mcanim) listing one or more self-contained chunk files
(.canim), each holding a keyframe followed by per-frame deltas.
*/
package canim

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an index into the fixed palette.
type Color uint8

// The palette colours, in palette order. The ordinal of each colour is its
// palette index and decides its hex digit in the file format.
const (
	White Color = iota
	Orange
	Magenta
	LightBlue
	Yellow
	Lime
	Pink
	Gray
	LightGray
	Cyan
	Purple
	Blue
	Brown
	Green
	Red
	Black
)

// NumColors is the number of colours in the palette.
const NumColors = 16

// Entry is a single palette colour.
type Entry struct {
	Name    string
	R, G, B uint8
}

// Palette is the fixed ComputerCraft palette, indexed by Color.
var Palette = [NumColors]Entry{
	{"white", 240, 240, 240},
	{"orange", 242, 178, 51},
	{"magenta", 229, 127, 216},
	{"lightBlue", 153, 178, 242},
	{"yellow", 222, 222, 108},
	{"lime", 127, 204, 25},
	{"pink", 242, 178, 204},
	{"gray", 76, 76, 76},
	{"lightGray", 204, 204, 204},
	{"cyan", 76, 229, 229},
	{"purple", 178, 102, 229},
	{"blue", 51, 102, 178},
	{"brown", 127, 102, 76},
	{"green", 102, 127, 51},
	{"red", 216, 76, 76},
	{"black", 25, 25, 25},
}

var colorAlphabet = []byte("0123456789abcdef")

// ErrUnknownColor is returned when a hex digit or name does not belong to the
// palette.
var ErrUnknownColor = errors.New("canim: unknown color")

// Valid reports whether c is a palette index.
func (c Color) Valid() bool {
	return c < NumColors
}

// Hex returns the hex digit used for c in chunk files.
func (c Color) Hex() byte {
	return colorAlphabet[c]
}

// Name returns the palette name of c, such as "lightBlue".
func (c Color) Name() string {
	return Palette[c].Name
}

// RGB returns the palette RGB value of c.
func (c Color) RGB() (r, g, b uint8) {
	e := Palette[c]
	return e.R, e.G, e.B
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{Palette[c].R, Palette[c].G, Palette[c].B, 0xff}.RGBA()
}

// Colorful returns c as a go-colorful colour.
func (c Color) Colorful() colorful.Color {
	col, _ := colorful.MakeColor(c)
	return col
}

// String returns the palette name of c, or a numeric form for invalid values.
func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
	return c.Name()
}

// ParseHex returns the colour for a chunk file hex digit.
func ParseHex(h byte) (Color, error) {
	switch {
	case h >= '0' && h <= '9':
		return Color(h - '0'), nil
	case h >= 'a' && h <= 'f':
		return Color(h-'a') + 10, nil
	}
	return 0, fmt.Errorf("%w: hex digit %q", ErrUnknownColor, h)
}

// ParseName returns the colour with the given palette name.
func ParseName(name string) (Color, error) {
	for i, e := range Palette {
		if e.Name == name {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownColor, name)
}

// ParseColor accepts a palette name, a single hex digit or an "#rrggbb"
// colour. Arbitrary RGB colours map to the nearest palette colour.
func ParseColor(s string) (Color, error) {
	if c, err := ParseName(s); err == nil {
		return c, nil
	}
	if len(s) == 1 {
		return ParseHex(s[0])
	}

	col, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColor, s)
	}
	r, g, b := col.RGB255()
	return Nearest(float64(r), float64(g), float64(b)), nil
}

// PaletteMap returns the hex digit to name mapping written to manifests.
func PaletteMap() map[string]string {
	m := make(map[string]string, NumColors)
	for i := range Palette {
		m[string(colorAlphabet[i])] = Palette[i].Name
	}
	return m
}

// ColorPalette returns the palette as a color.Palette, suitable for
// image.Paletted where pixel index equals Color.
func ColorPalette() color.Palette {
	p := make(color.Palette, NumColors)
	for i := range Palette {
		p[i] = Color(i)
	}
	return p
}
