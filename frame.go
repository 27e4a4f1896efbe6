package canim

import (
	"errors"
	"fmt"
)

// ErrInvalidDimensions is returned when a grid size is not positive.
var ErrInvalidDimensions = errors.New("canim: invalid dimensions")

// Frame is a single animation frame: a width by height grid of palette
// colours stored row major.
type Frame struct {
	Width  int
	Height int
	Cells  []Color
}

// NewFrame returns a frame of the given size with every cell set to fill.
func NewFrame(width, height int, fill Color) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if !fill.Valid() {
		return nil, fmt.Errorf("canim: NewFrame: %w: %v", ErrUnknownColor, fill)
	}

	f := &Frame{
		Width:  width,
		Height: height,
		Cells:  make([]Color, width*height),
	}
	for i := range f.Cells {
		f.Cells[i] = fill
	}

	return f, nil
}

// In reports whether (x, y) is inside the frame. Coordinates are zero based.
func (f *Frame) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

// At returns the colour at (x, y).
func (f *Frame) At(x, y int) Color {
	return f.Cells[y*f.Width+x]
}

// Set sets the colour at (x, y).
func (f *Frame) Set(x, y int, c Color) {
	if !c.Valid() {
		panic("canim: Frame.Set: color out of range")
	}
	f.Cells[y*f.Width+x] = c
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	cells := make([]Color, len(f.Cells))
	copy(cells, f.Cells)
	return &Frame{
		Width:  f.Width,
		Height: f.Height,
		Cells:  cells,
	}
}

// Equal reports whether f and o have the same size and cells.
func (f *Frame) Equal(o *Frame) bool {
	if f.Width != o.Width || f.Height != o.Height {
		return false
	}
	for i := range f.Cells {
		if f.Cells[i] != o.Cells[i] {
			return false
		}
	}
	return true
}

// Hex returns the cells as hex digits, one per cell, row major.
func (f *Frame) Hex() string {
	b := make([]byte, len(f.Cells))
	for i, c := range f.Cells {
		b[i] = c.Hex()
	}
	return string(b)
}
