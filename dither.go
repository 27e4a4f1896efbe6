package canim

import (
	"image"
)

// Buffer is a floating point RGB image used as the working buffer for
// dithering. Pix holds R, G, B triplets in row major order.
type Buffer struct {
	Width  int
	Height int
	Pix    []float64
}

// NewBuffer returns a zeroed buffer of the given size.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height*3),
	}
}

// BufferFromImage copies the 8-bit RGB values of img into a new buffer. Alpha
// is ignored.
func BufferFromImage(img image.Image) *Buffer {
	b := img.Bounds()
	buf := NewBuffer(b.Dx(), b.Dy())

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			buf.Pix[i] = float64(r >> 8)
			buf.Pix[i+1] = float64(g >> 8)
			buf.Pix[i+2] = float64(bl >> 8)
			i += 3
		}
	}

	return buf
}

// Set sets the RGB value at (x, y).
func (b *Buffer) Set(x, y int, r, g, bl float64) {
	i := (y*b.Width + x) * 3
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
}

// Clone returns a copy of b.
func (b *Buffer) Clone() *Buffer {
	pix := make([]float64, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{
		Width:  b.Width,
		Height: b.Height,
		Pix:    pix,
	}
}

type diffusion struct {
	dx, dy int
	weight float64
}

var floydSteinberg = [...]diffusion{
	{1, 0, 7.0 / 16.0},
	{-1, 1, 3.0 / 16.0},
	{0, 1, 5.0 / 16.0},
	{1, 1, 1.0 / 16.0},
}

// Dither quantizes src onto the palette using Floyd-Steinberg error
// diffusion. Pixels are visited in row major order and error that would land
// outside the image is dropped. src is not modified.
func Dither(src *Buffer) *Frame {
	work := src.Clone()
	w, h := work.Width, work.Height

	f := &Frame{
		Width:  w,
		Height: h,
		Cells:  make([]Color, w*h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			r, g, b := work.Pix[i], work.Pix[i+1], work.Pix[i+2]

			c := Nearest(r, g, b)
			f.Cells[y*w+x] = c

			e := &Palette[c]
			er := r - float64(e.R)
			eg := g - float64(e.G)
			eb := b - float64(e.B)

			for _, d := range floydSteinberg {
				nx, ny := x+d.dx, y+d.dy
				if nx < 0 || nx >= w || ny >= h {
					continue
				}
				j := (ny*w + nx) * 3
				work.Pix[j] += float64(er * d.weight)
				work.Pix[j+1] += float64(eg * d.weight)
				work.Pix[j+2] += float64(eb * d.weight)
			}
		}
	}

	return f
}

// DitherImage is a shorthand for Dither(BufferFromImage(img)).
func DitherImage(img image.Image) *Frame {
	return Dither(BufferFromImage(img))
}
