package canim

import "math"

// Nearest returns the palette colour closest to (r, g, b) by Euclidean
// distance in RGB space. Inputs may lie outside [0, 255]. When several
// colours are equally close the one with the lowest index wins.
func Nearest(r, g, b float64) Color {
	best := Color(0)
	bestDist := math.Inf(1)

	for i := range Palette {
		e := &Palette[i]
		dr := r - float64(e.R)
		dg := g - float64(e.G)
		db := b - float64(e.B)

		// Conversions keep each product rounded, so no FMA is emitted.
		dist := math.Sqrt(float64(dr*dr) + float64(dg*dg) + float64(db*db))
		if dist < bestDist {
			bestDist = dist
			best = Color(i)
		}
	}

	return best
}

// Quantize maps every pixel of buf to its nearest palette colour without any
// error diffusion.
func Quantize(buf *Buffer) *Frame {
	f := &Frame{
		Width:  buf.Width,
		Height: buf.Height,
		Cells:  make([]Color, buf.Width*buf.Height),
	}

	for i := range f.Cells {
		p := buf.Pix[i*3 : i*3+3 : i*3+3]
		f.Cells[i] = Nearest(p[0], p[1], p[2])
	}

	return f
}
