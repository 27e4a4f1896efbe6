package canim

import (
	"image"
)

// Preview renders f as a paletted image with each cell drawn as a cellW by
// cellH block. A ComputerCraft character cell is 6x9 pixels at scale 1.
func Preview(f *Frame, cellW, cellH int) *image.Paletted {
	if cellW < 1 {
		cellW = 1
	}
	if cellH < 1 {
		cellH = 1
	}

	img := image.NewPaletted(image.Rect(0, 0, f.Width*cellW, f.Height*cellH), ColorPalette())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := uint8(f.At(x, y))
			for dy := 0; dy < cellH; dy++ {
				row := img.Pix[(y*cellH+dy)*img.Stride:]
				for dx := 0; dx < cellW; dx++ {
					row[x*cellW+dx] = c
				}
			}
		}
	}

	return img
}
