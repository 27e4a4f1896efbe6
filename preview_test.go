package canim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	f := mustFrame(t, 2, 1, Black)
	f.Set(1, 0, Orange)

	img := Preview(f, 6, 9)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 9, img.Bounds().Dy())

	assert.Equal(t, uint8(Black), img.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(Black), img.ColorIndexAt(5, 8))
	assert.Equal(t, uint8(Orange), img.ColorIndexAt(6, 0))
	assert.Equal(t, uint8(Orange), img.ColorIndexAt(11, 8))

	r, g, b := Orange.RGB()
	got := img.At(7, 4)
	gr, gg, gb, _ := got.RGBA()
	assert.Equal(t, []uint32{uint32(r), uint32(g), uint32(b)}, []uint32{gr >> 8, gg >> 8, gb >> 8})

	small := Preview(f, 0, 0)
	assert.Equal(t, 2, small.Bounds().Dx())
	assert.Equal(t, 1, small.Bounds().Dy())
}
