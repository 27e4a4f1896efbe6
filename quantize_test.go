package canim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNearestFixedPoints(t *testing.T) {
	for i, e := range Palette {
		got := Nearest(float64(e.R), float64(e.G), float64(e.B))
		assert.Equal(t, Color(i), got, e.Name)
	}
}

func TestNearest(t *testing.T) {
	for _, tc := range []struct {
		name    string
		r, g, b float64
		want    Color
	}{
		{"pure black", 0, 0, 0, Black},
		{"pure white", 255, 255, 255, White},
		{"far out of range", -500, -500, -500, Black},
		{"above range", 1000, 1000, 1000, White},
		{"near red", 210, 70, 80, Red},
		{"near lime", 120, 210, 30, Lime},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Nearest(tc.r, tc.g, tc.b))
		})
	}
}

func TestNearestTieBreaksOnLowestIndex(t *testing.T) {
	// Midway between gray (76,76,76) and black (25,25,25) is equidistant to
	// both; gray has the lower index.
	mid := (76.0 + 25.0) / 2
	assert.Equal(t, Gray, Nearest(mid, mid, mid))
}

func TestQuantize(t *testing.T) {
	buf := NewBuffer(2, 1)
	buf.Set(0, 0, 240, 240, 240)
	buf.Set(1, 0, 25, 25, 25)

	f := Quantize(buf)
	assert.Equal(t, []Color{White, Black}, f.Cells)
}
