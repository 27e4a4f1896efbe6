package canim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaletteOrder(t *testing.T) {
	names := []string{
		"white", "orange", "magenta", "lightBlue", "yellow", "lime", "pink", "gray",
		"lightGray", "cyan", "purple", "blue", "brown", "green", "red", "black",
	}
	require.Len(t, Palette, len(names))

	for i, name := range names {
		c := Color(i)
		assert.Equal(t, name, c.Name())
		assert.Equal(t, "0123456789abcdef"[i], c.Hex())

		byName, err := ParseName(name)
		require.NoError(t, err)
		assert.Equal(t, c, byName)

		byHex, err := ParseHex(c.Hex())
		require.NoError(t, err)
		assert.Equal(t, c, byHex)
	}

	assert.Equal(t, Color(15), Black)
	assert.Equal(t, Color(14), Red)
}

func TestParseUnknown(t *testing.T) {
	_, err := ParseHex('g')
	assert.ErrorIs(t, err, ErrUnknownColor)

	_, err = ParseHex('A')
	assert.ErrorIs(t, err, ErrUnknownColor)

	_, err = ParseName("Black")
	assert.ErrorIs(t, err, ErrUnknownColor)
}

func TestPaletteMap(t *testing.T) {
	m := PaletteMap()
	assert.Len(t, m, NumColors)
	assert.Equal(t, "white", m["0"])
	assert.Equal(t, "lightBlue", m["3"])
	assert.Equal(t, "black", m["f"])
}

func TestColorConversions(t *testing.T) {
	r, g, b := LightBlue.RGB()
	assert.Equal(t, []uint8{153, 178, 242}, []uint8{r, g, b})

	assert.Equal(t, "#4ce5e5", Cyan.Colorful().Hex())
	assert.Equal(t, "Color(16)", Color(16).String())

	p := ColorPalette()
	require.Len(t, p, NumColors)
	assert.Equal(t, 14, p.Index(Red))
}

func TestParseColor(t *testing.T) {
	for in, want := range map[string]Color{
		"red":       Red,
		"lightGray": LightGray,
		"e":         Red,
		"0":         White,
		"#d84c4c":   Red,
		"#fafafa":   White,
		"#000000":   Black,
		"#4ce5e0":   Cyan,
	} {
		got, err := ParseColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "g", "bogus", "#12", "#zzzzzz"} {
		_, err := ParseColor(in)
		assert.ErrorIs(t, err, ErrUnknownColor, in)
	}
}
