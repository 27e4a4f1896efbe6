package canim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridSize(t *testing.T) {
	for _, tc := range []struct {
		bx, by int
		scale  float64
		w, h   int
	}{
		{2, 1, 1.0, 18, 5},
		{1, 1, 1.0, 7, 5},
		{1, 1, 0.5, 15, 10},
		{1, 1, 1.5, 5, 3},
		{8, 6, 0.5, 164, 81},
		{3, 2, 1.0, 29, 12},
	} {
		w, h := GridSize(tc.bx, tc.by, tc.scale)
		assert.Equal(t, tc.w, w, "%dx%d@%v width", tc.bx, tc.by, tc.scale)
		assert.Equal(t, tc.h, h, "%dx%d@%v height", tc.bx, tc.by, tc.scale)
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{BlocksX: 20, BlocksY: -2, Scale: 1, FPS: 60, ChunkSize: 0}.Normalize()
	assert.Equal(t, Config{BlocksX: 8, BlocksY: 1, Scale: 1, FPS: 20, ChunkSize: 1}, cfg)

	cfg = Config{BlocksX: 3, BlocksY: 2, Scale: 0.5, FPS: 0, ChunkSize: 7}.Normalize()
	assert.Equal(t, Config{BlocksX: 3, BlocksY: 2, Scale: 0.5, FPS: 1, ChunkSize: 7}, cfg)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := func(mod func(*Config)) Config {
		cfg := DefaultConfig()
		mod(&cfg)
		return cfg
	}

	assert.ErrorIs(t, bad(func(c *Config) { c.BlocksX = 0 }).Validate(), ErrInvalidDimensions)
	assert.ErrorIs(t, bad(func(c *Config) { c.Scale = 0 }).Validate(), ErrInvalidConfiguration)
	assert.ErrorIs(t, bad(func(c *Config) { c.Scale = -1 }).Validate(), ErrInvalidConfiguration)
	assert.ErrorIs(t, bad(func(c *Config) { c.FPS = 0 }).Validate(), ErrInvalidConfiguration)
	assert.ErrorIs(t, bad(func(c *Config) { c.ChunkSize = 0 }).Validate(), ErrInvalidConfiguration)
	assert.ErrorIs(t, bad(func(c *Config) { c.Scale = 100 }).Validate(), ErrInvalidDimensions)
}

func TestConfigMeta(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FPS = 15
	assert.Equal(t, Meta{Width: 18, Height: 5, FPS: 15, Scale: 1}, cfg.Meta())
}

func TestParseBlocks(t *testing.T) {
	x, y, err := ParseBlocks(" 3", "2 ")
	require.NoError(t, err)
	assert.Equal(t, 3, x)
	assert.Equal(t, 2, y)

	for _, in := range [][2]string{{"a", "1"}, {"1", ""}, {"0", "1"}, {"2", "-1"}} {
		_, _, err := ParseBlocks(in[0], in[1])
		assert.ErrorIs(t, err, ErrInvalidDimensions, "%q", in)
	}
}
