package canim

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidConfiguration is returned for settings that cannot be used, such
// as a non-positive scale or chunk size.
var ErrInvalidConfiguration = errors.New("canim: invalid configuration")

// Limits of the supported monitor and playback settings.
const (
	MaxBlocksX = 8
	MaxBlocksY = 6
	MinFPS     = 1
	MaxFPS     = 20
)

// Scales are the text scales offered by the editor.
var Scales = []float64{0.5, 1.0, 1.25, 1.5}

// Config holds the monitor geometry and export settings.
type Config struct {
	BlocksX   int
	BlocksY   int
	Scale     float64
	FPS       int
	ChunkSize int
}

// DefaultConfig returns the settings for a 2x1 monitor at scale 1 playing at
// 10 fps with 10 frames per chunk.
func DefaultConfig() Config {
	return Config{
		BlocksX:   2,
		BlocksY:   1,
		Scale:     1.0,
		FPS:       10,
		ChunkSize: 10,
	}
}

// Normalize clamps the monitor size and fps into their supported ranges and
// raises the chunk size to at least 1.
func (c Config) Normalize() Config {
	c.BlocksX = clamp(c.BlocksX, 1, MaxBlocksX)
	c.BlocksY = clamp(c.BlocksY, 1, MaxBlocksY)
	c.FPS = clamp(c.FPS, MinFPS, MaxFPS)
	if c.ChunkSize < 1 {
		c.ChunkSize = 1
	}
	return c
}

// Validate checks that c can be used without normalization.
func (c Config) Validate() error {
	if c.BlocksX < 1 || c.BlocksY < 1 {
		return fmt.Errorf("%w: monitor must be at least 1x1 blocks, got %dx%d",
			ErrInvalidDimensions, c.BlocksX, c.BlocksY)
	}
	if c.Scale <= 0 || math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) {
		return fmt.Errorf("%w: scale %v", ErrInvalidConfiguration, c.Scale)
	}
	if c.FPS < MinFPS {
		return fmt.Errorf("%w: fps %d", ErrInvalidConfiguration, c.FPS)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size %d", ErrInvalidConfiguration, c.ChunkSize)
	}

	w, h := c.GridSize()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidDimensions, w, h)
	}
	return nil
}

// GridSize returns the terminal size in characters of a monitor of
// BlocksX by BlocksY blocks at the configured text scale. Halves round to
// even.
func (c Config) GridSize() (width, height int) {
	return GridSize(c.BlocksX, c.BlocksY, c.Scale)
}

// GridSize returns the terminal size in characters of a monitor of the given
// size in blocks and text scale.
func GridSize(blocksX, blocksY int, scale float64) (width, height int) {
	width = int(math.RoundToEven((64*float64(blocksX) - 20) / (6 * scale)))
	height = int(math.RoundToEven((64*float64(blocksY) - 20) / (9 * scale)))
	return width, height
}

// Meta returns the manifest header fields for c.
func (c Config) Meta() Meta {
	w, h := c.GridSize()
	return Meta{
		Width:  w,
		Height: h,
		FPS:    c.FPS,
		Scale:  c.Scale,
	}
}

// ParseBlocks parses a monitor size typed as two decimal numbers.
func ParseBlocks(x, y string) (blocksX, blocksY int, err error) {
	blocksX, errX := strconv.Atoi(strings.TrimSpace(x))
	blocksY, errY := strconv.Atoi(strings.TrimSpace(y))
	if errX != nil || errY != nil || blocksX < 1 || blocksY < 1 {
		return 0, 0, fmt.Errorf("%w: monitor %q x %q blocks", ErrInvalidDimensions, x, y)
	}
	return blocksX, blocksY, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
