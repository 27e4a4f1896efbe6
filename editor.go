package canim

import (
	"context"
	"fmt"
	"image"
)

// Editor holds the state of a frame-by-frame animation editor: the animation
// being edited, the current frame, the brush colour and the settings used to
// size and export it.
type Editor struct {
	anim    *Animation
	current int
	brush   Color
	config  Config
}

// NewEditor returns an editor with a single blank frame sized from cfg.
// cfg is normalized first.
func NewEditor(cfg Config) (*Editor, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	anim, err := NewAnimation(cfg.GridSize())
	if err != nil {
		return nil, err
	}

	return &Editor{
		anim:   anim,
		brush:  Black,
		config: cfg,
	}, nil
}

// Animation returns the animation being edited.
func (e *Editor) Animation() *Animation { return e.anim }

// Config returns the current settings.
func (e *Editor) Config() Config { return e.config }

// Index returns the zero based index of the current frame.
func (e *Editor) Index() int { return e.current }

// Current returns the current frame.
func (e *Editor) Current() *Frame { return e.anim.Frame(e.current) }

// Brush returns the paint colour.
func (e *Editor) Brush() Color { return e.brush }

// SetBrush sets the paint colour.
func (e *Editor) SetBrush(c Color) {
	if !c.Valid() {
		panic("canim: Editor.SetBrush: color out of range")
	}
	e.brush = c
}

// Next moves to the following frame, stopping at the last one.
func (e *Editor) Next() {
	if e.current < e.anim.Len()-1 {
		e.current++
	}
}

// Prev moves to the preceding frame, stopping at the first one.
func (e *Editor) Prev() {
	if e.current > 0 {
		e.current--
	}
}

// Paint sets cell (x, y) of the current frame to the brush colour. Cells
// outside the grid are ignored.
func (e *Editor) Paint(x, y int) {
	f := e.Current()
	if f.In(x, y) {
		f.Set(x, y, e.brush)
	}
}

// Erase sets cell (x, y) of the current frame to black.
func (e *Editor) Erase(x, y int) {
	f := e.Current()
	if f.In(x, y) {
		f.Set(x, y, Black)
	}
}

// Pick sets the brush to the colour of cell (x, y) of the current frame and
// returns it.
func (e *Editor) Pick(x, y int) Color {
	f := e.Current()
	if f.In(x, y) {
		e.brush = f.At(x, y)
	}
	return e.brush
}

// Fill sets every cell of the current frame to the brush colour.
func (e *Editor) Fill() {
	cells := e.Current().Cells
	for i := range cells {
		cells[i] = e.brush
	}
}

// InsertFrame duplicates the current frame, inserts the copy after it and
// makes the copy current.
func (e *Editor) InsertFrame() {
	e.current = e.anim.DuplicateAfter(e.current)
}

// DeleteFrame removes the current frame and moves to the one before it. It
// returns false, leaving the animation unchanged, if only one frame is left.
func (e *Editor) DeleteFrame() bool {
	next, ok := e.anim.Delete(e.current)
	e.current = next
	return ok
}

// Resize changes the monitor size and text scale. The animation is replaced
// by a single blank frame of the new grid size. Monitor sizes above the
// supported maximum are clamped. Non-positive sizes, an unusable scale or an
// empty grid return an error and leave the editor unchanged.
func (e *Editor) Resize(blocksX, blocksY int, scale float64) error {
	if blocksX < 1 || blocksY < 1 {
		return fmt.Errorf("%w: monitor %dx%d blocks", ErrInvalidDimensions, blocksX, blocksY)
	}

	cfg := e.config
	cfg.BlocksX, cfg.BlocksY, cfg.Scale = blocksX, blocksY, scale
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	anim, err := NewAnimation(cfg.GridSize())
	if err != nil {
		return err
	}

	e.anim = anim
	e.current = 0
	e.config = cfg
	return nil
}

// SetFPS sets the playback rate, clamped to the supported range.
func (e *Editor) SetFPS(fps int) {
	e.config.FPS = clamp(fps, MinFPS, MaxFPS)
}

// SetChunkSize sets the number of frames per chunk file.
func (e *Editor) SetChunkSize(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: chunk size %d", ErrInvalidConfiguration, n)
	}
	e.config.ChunkSize = n
	return nil
}

// Import replaces the current frame with img mapped onto the palette,
// resized to the grid first if needed.
func (e *Editor) Import(img image.Image, dither bool) {
	f := ConvertImage(img, e.anim.Width(), e.anim.Height(), dither)
	copy(e.Current().Cells, f.Cells)
}

// Export writes the animation into dir under the given base name.
func (e *Editor) Export(ctx context.Context, dir, base string) (*Manifest, error) {
	return Export(ctx, e.anim, e.config, dir, base)
}
