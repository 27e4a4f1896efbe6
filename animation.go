package canim

import "fmt"

// Animation is an ordered, non-empty sequence of frames that all share the
// same dimensions.
type Animation struct {
	width  int
	height int
	frames []*Frame
}

// NewAnimation returns an animation holding a single frame filled with black.
func NewAnimation(width, height int) (*Animation, error) {
	f, err := NewFrame(width, height, Black)
	if err != nil {
		return nil, err
	}

	return &Animation{
		width:  width,
		height: height,
		frames: []*Frame{f},
	}, nil
}

// FromFrames builds an animation from existing frames. The frames are not
// copied.
func FromFrames(frames []*Frame) (*Animation, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("canim: FromFrames: %w: no frames", ErrInvalidDimensions)
	}

	a := &Animation{
		width:  frames[0].Width,
		height: frames[0].Height,
	}
	if a.width <= 0 || a.height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, a.width, a.height)
	}

	for i, f := range frames {
		if f.Width != a.width || f.Height != a.height {
			return nil, fmt.Errorf("canim: FromFrames: %w: frame %d is %dx%d, want %dx%d",
				ErrInvalidDimensions, i, f.Width, f.Height, a.width, a.height)
		}
	}
	a.frames = frames

	return a, nil
}

// Width returns the frame width in cells.
func (a *Animation) Width() int { return a.width }

// Height returns the frame height in cells.
func (a *Animation) Height() int { return a.height }

// Len returns the number of frames.
func (a *Animation) Len() int { return len(a.frames) }

// Frame returns frame i.
func (a *Animation) Frame(i int) *Frame { return a.frames[i] }

// Frames returns the underlying frame slice.
func (a *Animation) Frames() []*Frame { return a.frames }

// Append adds f to the end of the animation. f must match the animation's
// dimensions.
func (a *Animation) Append(f *Frame) {
	a.mustFit(f)
	a.frames = append(a.frames, f)
}

// DuplicateAfter inserts a copy of frame i directly after it and returns the
// index of the copy.
func (a *Animation) DuplicateAfter(i int) int {
	dup := a.frames[i].Clone()
	a.frames = append(a.frames, nil)
	copy(a.frames[i+2:], a.frames[i+1:])
	a.frames[i+1] = dup
	return i + 1
}

// Delete removes frame i and returns the index that should become current.
// The last remaining frame cannot be deleted, in which case ok is false and
// the animation is unchanged.
func (a *Animation) Delete(i int) (next int, ok bool) {
	if len(a.frames) <= 1 {
		return i, false
	}

	copy(a.frames[i:], a.frames[i+1:])
	a.frames[len(a.frames)-1] = nil
	a.frames = a.frames[:len(a.frames)-1]

	if i > 0 {
		i--
	}
	return i, true
}

func (a *Animation) mustFit(f *Frame) {
	if f.Width != a.width || f.Height != a.height {
		panic(fmt.Sprintf("canim: frame is %dx%d, animation is %dx%d",
			f.Width, f.Height, a.width, a.height))
	}
}
