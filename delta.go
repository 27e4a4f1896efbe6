package canim

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RecordType distinguishes keyframes from deltas.
type RecordType string

// Frame record types as they appear in chunk files.
const (
	RecordFull  RecordType = "full"
	RecordDelta RecordType = "delta"
)

// ErrMalformedChunk is returned when chunk records cannot be replayed.
var ErrMalformedChunk = errors.New("canim: malformed chunk")

// Change is a single cell update in a delta record. X and Y are one based.
type Change struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Color Color `json:"bg"`
}

// Record is one encoded frame. A full record carries every cell in BGs, a
// delta record carries only the cells that changed since the previous frame.
// An empty delta is meaningful: the frame is still displayed.
type Record struct {
	Type    RecordType
	BGs     string
	Changes []Change
}

// Chunk is a self-contained run of encoded frames starting with a full
// record.
type Chunk struct {
	// Start is the index of the chunk's first frame in the animation.
	Start  int      `json:"-"`
	Frames []Record `json:"frames"`
}

// MarshalText encodes c as its hex digit.
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownColor, uint8(c))
	}
	return []byte{c.Hex()}, nil
}

// UnmarshalText decodes a single hex digit.
func (c *Color) UnmarshalText(text []byte) error {
	if len(text) != 1 {
		return fmt.Errorf("%w: %q", ErrUnknownColor, text)
	}
	v, err := ParseHex(text[0])
	if err != nil {
		return err
	}
	*c = v
	return nil
}

type fullJSON struct {
	Type RecordType `json:"type"`
	BGs  string     `json:"bgs"`
}

type deltaJSON struct {
	Type    RecordType `json:"type"`
	Changes []Change   `json:"changes"`
}

// MarshalJSON writes the record with "type" first and, for deltas, always
// includes the changes list even when it is empty.
func (r Record) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case RecordFull:
		return json.Marshal(fullJSON{Type: r.Type, BGs: r.BGs})
	case RecordDelta:
		changes := r.Changes
		if changes == nil {
			changes = []Change{}
		}
		return json.Marshal(deltaJSON{Type: r.Type, Changes: changes})
	}
	return nil, fmt.Errorf("canim: Record: unknown type %q", r.Type)
}

// UnmarshalJSON reads a full or delta record.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    RecordType `json:"type"`
		BGs     string     `json:"bgs"`
		Changes []Change   `json:"changes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Type {
	case RecordFull:
		*r = Record{Type: RecordFull, BGs: raw.BGs}
	case RecordDelta:
		*r = Record{Type: RecordDelta, Changes: raw.Changes}
	default:
		return fmt.Errorf("%w: unknown record type %q", ErrMalformedChunk, raw.Type)
	}
	return nil
}

// FullRecord encodes f as a keyframe.
func FullRecord(f *Frame) Record {
	return Record{Type: RecordFull, BGs: f.Hex()}
}

// DeltaRecord encodes the cells of cur that differ from prev, in row major
// order. Both frames must have the same dimensions.
func DeltaRecord(prev, cur *Frame) Record {
	if prev.Width != cur.Width || prev.Height != cur.Height {
		panic("canim: DeltaRecord: frame dimensions differ")
	}

	changes := []Change{}
	for y := 0; y < cur.Height; y++ {
		row := y * cur.Width
		for x := 0; x < cur.Width; x++ {
			if prev.Cells[row+x] != cur.Cells[row+x] {
				changes = append(changes, Change{
					X:     x + 1,
					Y:     y + 1,
					Color: cur.Cells[row+x],
				})
			}
		}
	}

	return Record{Type: RecordDelta, Changes: changes}
}

// NumChunks returns how many chunks n frames split into.
func NumChunks(n, chunkSize int) int {
	return (n + chunkSize - 1) / chunkSize
}

// Encode splits anim into chunks of at most chunkSize frames. Each chunk
// starts with a full record of its first frame, followed by one delta record
// per remaining frame, relative to the frame before it.
func Encode(anim *Animation, chunkSize int) ([]Chunk, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidConfiguration, chunkSize)
	}

	frames := anim.Frames()
	chunks := make([]Chunk, 0, NumChunks(len(frames), chunkSize))

	for start := 0; start < len(frames); start += chunkSize {
		end := start + chunkSize
		if end > len(frames) {
			end = len(frames)
		}

		chunk := Chunk{
			Start:  start,
			Frames: make([]Record, 0, end-start),
		}
		chunk.Frames = append(chunk.Frames, FullRecord(frames[start]))
		for i := start + 1; i < end; i++ {
			chunk.Frames = append(chunk.Frames, DeltaRecord(frames[i-1], frames[i]))
		}

		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// Replay decodes the records of c into frames of the given size.
func Replay(c Chunk, width, height int) ([]*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(c.Frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrMalformedChunk)
	}

	frames := make([]*Frame, 0, len(c.Frames))
	var cur *Frame

	for i, rec := range c.Frames {
		switch rec.Type {
		case RecordFull:
			if len(rec.BGs) != width*height {
				return nil, fmt.Errorf("%w: record %d: keyframe has %d cells, want %d",
					ErrMalformedChunk, i, len(rec.BGs), width*height)
			}
			cur = &Frame{Width: width, Height: height, Cells: make([]Color, width*height)}
			for j := 0; j < len(rec.BGs); j++ {
				col, err := ParseHex(rec.BGs[j])
				if err != nil {
					return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedChunk, i, err)
				}
				cur.Cells[j] = col
			}
		case RecordDelta:
			if cur == nil {
				return nil, fmt.Errorf("%w: record %d: delta before keyframe", ErrMalformedChunk, i)
			}
			cur = cur.Clone()
			for _, ch := range rec.Changes {
				if !cur.In(ch.X-1, ch.Y-1) || !ch.Color.Valid() {
					return nil, fmt.Errorf("%w: record %d: bad change %+v", ErrMalformedChunk, i, ch)
				}
				cur.Set(ch.X-1, ch.Y-1, ch.Color)
			}
		default:
			return nil, fmt.Errorf("%w: record %d: unknown type %q", ErrMalformedChunk, i, rec.Type)
		}

		frames = append(frames, cur)
	}

	return frames, nil
}
