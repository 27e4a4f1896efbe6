package canim

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"
)

// ReadChunk decodes a chunk file.
func ReadChunk(r io.Reader) (Chunk, error) {
	zr, err := zlib.NewReader(base64.NewDecoder(base64.StdEncoding, r))
	if err != nil {
		return Chunk{}, fmt.Errorf("%w: %v", ErrMalformedChunk, err)
	}
	defer zr.Close()

	var c Chunk
	if err := json.NewDecoder(zr).Decode(&c); err != nil {
		return Chunk{}, fmt.Errorf("%w: %v", ErrMalformedChunk, err)
	}
	return c, nil
}

// ReadManifest decodes a manifest file.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("canim: ReadManifest: %w", err)
	}
	if m.Header.Width <= 0 || m.Header.Height <= 0 {
		return nil, fmt.Errorf("canim: ReadManifest: %w: %dx%d",
			ErrInvalidDimensions, m.Header.Width, m.Header.Height)
	}
	return &m, nil
}

// Load reads the manifest at path and every chunk it lists, from the same
// directory, and replays them into an animation.
func Load(path string) (*Animation, *Manifest, error) {
	m, err := readManifestFile(path)
	if err != nil {
		return nil, nil, err
	}
	if len(m.Chunks) == 0 {
		return nil, nil, fmt.Errorf("%w: manifest lists no chunks", ErrMalformedChunk)
	}

	dir := filepath.Dir(path)
	var frames []*Frame

	for i, name := range m.Chunks {
		c, err := readChunkFile(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, err
		}

		chunkFrames, err := Replay(c, m.Header.Width, m.Header.Height)
		if err != nil {
			return nil, nil, fmt.Errorf("canim: Load: chunk %d (%s): %w", i, name, err)
		}
		frames = append(frames, chunkFrames...)
	}

	anim, err := FromFrames(frames)
	if err != nil {
		return nil, nil, err
	}
	return anim, m, nil
}

func readManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	return ReadManifest(f)
}

func readChunkFile(path string) (Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return Chunk{}, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	c, err := ReadChunk(f)
	if err != nil {
		return Chunk{}, fmt.Errorf("canim: %s: %w", path, err)
	}
	return c, nil
}
