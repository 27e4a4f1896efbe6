package canim

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/sync/errgroup"
)

// File extensions of chunk and manifest files.
const (
	ChunkExt    = ".canim"
	ManifestExt = ".mcanim"
)

// IOError reports a filesystem failure during export or import.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return "canim: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// Meta is the playback information stored in a manifest header.
type Meta struct {
	Width  int
	Height int
	FPS    int
	Scale  float64
}

// Header is the manifest header.
type Header struct {
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	FPS     int               `json:"fps"`
	Scale   Scale             `json:"scale"`
	Palette map[string]string `json:"palette"`
}

// Manifest lists an animation's chunk files in playback order.
type Manifest struct {
	Header Header   `json:"header"`
	Chunks []string `json:"chunks"`
}

// Scale is a text scale that always encodes with a fractional part, so 1 is
// written as 1.0.
type Scale float64

// MarshalJSON implements json.Marshaler.
func (s Scale) MarshalJSON() ([]byte, error) {
	v := strconv.FormatFloat(float64(s), 'f', -1, 64)
	if !strings.ContainsAny(v, ".eE") {
		v += ".0"
	}
	return []byte(v), nil
}

// NewManifest returns the manifest for meta and the given chunk file names.
func NewManifest(meta Meta, chunks []string) *Manifest {
	return &Manifest{
		Header: Header{
			Width:   meta.Width,
			Height:  meta.Height,
			FPS:     meta.FPS,
			Scale:   Scale(meta.Scale),
			Palette: PaletteMap(),
		},
		Chunks: chunks,
	}
}

// Meta returns the header as a Meta.
func (m *Manifest) Meta() Meta {
	return Meta{
		Width:  m.Header.Width,
		Height: m.Header.Height,
		FPS:    m.Header.FPS,
		Scale:  float64(m.Header.Scale),
	}
}

// marshal encodes the manifest indented by two spaces.
func (m *Manifest) marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ChunkName returns the file name of chunk i.
func ChunkName(base string, i int) string {
	return base + "_" + strconv.Itoa(i) + ChunkExt
}

// ManifestName returns the file name of the manifest.
func ManifestName(base string) string {
	return base + ManifestExt
}

// MarshalChunk returns the chunk file contents for c: the JSON encoding of
// its records, zlib compressed and base64 encoded.
func MarshalChunk(c Chunk, level int) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	compressed := new(bytes.Buffer)
	zw, err := zlib.NewWriterLevel(compressed, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, base64.StdEncoding.EncodedLen(compressed.Len()))
	base64.StdEncoding.Encode(out, compressed.Bytes())
	return out, nil
}

// Exporter writes encoded chunks and their manifest to a directory.
type Exporter struct {
	// Dir is created if it does not exist.
	Dir  string
	Base string

	// Workers bounds how many chunks are compressed and written at once.
	// Zero means one per chunk.
	Workers int

	// Level is the zlib compression level.
	Level int

	// OnChunk, if set, is called after chunk i has been written. It may be
	// called from several goroutines at once.
	OnChunk func(i int, name string)
}

// NewExporter returns an exporter writing base's files into dir with the
// default compression level.
func NewExporter(dir, base string) *Exporter {
	return &Exporter{
		Dir:   dir,
		Base:  base,
		Level: zlib.DefaultCompression,
	}
}

// Export writes every chunk as <Base>_<i>.canim and then <Base>.mcanim.
// Files are first written to temporary names and only renamed into place once
// every chunk has been written, so a failed export leaves no partial chunk
// set behind. Existing files of the same names are replaced.
func (e *Exporter) Export(ctx context.Context, chunks []Chunk, meta Meta) (*Manifest, error) {
	if e.Base == "" {
		return nil, fmt.Errorf("%w: empty base name", ErrInvalidConfiguration)
	}
	if filepath.Base(e.Base) != e.Base {
		return nil, fmt.Errorf("%w: base name %q must not contain a path", ErrInvalidConfiguration, e.Base)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks", ErrInvalidConfiguration)
	}

	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: e.Dir, Err: err}
	}

	names := make([]string, len(chunks))
	temps := make([]string, len(chunks))

	cleanup := func() {
		for _, t := range temps {
			if t != "" {
				os.Remove(t)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}

	for i := range chunks {
		i := i
		names[i] = ChunkName(e.Base, i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := MarshalChunk(chunks[i], e.Level)
			if err != nil {
				return fmt.Errorf("canim: Export: chunk %d: %w", i, err)
			}

			tmp, err := writeTemp(e.Dir, names[i], data)
			temps[i] = tmp
			if err != nil {
				return err
			}

			if e.OnChunk != nil {
				e.OnChunk(i, names[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		cleanup()
		return nil, err
	}

	manifest := NewManifest(meta, names)
	data, err := manifest.marshal()
	if err != nil {
		cleanup()
		return nil, err
	}

	manifestName := ManifestName(e.Base)
	manifestTmp, err := writeTemp(e.Dir, manifestName, data)
	if err != nil {
		cleanup()
		if manifestTmp != "" {
			os.Remove(manifestTmp)
		}
		return nil, err
	}

	for i, t := range temps {
		dst := filepath.Join(e.Dir, names[i])
		if err := os.Rename(t, dst); err != nil {
			cleanup()
			os.Remove(manifestTmp)
			return nil, &IOError{Op: "rename", Path: dst, Err: err}
		}
		temps[i] = ""
	}

	dst := filepath.Join(e.Dir, manifestName)
	if err := os.Rename(manifestTmp, dst); err != nil {
		os.Remove(manifestTmp)
		return nil, &IOError{Op: "rename", Path: dst, Err: err}
	}

	return manifest, nil
}

// writeTemp writes data to a new temporary file next to name in dir and
// returns its path. The path is returned even on failure so the caller can
// remove it.
func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", &IOError{Op: "create", Path: filepath.Join(dir, name), Err: err}
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return f.Name(), &IOError{Op: "write", Path: f.Name(), Err: err}
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		return f.Name(), &IOError{Op: "chmod", Path: f.Name(), Err: err}
	}
	if err := f.Close(); err != nil {
		return f.Name(), &IOError{Op: "close", Path: f.Name(), Err: err}
	}

	return f.Name(), nil
}

// Export encodes anim with the chunk size from cfg and writes it into dir
// under the given base name.
func Export(ctx context.Context, anim *Animation, cfg Config, dir, base string) (*Manifest, error) {
	chunks, err := Encode(anim, cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	meta := cfg.Meta()
	meta.Width, meta.Height = anim.Width(), anim.Height()

	return NewExporter(dir, base).Export(ctx, chunks, meta)
}
