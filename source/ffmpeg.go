package source

import (
	"bufio"
	"context"
	"errors"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"

	"golang.org/x/image/bmp"
)

// FFmpeg decodes a video file with ffmpeg, sampled at a fixed frame rate.
type FFmpeg struct {
	Path string
	FPS  int

	// Meta is filled in by Open when ffprobe is available.
	Meta *Metadata

	// Debug forwards ffmpeg's stderr to os.Stderr.
	Debug bool
}

// Open checks that path exists and probes it for its duration.
func Open(path string, fps int) (*FFmpeg, error) {
	if fps < 1 {
		return nil, errors.New("canim source: Open: fps must be at least 1")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	src := &FFmpeg{
		Path: path,
		FPS:  fps,
	}

	// Without ffprobe there is simply no progress estimate.
	if meta, err := Probe(path); err == nil {
		src.Meta = meta
	}

	return src, nil
}

// Estimate returns the number of frames expected from the probed duration.
func (f *FFmpeg) Estimate() int {
	if f.Meta == nil {
		return 0
	}
	return int(f.Meta.Duration.Seconds() * float64(f.FPS))
}

// Frames starts ffmpeg and streams its frames, decoded from a BMP image pipe.
func (f *FFmpeg) Frames(ctx context.Context) (<-chan image.Image, <-chan error, error) {
	cmd := exec.CommandContext(ctx,
		"ffmpeg", "-nostdin", "-i", f.Path, "-an",
		"-vf", "fps="+strconv.Itoa(f.FPS),
		"-f", "image2pipe", "-vcodec", "bmp", "pipe:1")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if f.Debug {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	return decodeStream(ctx, stdout, cmd.Wait)
}

// decodeStream decodes consecutive BMP images from stdout until it ends. wait
// is called once the stream is finished and reports the producer's exit status.
func decodeStream(ctx context.Context, stdout io.Reader, wait func() error) (<-chan image.Image, <-chan error, error) {
	out := make(chan image.Image)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		rd := bufio.NewReader(stdout)
		for {
			img, err := bmp.Decode(rd)
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			} else if err != nil {
				io.Copy(io.Discard, rd)
				wait()
				errc <- err
				return
			}

			select {
			case out <- img:
			case <-ctx.Done():
				io.Copy(io.Discard, rd)
				wait()
				return
			}
		}

		if err := wait(); err != nil && ctx.Err() == nil {
			errc <- err
		}
	}()

	return out, errc, nil
}
