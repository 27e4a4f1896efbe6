package canim

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/disintegration/gift"
	"golang.org/x/sync/errgroup"
)

// FrameSource supplies the RGB frames of a video, already sampled at the
// target frame rate.
type FrameSource interface {
	// Frames streams frames in playback order. Both channels are closed
	// once the source is exhausted or ctx is done; at most one error is
	// sent.
	Frames(ctx context.Context) (<-chan image.Image, <-chan error, error)

	// Estimate returns the expected number of frames, or 0 if unknown.
	Estimate() int
}

// ConvertOptions controls a video conversion.
type ConvertOptions struct {
	Config Config

	// Dir and Base name the output, see Exporter.
	Dir  string
	Base string

	// Workers is the number of frames dithered concurrently. Zero means
	// runtime.NumCPU().
	Workers int

	// NoDither maps each pixel to its nearest colour without error
	// diffusion.
	NoDither bool

	// Progress, if set, receives status and percentage events. It is not
	// closed by Convert.
	Progress *Progress
}

func (o *ConvertOptions) validate() error {
	if o.Dir == "" {
		return errors.New("canim: Convert: output directory must be specified")
	}
	if o.Base == "" {
		return errors.New("canim: Convert: base name must be specified")
	}
	if filepath.Base(o.Base) != o.Base {
		return fmt.Errorf("%w: base name %q must not contain a path", ErrInvalidConfiguration, o.Base)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidConfiguration, o.Workers)
	}
	if o.Workers == 0 {
		o.Workers = runtime.NumCPU()
	}
	return o.Config.Validate()
}

// Converter turns videos into chunked animations.
type Converter struct {
	logger *log.Logger
}

// NewConverter returns a converter logging to logger. A nil logger discards
// output.
func NewConverter(logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Converter{logger: logger}
}

type frameJob struct {
	img    image.Image
	output chan<- *Frame
}

// Convert reads every frame from src, resizes it to the configured character
// grid, quantizes it onto the palette and exports the result. Frames are
// dithered concurrently but kept in source order. Cancelling ctx stops the
// conversion and returns ctx.Err().
func (c *Converter) Convert(ctx context.Context, src FrameSource, opts ConvertOptions) (*Manifest, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	cfg := opts.Config
	width, height := cfg.GridSize()
	progress := opts.Progress

	progress.Status(ctx, "Target size: %dx%d @ %dfps", width, height, cfg.FPS)
	c.logger.Printf("canim convert: target %dx%d @ %dfps, %d workers", width, height, cfg.FPS, opts.Workers)

	frames, err := c.collect(ctx, src, width, height, opts)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, errors.New("canim: Convert: source produced no frames")
	}

	anim, err := FromFrames(frames)
	if err != nil {
		return nil, err
	}

	progress.Status(ctx, "Exporting to %s format...", ChunkExt)
	c.logger.Printf("canim convert: encoding %d frames in chunks of %d", anim.Len(), cfg.ChunkSize)

	chunks, err := Encode(anim, cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	var (
		writtenMutex sync.Mutex
		written      int
	)

	exp := NewExporter(opts.Dir, opts.Base)
	exp.Workers = opts.Workers
	exp.OnChunk = func(i int, name string) {
		writtenMutex.Lock()
		defer writtenMutex.Unlock()

		written++
		progress.Status(ctx, "Exported %d of %d chunks", written, len(chunks))
		c.logger.Println("canim convert: wrote", name)
	}

	manifest, err := exp.Export(ctx, chunks, cfg.Meta())
	if err != nil {
		return nil, err
	}

	progress.Percent(ctx, 100)
	progress.Status(ctx, "Export complete! Created %s and %d chunks.", ManifestName(opts.Base), len(chunks))

	return manifest, nil
}

func (c *Converter) collect(ctx context.Context, src FrameSource, width, height int,
	opts ConvertOptions) ([]*Frame, error) {
	g, gctx := errgroup.WithContext(ctx)

	images, srcErrc, err := src.Frames(gctx)
	if err != nil {
		return nil, err
	}

	inbox := make(chan frameJob, opts.Workers*2)
	pending := make(chan chan *Frame, opts.Workers*2)

	g.Go(func() error {
		defer close(inbox)
		defer close(pending)

		for img := range images {
			output := make(chan *Frame, 1)

			select {
			case pending <- output:
			case <-gctx.Done():
				return gctx.Err()
			}

			select {
			case inbox <- frameJob{img: img, output: output}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		if err := <-srcErrc; err != nil {
			return fmt.Errorf("canim: Convert: frame source: %w", err)
		}
		return nil
	})

	for i := 0; i < opts.Workers; i++ {
		g.Go(func() error {
			for job := range inbox {
				job.output <- ConvertImage(job.img, width, height, !opts.NoDither)
			}
			return nil
		})
	}

	var frames []*Frame
	estimate := src.Estimate()

	g.Go(func() error {
		for output := range pending {
			select {
			case frame := <-output:
				frames = append(frames, frame)
			case <-gctx.Done():
				return gctx.Err()
			}

			opts.Progress.Status(gctx, "Processing frame %d...", len(frames))
			if estimate > 0 {
				pct := float64(len(frames)) / float64(estimate) * 100
				if pct > 99 {
					pct = 99
				}
				opts.Progress.Percent(gctx, pct)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Printf("canim convert: quantized %d frames", len(frames))
	return frames, nil
}

// ConvertImage resizes img to width by height cells with Lanczos resampling,
// if it is not that size already, and maps it onto the palette, with
// Floyd-Steinberg dithering when dither is true.
func ConvertImage(img image.Image, width, height int, dither bool) *Frame {
	if img.Bounds().Dx() != width || img.Bounds().Dy() != height {
		g := gift.New(gift.Resize(width, height, gift.LanczosResampling))
		dst := image.NewRGBA(g.Bounds(img.Bounds()))
		g.Draw(dst, img)
		img = dst
	}

	buf := BufferFromImage(img)
	if dither {
		return Dither(buf)
	}
	return Quantize(buf)
}
