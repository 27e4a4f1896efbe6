package main

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	canim "github.com/NeuGoga/cc-tweaked-media-player"
	"github.com/NeuGoga/cc-tweaked-media-player/server"
	"github.com/NeuGoga/cc-tweaked-media-player/source"
	"github.com/urfave/cli/v2"
)

const defaultBase = "animation"

func configFlags() []cli.Flag {
	def := canim.DefaultConfig()
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "blocks-x",
			Value: def.BlocksX,
			Usage: "monitor width in blocks",
		},
		&cli.IntFlag{
			Name:  "blocks-y",
			Value: def.BlocksY,
			Usage: "monitor height in blocks",
		},
		&cli.Float64Flag{
			Name:  "scale",
			Value: def.Scale,
			Usage: "monitor text scale",
		},
		&cli.IntFlag{
			Name:  "fps",
			Value: def.FPS,
			Usage: "playback frame rate",
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Value: def.ChunkSize,
			Usage: "frames per chunk file",
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			EnvVars: []string{"CANIM_OUTPUT"},
			Value:   defaultBase,
			Usage:   "output directory",
		},
		&cli.StringFlag{
			Name:  "base",
			Value: defaultBase,
			Usage: "base name of the manifest and chunk files",
		},
	}
}

func convertFlags() []cli.Flag {
	flags := append(configFlags(), outputFlags()...)
	return append(flags,
		&cli.IntFlag{
			Name:  "workers",
			Usage: "frames dithered concurrently (0 = number of CPUs)",
		},
		&cli.BoolFlag{
			Name:  "no-dither",
			Usage: "map pixels to the nearest colour without error diffusion",
		},
	)
}

func readConfig(c *cli.Context) canim.Config {
	cfg := canim.Config{
		BlocksX:   c.Int("blocks-x"),
		BlocksY:   c.Int("blocks-y"),
		Scale:     c.Float64("scale"),
		FPS:       c.Int("fps"),
		ChunkSize: c.Int("chunk-size"),
	}
	return cfg.Normalize()
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func convert(c *cli.Context, src canim.FrameSource) error {
	cfg := readConfig(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	progress := canim.NewProgress(16)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range progress.C {
			if ev.Kind == canim.EventStatus {
				log.Println(ev.Status)
			}
		}
	}()

	manifest, err := canim.NewConverter(newLogger(c)).Convert(ctx, src, canim.ConvertOptions{
		Config:   cfg,
		Dir:      c.String("output"),
		Base:     c.String("base"),
		Workers:  c.Int("workers"),
		NoDither: c.Bool("no-dither"),
		Progress: progress,
	})
	progress.Close()
	<-printed

	if err != nil {
		return cli.Exit(err, 1)
	}

	log.Printf("Saved %d chunks to %q.", len(manifest.Chunks), c.String("output"))
	return nil
}

func main() {
	log.SetFlags(0)

	app := cli.NewApp()

	app.Name = "canim"
	app.Usage = "ComputerCraft animation encoder"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "convert",
			Usage:     "Convert a video into a chunked animation",
			ArgsUsage: "VIDEO",
			Flags: append(convertFlags(), &cli.BoolFlag{
				Name:  "debug",
				Usage: "show ffmpeg output",
			}),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}

				src, err := source.Open(c.Args().First(), readConfig(c).FPS)
				if err != nil {
					return cli.Exit(err, 1)
				}
				src.Debug = c.Bool("debug")

				return convert(c, src)
			},
		},
		{
			Name:      "import",
			Usage:     "Convert a directory of images, one per frame",
			ArgsUsage: "DIRECTORY",
			Flags:     convertFlags(),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}

				src, err := source.Dir(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				return convert(c, src)
			},
		},
		{
			Name:  "blank",
			Usage: "Export a single blank frame sized for a monitor",
			Flags: append(append(configFlags(), outputFlags()...), &cli.StringFlag{
				Name:  "fill",
				Value: canim.Black.Name(),
				Usage: "background colour: palette name, hex digit or #rrggbb",
			}),
			Action: func(c *cli.Context) error {
				fill, err := canim.ParseColor(c.String("fill"))
				if err != nil {
					return cli.Exit(err, 1)
				}

				ed, err := canim.NewEditor(readConfig(c))
				if err != nil {
					return cli.Exit(err, 1)
				}
				ed.SetBrush(fill)
				ed.Fill()

				if _, err := ed.Export(c.Context, c.String("output"), c.String("base")); err != nil {
					return cli.Exit(err, 1)
				}

				w, h := ed.Config().GridSize()
				log.Printf("Exported a blank %dx%d animation to %q.", w, h, c.String("output"))
				return nil
			},
		},
		{
			Name:      "inspect",
			Usage:     "Describe an exported animation",
			ArgsUsage: "MANIFEST",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}

				anim, m, err := canim.Load(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Printf("size:   %dx%d\n", m.Header.Width, m.Header.Height)
				fmt.Printf("fps:    %d\n", m.Header.FPS)
				fmt.Printf("scale:  %v\n", float64(m.Header.Scale))
				fmt.Printf("frames: %d\n", anim.Len())
				fmt.Printf("chunks: %d\n", len(m.Chunks))
				for _, name := range m.Chunks {
					fmt.Println("  " + name)
				}
				return nil
			},
		},
		{
			Name:      "preview",
			Usage:     "Render one frame of an exported animation as PNG",
			ArgsUsage: "MANIFEST",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "frame",
					Usage: "zero based frame index",
				},
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"p"},
					Value:   "preview.png",
					Usage:   "PNG output path",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}

				anim, _, err := canim.Load(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				i := c.Int("frame")
				if i < 0 || i >= anim.Len() {
					return cli.Exit(fmt.Sprintf("frame %d out of range, animation has %d frames", i, anim.Len()), 1)
				}

				out, err := os.Create(c.String("out"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer out.Close()

				if err := png.Encode(out, canim.Preview(anim.Frame(i), 6, 9)); err != nil {
					return cli.Exit(err, 1)
				}

				log.Printf("Preview of frame %d written to %q.", i, c.String("out"))
				return nil
			},
		},
		{
			Name:  "palette",
			Usage: "List the palette colours",
			Action: func(c *cli.Context) error {
				for i, e := range canim.Palette {
					col := canim.Color(i)
					fmt.Printf("%2d  %c  %-10s %s\n", i, col.Hex(), e.Name, col.Colorful().Hex())
				}
				return nil
			},
		},
		{
			Name:  "serve",
			Usage: "Serve the conversion API with websocket progress",
			Flags: append(convertFlags(), &cli.StringFlag{
				Name:    "listen",
				EnvVars: []string{"CANIM_LISTEN"},
				Value:   ":9999",
				Usage:   "listen address",
			}),
			Action: func(c *cli.Context) error {
				logger := newLogger(c)
				mgr := server.NewManager(canim.ConvertOptions{
					Config:   readConfig(c),
					Dir:      c.String("output"),
					Base:     filepath.Base(c.String("base")),
					Workers:  c.Int("workers"),
					NoDither: c.Bool("no-dither"),
				}, nil, logger)

				log.Println("canim server: listening on", c.String("listen"))
				return server.New(mgr).Start(c.String("listen"))
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
