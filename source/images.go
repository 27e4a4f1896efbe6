package source

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// Decoders for image sequences.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

// Images reads a sequence of still images, one frame per file.
type Images struct {
	Paths []string
}

// Dir returns the images in dir in natural name order, so frame_2.png comes
// before frame_10.png.
func Dir(dir string) (*Images, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("canim source: no images in %s", dir)
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return naturalLess(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})

	return &Images{Paths: paths}, nil
}

// Estimate returns the number of images.
func (s *Images) Estimate() int {
	return len(s.Paths)
}

// Frames decodes the images in order.
func (s *Images) Frames(ctx context.Context) (<-chan image.Image, <-chan error, error) {
	out := make(chan image.Image)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		for _, path := range s.Paths {
			img, err := decodeFile(path)
			if err != nil {
				errc <- err
				return
			}

			select {
			case out <- img:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errc, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("canim source: %s: %w", path, err)
	}
	return img, nil
}

// naturalLess compares names treating runs of digits as numbers.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		switch {
		case da && db:
			na, ra := splitDigits(a)
			nb, rb := splitDigits(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			a, b = ra, rb
		case a[0] != b[0]:
			return a[0] < b[0]
		default:
			a, b = a[1:], b[1:]
		}
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func splitDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
