// Package source provides frame sources for video conversion: ffmpeg decoded
// video files and directories of still images.
package source

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Metadata describes a media file.
type Metadata struct {
	Title    string
	Duration time.Duration
}

// FileTitle returns the file name of path without its extension.
func FileTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var durationPattern = regexp.MustCompile(`(?m)^\s+Duration: (\d*):(\d*):(\d*)\.(\d*),`)

// ParseDuration extracts the duration line from ffprobe's output. It returns
// false if the output has none.
func ParseDuration(out string) (time.Duration, bool) {
	matches := durationPattern.FindStringSubmatch(out)
	if len(matches) == 0 {
		return 0, false
	}

	if len(matches[4]) < 3 {
		matches[4] = matches[4] + strings.Repeat("0", 3-len(matches[4]))
	}

	var h, m, s, ms int
	_, err := fmt.Sscanf(matches[1]+" "+matches[2]+" "+matches[3]+" "+
		matches[4][:3], "%d %d %d %d", &h, &m, &s, &ms)
	if err != nil {
		return 0, false
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, true
}

// Probe runs ffprobe on path. A missing duration is not an error.
func Probe(path string) (*Metadata, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	out, err := exec.Command("ffprobe", path).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("canim source: ffprobe %s: %w", path, err)
	}

	meta := Metadata{
		Title: FileTitle(path),
	}
	if d, ok := ParseDuration(string(out)); ok {
		meta.Duration = d
	}

	return &meta, nil
}
