package capture

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
)

// Capture is a single image file found in the input directory
type Capture struct {
	Name string    `json:"name"`
	Time time.Time `json:"time"`
	Size int64     `json:"size"`
}

// Scanner lists an input directory and parses capture filenames
type Scanner struct {
	fs     afero.Fs
	codec  Codec
	logger *slog.Logger
}

// NewScanner creates a scanner reading from fs
func NewScanner(fs afero.Fs, codec Codec, logger *slog.Logger) *Scanner {
	return &Scanner{
		fs:     fs,
		codec:  codec,
		logger: logger,
	}
}

// Scan returns every capture in dir whose name carries the codec extension, in directory
// listing order. Files with other extensions are ignored; a matching name that fails to
// parse aborts the scan.
func (s *Scanner) Scan(dir string) ([]Capture, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	captures := make([]Capture, 0, len(entries))
	ignored := 0
	for _, e := range entries {
		if e.IsDir() || !s.codec.Matches(e.Name()) {
			ignored++
			continue
		}
		t, err := s.codec.Parse(e.Name())
		if err != nil {
			return nil, err
		}
		captures = append(captures, Capture{Name: e.Name(), Time: t, Size: e.Size()})
	}

	s.logger.Debug("input directory scanned",
		"input_dir", dir,
		"captures", len(captures),
		"ignored", ignored,
	)

	return captures, nil
}

// Timestamps returns the capture times in the same order as captures
func Timestamps(captures []Capture) []time.Time {
	out := make([]time.Time, len(captures))
	for i, c := range captures {
		out[i] = c.Time
	}
	return out
}
