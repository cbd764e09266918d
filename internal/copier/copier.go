// Package copier copies selected capture files into the samples directory
package copier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/alt-project/lapse/internal/capture"
)

var (
	// ErrSourceNotFound is returned when a selected capture is missing at copy time
	ErrSourceNotFound = errors.New("source file not found")
	// ErrInvalidPolicy is returned when a failure policy name cannot be parsed
	ErrInvalidPolicy = errors.New("invalid failure policy")
)

// SourceNotFoundError reports a selected capture that is absent from the source directory
type SourceNotFoundError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSourceNotFound, e.Path)
}

// Unwrap matches both ErrSourceNotFound and the underlying filesystem error
func (e *SourceNotFoundError) Unwrap() []error {
	return []error{ErrSourceNotFound, e.Err}
}

// Policy decides what happens to the rest of the batch when one copy fails
type Policy int

const (
	// FailFast stops at the first failed copy
	FailFast Policy = iota
	// BestEffort attempts every copy and reports all failures together
	BestEffort
)

// String returns the config name of the policy
func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case BestEffort:
		return "best-effort"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "fail-fast" or "best-effort"
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail-fast", "":
		return FailFast, nil
	case "best-effort":
		return BestEffort, nil
	default:
		return FailFast, fmt.Errorf("%w %q: must be fail-fast or best-effort", ErrInvalidPolicy, s)
	}
}

// Options configures a Copier
type Options struct {
	SourceDir string
	DestDir   string
	Policy    Policy
	// Workers bounds concurrent copies; values below 1 mean sequential
	Workers int
	DryRun  bool
}

// FileResult describes the outcome for one selected capture
type FileResult struct {
	Filename   string    `json:"filename"`
	CapturedAt time.Time `json:"captured_at"`
	Size       int64     `json:"size"`
	Checksum   string    `json:"checksum,omitempty"`
	Err        error     `json:"-"`
}

// Result is the outcome of a copy batch. Files holds every attempted copy in sample
// order; Copied and Failed split it by outcome.
type Result struct {
	Files   []FileResult
	Copied  []FileResult
	Failed  []FileResult
	Skipped int
	Bytes   int64
}

// Copier copies capture files between two directories of a filesystem
type Copier struct {
	fs     afero.Fs
	codec  capture.Codec
	opts   Options
	logger *slog.Logger
}

// New creates a copier
func New(fsys afero.Fs, codec capture.Codec, opts Options, logger *slog.Logger) *Copier {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Copier{
		fs:     fsys,
		codec:  codec,
		opts:   opts,
		logger: logger,
	}
}

// Copy copies the file for every sample. With FailFast the first failure cancels the
// copies not yet started and is returned; with BestEffort all failures are joined.
// The returned Result is never nil.
func (c *Copier) Copy(ctx context.Context, samples []time.Time) (*Result, error) {
	res := &Result{}

	if !c.opts.DryRun {
		if err := c.fs.MkdirAll(c.opts.DestDir, 0o755); err != nil {
			return res, fmt.Errorf("creating output directory: %w", err)
		}
	}

	slots := make([]FileResult, len(samples))
	attempted := make([]bool, len(samples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for i, ts := range samples {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			attempted[i] = true
			fr := c.copyOne(ts)
			slots[i] = fr
			if fr.Err != nil && c.opts.Policy == FailFast {
				return fr.Err
			}
			return nil
		})
	}
	firstErr := g.Wait()

	var errs []error
	for i, fr := range slots {
		switch {
		case !attempted[i]:
			res.Skipped++
			continue
		case fr.Err != nil:
			res.Failed = append(res.Failed, fr)
			errs = append(errs, fr.Err)
		default:
			res.Copied = append(res.Copied, fr)
			res.Bytes += fr.Size
		}
		res.Files = append(res.Files, fr)
	}

	c.logger.Info("copy batch finished",
		"output_dir", c.opts.DestDir,
		"copied", len(res.Copied),
		"failed", len(res.Failed),
		"skipped", res.Skipped,
		"bytes", res.Bytes,
		"policy", c.opts.Policy.String(),
		"dry_run", c.opts.DryRun,
	)

	if c.opts.Policy == FailFast {
		if firstErr != nil {
			return res, firstErr
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return res, errors.Join(errs...)
}

func (c *Copier) copyOne(ts time.Time) FileResult {
	name := c.codec.Format(ts)
	fr := FileResult{Filename: name, CapturedAt: ts}
	src := filepath.Join(c.opts.SourceDir, name)

	if c.opts.DryRun {
		info, err := c.fs.Stat(src)
		if err != nil {
			fr.Err = sourceError(src, err)
			return fr
		}
		fr.Size = info.Size()
		c.logger.Info("[dry-run] would copy sample", "file", name)
		return fr
	}

	size, sum, err := c.copyFile(src, filepath.Join(c.opts.DestDir, name))
	if err != nil {
		fr.Err = err
		c.logger.Warn("copy failed", "file", name, "error", err)
		return fr
	}
	fr.Size = size
	fr.Checksum = sum
	c.logger.Debug("sample copied", "file", name, "size", size)
	return fr
}

func (c *Copier) copyFile(src, dst string) (int64, string, error) {
	in, err := c.fs.Open(src)
	if err != nil {
		return 0, "", sourceError(src, err)
	}
	defer in.Close()

	out, err := c.fs.Create(dst)
	if err != nil {
		return 0, "", fmt.Errorf("creating %s: %w", dst, err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), in)
	if err != nil {
		out.Close()
		_ = c.fs.Remove(dst)
		return 0, "", fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return 0, "", fmt.Errorf("closing %s: %w", dst, err)
	}

	return n, "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

func sourceError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &SourceNotFoundError{Path: path, Err: err}
	}
	return fmt.Errorf("opening %s: %w", path, err)
}
