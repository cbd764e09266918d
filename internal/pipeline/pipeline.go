// Package pipeline runs a sampling pass: scan the input directory, pick samples, copy them
package pipeline

//go:generate mockgen -source=pipeline.go -destination=mocks/mock_pipeline.go -package=mocks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alt-project/lapse/internal/capture"
	"github.com/alt-project/lapse/internal/copier"
	"github.com/alt-project/lapse/internal/metrics"
	"github.com/alt-project/lapse/internal/sampler"
)

// SampleCopier copies the files behind selected timestamps
type SampleCopier interface {
	Copy(ctx context.Context, samples []time.Time) (*copier.Result, error)
}

// Options configures a Runner
type Options struct {
	InputDir string
	Interval time.Duration
	TieBreak sampler.TieBreak
}

// Selection is one sampled capture
type Selection struct {
	Time     time.Time `json:"time"`
	Bucket   time.Time `json:"bucket"`
	Filename string    `json:"filename"`
}

// Plan is the outcome of scanning and sampling, before anything is copied
type Plan struct {
	RunID          string      `json:"run_id"`
	InputDir       string      `json:"input_dir"`
	Interval       string      `json:"interval"`
	TieBreak       string      `json:"tie_break"`
	Scanned        int         `json:"scanned"`
	Iterations     int         `json:"iterations"`
	SkippedBuckets int         `json:"skipped_buckets"`
	Samples        []Selection `json:"samples"`
}

// Timestamps returns the selected capture times in order
func (p *Plan) Timestamps() []time.Time {
	out := make([]time.Time, len(p.Samples))
	for i, s := range p.Samples {
		out[i] = s.Time
	}
	return out
}

// Report is the outcome of a full run
type Report struct {
	Plan     *Plan
	Copy     *copier.Result
	Duration time.Duration
}

// Runner wires the scanner, sampler and copier together
type Runner struct {
	scanner *capture.Scanner
	codec   capture.Codec
	copier  SampleCopier
	metrics *metrics.Metrics
	logger  *slog.Logger
	opts    Options
	now     func() time.Time
}

// NewRunner creates a runner. m may be nil when metrics are not collected.
func NewRunner(scanner *capture.Scanner, codec capture.Codec, cp SampleCopier, m *metrics.Metrics, logger *slog.Logger, opts Options) *Runner {
	return &Runner{
		scanner: scanner,
		codec:   codec,
		copier:  cp,
		metrics: m,
		logger:  logger,
		opts:    opts,
		now:     time.Now,
	}
}

// Plan scans the input directory and runs the sampler
func (r *Runner) Plan(ctx context.Context) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	captures, err := r.scanner.Scan(r.opts.InputDir)
	if err != nil {
		return nil, err
	}
	if len(captures) == 0 {
		return nil, fmt.Errorf("no %s captures in %s: %w", r.codec.Extension, r.opts.InputDir, sampler.ErrEmptyInput)
	}

	res, err := sampler.Run(capture.Timestamps(captures), r.opts.Interval, r.opts.TieBreak)
	if err != nil {
		return nil, fmt.Errorf("sampling captures: %w", err)
	}

	plan := &Plan{
		RunID:          uuid.NewString(),
		InputDir:       r.opts.InputDir,
		Interval:       r.opts.Interval.String(),
		TieBreak:       r.opts.TieBreak.String(),
		Scanned:        len(captures),
		Iterations:     res.Iterations,
		SkippedBuckets: res.SkippedBuckets,
		Samples:        make([]Selection, len(res.Samples)),
	}
	for i, ts := range res.Samples {
		plan.Samples[i] = Selection{
			Time:     ts,
			Bucket:   sampler.Bucket(ts),
			Filename: r.codec.Format(ts),
		}
	}

	if r.metrics != nil {
		r.metrics.RecordSampling(plan.Scanned, len(plan.Samples), plan.SkippedBuckets)
	}

	r.logger.Info("captures sampled",
		"run_id", plan.RunID,
		"input_dir", plan.InputDir,
		"scanned", plan.Scanned,
		"samples", len(plan.Samples),
		"skipped_buckets", plan.SkippedBuckets,
		"interval", plan.Interval,
		"tie_break", plan.TieBreak,
	)

	return plan, nil
}

// Run plans and copies. The report is returned even when the copy phase fails, so
// callers can show partial results; it is nil only when planning failed.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := r.now()

	plan, err := r.Plan(ctx)
	if err != nil {
		r.recordRun(start, false)
		return nil, err
	}

	report := &Report{Plan: plan}
	res, err := r.copier.Copy(ctx, plan.Timestamps())
	if res == nil {
		res = &copier.Result{}
	}
	report.Copy = res
	report.Duration = r.now().Sub(start)

	if r.metrics != nil {
		r.metrics.RecordCopy(len(res.Copied), len(res.Failed), res.Skipped, res.Bytes)
	}
	r.recordRun(start, err == nil)

	if err != nil {
		r.logger.Error("copy phase failed",
			"run_id", plan.RunID,
			"copied", len(res.Copied),
			"failed", len(res.Failed),
			"error", err,
		)
		return report, fmt.Errorf("copying samples: %w", err)
	}

	r.logger.Info("run complete",
		"run_id", plan.RunID,
		"copied", len(res.Copied),
		"bytes", res.Bytes,
		"duration", report.Duration,
	)
	return report, nil
}

func (r *Runner) recordRun(start time.Time, success bool) {
	if r.metrics == nil {
		return
	}
	now := r.now()
	r.metrics.RecordRun(now.Sub(start), success, now)
}
