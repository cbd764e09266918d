// Package sampler selects one capture per interval bucket from a set of timelapse timestamps
package sampler

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	// ErrEmptyInput is returned when there are no timestamps to sample
	ErrEmptyInput = errors.New("no capture timestamps to sample")
	// ErrInvalidInterval is returned for intervals shorter than one bucket
	ErrInvalidInterval = errors.New("sampling interval must be at least one minute")
	// ErrInvalidTieBreak is returned when a tie-break name cannot be parsed
	ErrInvalidTieBreak = errors.New("invalid tie-break")
)

// BucketSize is the granularity captures are grouped by
const BucketSize = time.Minute

// TieBreak chooses among several captures that fall into the same bucket
type TieBreak int

const (
	// Last picks the match appearing last in the original input order (default)
	Last TieBreak = iota
	// First picks the match appearing first in the original input order
	First
)

// String returns the config name of the tie-break
func (tb TieBreak) String() string {
	switch tb {
	case First:
		return "first"
	case Last:
		return "last"
	default:
		return fmt.Sprintf("TieBreak(%d)", int(tb))
	}
}

// ParseTieBreak parses "first" or "last" (case-insensitive)
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "last", "":
		return Last, nil
	case "first":
		return First, nil
	default:
		return Last, fmt.Errorf("%w %q: must be first or last", ErrInvalidTieBreak, s)
	}
}

// Bucket returns the bucket key of t: the same instant with seconds dropped
func Bucket(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// Result holds the selected samples and walk statistics
type Result struct {
	Samples []time.Time
	// Iterations counts cursor positions visited, including empty buckets
	Iterations int
	// SkippedBuckets counts cursor positions with no capture
	SkippedBuckets int
}

// Sample returns one timestamp per visited bucket, spaced about interval apart
func Sample(timestamps []time.Time, interval time.Duration, tb TieBreak) ([]time.Time, error) {
	res, err := Run(timestamps, interval, tb)
	if err != nil {
		return nil, err
	}
	return res.Samples, nil
}

// Run walks a cursor from the earliest capture to the latest one. At each position it
// selects a capture from the cursor's bucket and moves the cursor to selection+interval;
// when the bucket is empty it moves the cursor by interval until it passes the latest capture.
// The input slice is not modified.
func Run(timestamps []time.Time, interval time.Duration, tb TieBreak) (*Result, error) {
	if len(timestamps) == 0 {
		return nil, ErrEmptyInput
	}
	if interval < BucketSize {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidInterval, interval)
	}
	if tb != First && tb != Last {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTieBreak, tb)
	}

	idx := newIndex(timestamps)
	sorted := slices.Clone(timestamps)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })
	latest := sorted[len(sorted)-1]

	res := &Result{}
	target := sorted[0]
	for {
		res.Iterations++
		if matches, ok := idx.lookup(target); ok {
			pick := matches[len(matches)-1]
			if tb == First {
				pick = matches[0]
			}
			res.Samples = append(res.Samples, pick)
			target = pick.Add(interval)
			continue
		}
		res.SkippedBuckets++
		if !target.Before(latest) {
			return res, nil
		}
		target = target.Add(interval)
	}
}

// index groups timestamps by bucket, keeping original input order within each bucket.
// Keys are Unix seconds so timestamps carrying different *time.Location values still collide.
type index map[int64][]time.Time

func newIndex(timestamps []time.Time) index {
	idx := make(index, len(timestamps))
	for _, t := range timestamps {
		k := Bucket(t).Unix()
		idx[k] = append(idx[k], t)
	}
	return idx
}

func (idx index) lookup(t time.Time) ([]time.Time, bool) {
	m, ok := idx[Bucket(t).Unix()]
	return m, ok && len(m) > 0
}
