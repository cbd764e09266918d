// Package metrics provides Prometheus metrics for sampling runs.
//
// lapse runs as a batch job, so metrics are collected in a private registry and written
// once per run in the node_exporter textfile format instead of being scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lapse"

// Metrics holds the collectors of a single run
type Metrics struct {
	registry *prometheus.Registry

	// CapturesScanned counts parsed captures in the input directory.
	CapturesScanned prometheus.Gauge
	// SamplesSelected counts captures chosen by the sampler.
	SamplesSelected prometheus.Gauge
	// BucketsSkipped counts cursor positions without a capture.
	BucketsSkipped prometheus.Gauge
	// FilesTotal counts copy outcomes by status (copied, failed, skipped).
	FilesTotal *prometheus.CounterVec
	// BytesCopied counts bytes written to the samples directory.
	BytesCopied prometheus.Counter
	// RunDuration measures the whole run.
	RunDuration prometheus.Gauge
	// LastSuccess is the Unix time of the last successful run.
	LastSuccess prometheus.Gauge
}

// New creates a metrics set backed by its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CapturesScanned: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "captures_scanned",
			Help:      "Number of captures found in the input directory",
		}),
		SamplesSelected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "samples_selected",
			Help:      "Number of captures selected by the sampler",
		}),
		BucketsSkipped: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buckets_skipped",
			Help:      "Number of sampling positions without any capture",
		}),
		FilesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Copy outcomes by status",
		}, []string{"status"}),
		BytesCopied: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_copied_total",
			Help:      "Bytes written to the samples directory",
		}),
		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run in seconds",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
}

// RecordSampling records scan and sampler statistics.
func (m *Metrics) RecordSampling(scanned, selected, skipped int) {
	m.CapturesScanned.Set(float64(scanned))
	m.SamplesSelected.Set(float64(selected))
	m.BucketsSkipped.Set(float64(skipped))
}

// RecordCopy records copy outcomes.
func (m *Metrics) RecordCopy(copied, failed, skipped int, bytes int64) {
	m.FilesTotal.WithLabelValues("copied").Add(float64(copied))
	m.FilesTotal.WithLabelValues("failed").Add(float64(failed))
	m.FilesTotal.WithLabelValues("skipped").Add(float64(skipped))
	m.BytesCopied.Add(float64(bytes))
}

// RecordRun records the run duration and, on success, the completion time.
func (m *Metrics) RecordRun(d time.Duration, success bool, now time.Time) {
	m.RunDuration.Set(d.Seconds())
	if success {
		m.LastSuccess.Set(float64(now.Unix()))
	}
}

// WriteTextfile writes all metrics to path for the node_exporter textfile collector.
// The file is written atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
