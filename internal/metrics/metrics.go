// Package metrics records run statistics in a Prometheus registry and writes
// them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"slideshow/models"
)

const namespace = "slideshow"

// Recorder holds the metrics of a single run.
type Recorder struct {
	registry *prometheus.Registry

	ImagesTotal          *prometheus.CounterVec
	BatchesTotal         *prometheus.CounterVec
	OutputSeconds        prometheus.Counter
	OutputBytes          prometheus.Counter
	VerificationWarnings prometheus.Counter
	BatchDuration        prometheus.Histogram
	LastRunTimestamp     prometheus.Gauge
	LastRunDuration      prometheus.Gauge
}

// New creates a Recorder backed by a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		ImagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "images_total",
				Help:      "Images processed, by outcome",
			},
			[]string{"status"}, // "ok", "failed"
		),

		BatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Batches processed, by outcome",
			},
			[]string{"status"},
		),

		OutputSeconds: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "output_seconds_total",
				Help:      "Seconds of video encoded",
			},
		),

		OutputBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "output_bytes_total",
				Help:      "Bytes of video written",
			},
		),

		VerificationWarnings: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verification_warnings_total",
				Help:      "Encoded outputs whose read-back duration could not be confirmed",
			},
		),

		BatchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Wall time spent assembling and encoding one batch",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),

		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished",
			},
		),

		LastRunDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_duration_seconds",
				Help:      "Duration of the last run in seconds",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveBatch records the outcome of one batch.
func (r *Recorder) ObserveBatch(br *models.BatchResult) {
	r.ImagesTotal.WithLabelValues("ok").Add(float64(br.Succeeded()))
	r.ImagesTotal.WithLabelValues("failed").Add(float64(br.Failed()))
	r.BatchesTotal.WithLabelValues(string(br.Status)).Inc()
	r.VerificationWarnings.Add(float64(len(br.Warnings)))
	r.BatchDuration.Observe(br.Elapsed.Seconds())

	if br.Status == models.BatchStatusEncoded {
		r.OutputSeconds.Add(br.SegmentDuration)
		r.OutputBytes.Add(float64(br.SizeBytes))
	}
}

// ObserveRun records run timing.
func (r *Recorder) ObserveRun(started, finished time.Time) {
	r.LastRunTimestamp.Set(float64(finished.Unix()))
	r.LastRunDuration.Set(finished.Sub(started).Seconds())
}

// WriteTextfile atomically writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
