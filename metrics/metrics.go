// Package metrics exposes Prometheus counters for report ingestion.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion outcomes used as the "result" label.
const (
	ResultAccepted   = "accepted"
	ResultMalformed  = "malformed"
	ResultUnknownURL = "unknown_url"
	ResultError      = "error"
)

// Reasons a timing entry did not produce a sample.
const (
	SkipNegativeStart    = "negative_start"
	SkipNegativeDuration = "negative_duration"
	SkipDuplicate        = "duplicate"
	SkipStoreError       = "store_error"
)

var (
	// ReportsIngested counts ingestion attempts by outcome.
	ReportsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagelab_reports_ingested_total",
			Help: "Total number of report submissions by result",
		},
		[]string{"result"},
	)

	// InvalidRuns counts runs flagged invalid by their captured HTTP status.
	InvalidRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagelab_invalid_runs_total",
			Help: "Total number of runs recorded as invalid, by HTTP status code",
		},
		[]string{"status_code"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagelab_ingest_duration_seconds",
			Help:    "Duration of a full report ingestion transaction in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	TimingSamplesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagelab_timing_samples_stored_total",
			Help: "Total number of user-timing samples stored",
		},
	)

	TimingSamplesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagelab_timing_samples_skipped_total",
			Help: "Total number of user-timing entries not stored, by reason",
		},
		[]string{"reason"},
	)

	AverageRecalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagelab_average_recalculations_total",
			Help: "Total number of average recomputations by kind",
		},
		[]string{"kind"},
	)
)

// RecordIngest records the outcome and latency of one submission.
func RecordIngest(result string, started time.Time) {
	ReportsIngested.WithLabelValues(result).Inc()
	IngestDuration.Observe(time.Since(started).Seconds())
}
