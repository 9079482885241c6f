// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paperqa"

// Metrics holds the pipeline's Prometheus collectors. They are registered on
// a private registry so several pipelines, and tests, never collide.
type Metrics struct {
	Registry *prometheus.Registry

	// Runs counts pipeline runs by outcome ("success", "failure").
	Runs *prometheus.CounterVec

	// StageFailures counts aborted runs by the stage that failed.
	StageFailures *prometheus.CounterVec

	// StageDuration observes stage wall time in seconds.
	StageDuration *prometheus.HistogramVec

	// CandidatesFound observes the number of candidates per search.
	CandidatesFound prometheus.Histogram

	// Downloads counts download outcomes ("downloaded", "skipped", "failed").
	Downloads *prometheus.CounterVec

	// DownloadFailures counts failed downloads by failure kind.
	DownloadFailures *prometheus.CounterVec

	// Ingested counts registered documents by kind ("enriched", "plain").
	Ingested *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		StageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Runs aborted, by failing stage.",
		}, []string{"stage"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		CandidatesFound: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates_per_search",
			Help:      "Candidates returned per search.",
			Buckets:   prometheus.LinearBuckets(0, 5, 11),
		}),
		Downloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Candidate download outcomes.",
		}, []string{"outcome"}),
		DownloadFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_failures_total",
			Help:      "Failed downloads by failure kind.",
		}, []string{"kind"}),
		Ingested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_documents_total",
			Help:      "Documents registered with the corpus.",
		}, []string{"kind"}),
	}
}

// WriteTextfile writes the current values in the node-exporter textfile
// format to path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
