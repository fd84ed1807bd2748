// Package metrics provides Prometheus observability for the scoring pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the scoring pipeline instruments.
type Metrics struct {
	// Analyses by scoring domain and decision
	Analyses *prometheus.CounterVec

	// Score distribution by scoring domain
	ScoreDistribution *prometheus.HistogramVec

	// Analysis latency by scoring domain
	AnalysisLatency *prometheus.HistogramVec

	// Fire-and-forget cache write failures
	CacheWriteFailures prometheus.Counter

	// Model updates by domain and outcome ("trained", "skipped")
	ModelUpdates *prometheus.CounterVec
}

// New creates a Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		Analyses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "askari_analyses_total",
			Help: "Total analyses by scoring domain and decision",
		}, []string{"domain", "decision"}),

		ScoreDistribution: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "askari_score",
			Help:    "Distribution of scores by scoring domain",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"domain"}),

		AnalysisLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "askari_analysis_duration_seconds",
			Help:    "Duration of scoring calls by domain",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"domain"}),

		CacheWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "askari_cache_write_failures_total",
			Help: "Total failed fire-and-forget cache writes",
		}),

		ModelUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "askari_model_updates_total",
			Help: "Total model update attempts by domain and outcome",
		}, []string{"domain", "outcome"}),
	}
}

// RecordAnalysis records one completed scoring call.
func (m *Metrics) RecordAnalysis(domain, decision string, score float64, d time.Duration) {
	if m != nil {
		m.Analyses.WithLabelValues(domain, decision).Inc()
		m.ScoreDistribution.WithLabelValues(domain).Observe(score)
		m.AnalysisLatency.WithLabelValues(domain).Observe(d.Seconds())
	}
}

// RecordCacheWriteFailure records a swallowed cache write error.
func (m *Metrics) RecordCacheWriteFailure() {
	if m != nil {
		m.CacheWriteFailures.Inc()
	}
}

// RecordModelUpdate records the outcome of a model update attempt.
func (m *Metrics) RecordModelUpdate(domain, outcome string) {
	if m != nil {
		m.ModelUpdates.WithLabelValues(domain, outcome).Inc()
	}
}
