// Package metrics holds the Prometheus instrumentation for the ingest
// pipeline and the ops endpoint serving it.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingest bundles the pipeline metrics on an explicit registry.
type Ingest struct {
	RowsProcessed *prometheus.CounterVec
	RowsFailed    *prometheus.CounterVec
	BatchesTotal  *prometheus.CounterVec
	BatchDuration *prometheus.HistogramVec

	EmbedRequests *prometheus.CounterVec
	EmbedDuration *prometheus.HistogramVec
	EmbedCache    *prometheus.CounterVec

	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	LastRunProcessed prometheus.Gauge
	LastRunFailed    prometheus.Gauge
}

// NewIngest creates and registers the pipeline metrics.
func NewIngest(reg prometheus.Registerer) *Ingest {
	m := &Ingest{
		RowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecingest",
			Name:      "rows_processed_total",
			Help:      "Total rows successfully written to the index",
		}, []string{"collection"}),

		RowsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecingest",
			Name:      "rows_failed_total",
			Help:      "Total rows failed",
		}, []string{"collection", "reason"}),

		BatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecingest",
			Name:      "batches_total",
			Help:      "Total batch upserts attempted",
		}, []string{"collection"}),

		BatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vecingest",
			Name:      "batch_duration_seconds",
			Help:      "Batch upsert duration",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"collection"}),

		EmbedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecingest",
			Name:      "embedding_requests_total",
			Help:      "Total embedding requests",
		}, []string{"provider", "status"}),

		EmbedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vecingest",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),

		EmbedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecingest",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		}, []string{"result"}), // "hit" / "miss"

		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecingest",
			Name:      "runs_total",
			Help:      "Total ingest runs by outcome",
		}, []string{"status"}), // "ok" / "error"

		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vecingest",
			Name:      "run_duration_seconds",
			Help:      "Full ingest run duration",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
		}),

		LastRunProcessed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vecingest",
			Name:      "last_run_processed",
			Help:      "Rows processed by the most recent run",
		}),

		LastRunFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vecingest",
			Name:      "last_run_failed",
			Help:      "Rows failed by the most recent run",
		}),
	}

	reg.MustRegister(
		m.RowsProcessed, m.RowsFailed,
		m.BatchesTotal, m.BatchDuration,
		m.EmbedRequests, m.EmbedDuration, m.EmbedCache,
		m.RunsTotal, m.RunDuration,
		m.LastRunProcessed, m.LastRunFailed,
	)
	return m
}
