// Package metrics provides Prometheus metrics for the ingestion and
// retrieval pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.MetricsRecorder = (*Metrics)(nil)

// Metrics holds the pipeline's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsIndexed *prometheus.CounterVec
	ChunksIndexed    prometheus.Counter
	IndexFailures    *prometheus.CounterVec
	IndexDuration    prometheus.Histogram
	IngestFailures   *prometheus.CounterVec
	Queries          *prometheus.CounterVec
	QueryDuration    prometheus.Histogram
	QueryHits        prometheus.Histogram
	QueueDepth       prometheus.Gauge
}

// New creates and registers all metrics. Go runtime and process
// collectors are included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		DocumentsIndexed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_documents_indexed_total",
				Help: "Documents successfully indexed",
			},
			[]string{"source_type"},
		),
		ChunksIndexed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "notebook_chunks_indexed_total",
				Help: "Chunks written to the vector index",
			},
		),
		IndexFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_index_failures_total",
				Help: "Indexing calls that returned an error",
			},
			[]string{"source_type"},
		),
		IndexDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "notebook_index_duration_seconds",
				Help:    "Time to chunk, embed and store one document",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		IngestFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_ingest_failures_total",
				Help: "Failed ingestion jobs by stage",
			},
			[]string{"source_type", "stage"},
		),
		Queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_queries_total",
				Help: "Retrieval queries by outcome",
			},
			[]string{"status"},
		),
		QueryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "notebook_query_duration_seconds",
				Help:    "Time to embed a question and search the index",
				Buckets: prometheus.DefBuckets,
			},
		),
		QueryHits: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "notebook_query_hits",
				Help:    "Chunks returned per query",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
			},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "notebook_worker_queue_depth",
				Help: "Ingestion jobs waiting for a worker",
			},
		),
	}
}

// ObserveIndex records one indexing call.
func (m *Metrics) ObserveIndex(sourceType string, chunks int, elapsed time.Duration, err error) {
	m.IndexDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.IndexFailures.WithLabelValues(sourceType).Inc()
		return
	}
	m.DocumentsIndexed.WithLabelValues(sourceType).Inc()
	m.ChunksIndexed.Add(float64(chunks))
}

// ObserveIngestFailure records a failed ingestion job.
func (m *Metrics) ObserveIngestFailure(sourceType, stage string) {
	m.IngestFailures.WithLabelValues(sourceType, stage).Inc()
}

// ObserveQuery records one retrieval call.
func (m *Metrics) ObserveQuery(hits int, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Queries.WithLabelValues(status).Inc()
	m.QueryDuration.Observe(elapsed.Seconds())
	if err == nil {
		m.QueryHits.Observe(float64(hits))
	}
}

// SetQueueDepth reports how many ingestion jobs are waiting.
func (m *Metrics) SetQueueDepth(n int) {
	m.QueueDepth.Set(float64(n))
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
