package driven

import "time"

// MetricsRecorder receives pipeline measurements.
// Services accept nil and fall back to a no-op recorder.
type MetricsRecorder interface {
	// ObserveIndex records one indexing call.
	ObserveIndex(sourceType string, chunks int, elapsed time.Duration, err error)

	// ObserveIngestFailure records a failed ingestion at the given stage
	// ("extract" or "index").
	ObserveIngestFailure(sourceType, stage string)

	// ObserveQuery records one retrieval call.
	ObserveQuery(hits int, elapsed time.Duration, err error)

	// SetQueueDepth reports how many ingestion jobs are waiting.
	SetQueueDepth(n int)
}
