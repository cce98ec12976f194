package services

import (
	"time"

	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
)

type noopMetrics struct{}

func (noopMetrics) ObserveIndex(string, int, time.Duration, error) {}
func (noopMetrics) ObserveIngestFailure(string, string)            {}
func (noopMetrics) ObserveQuery(int, time.Duration, error)         {}
func (noopMetrics) SetQueueDepth(int)                              {}

func metricsOrNoop(m driven.MetricsRecorder) driven.MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
