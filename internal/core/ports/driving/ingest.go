package driving

import (
	"context"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// IngestService extracts content from a source and indexes it.
// Work runs on a bounded worker pool; when the pool is saturated new
// requests are rejected with domain.ErrQueueFull.
type IngestService interface {
	// Ingest extracts and indexes a source, waiting for the result.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IndexResult, error)

	// Submit queues a source without waiting and returns the job ID.
	Submit(ctx context.Context, req domain.IngestRequest) (string, error)

	// Job returns a snapshot of a submitted job.
	Job(id string) (domain.Job, error)

	// Wait blocks until the job finishes or ctx is done.
	Wait(ctx context.Context, id string) (*domain.IndexResult, error)
}
