package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
	"github.com/custodia-labs/notebook-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs extraction and indexing on the worker pool so that
// front ends never block on either.
type IngestService struct {
	indexer    driving.Indexer
	pool       *WorkerPool
	extractors map[domain.SourceType]driven.Extractor
	metrics    driven.MetricsRecorder
}

// NewIngestService creates an ingest service. Each extractor is
// registered under its SourceType; a later extractor for the same type
// replaces an earlier one.
func NewIngestService(
	indexer driving.Indexer,
	pool *WorkerPool,
	metrics driven.MetricsRecorder,
	extractors ...driven.Extractor,
) *IngestService {
	byType := make(map[domain.SourceType]driven.Extractor, len(extractors))
	for _, e := range extractors {
		byType[e.SourceType()] = e
	}
	return &IngestService{
		indexer:    indexer,
		pool:       pool,
		extractors: byType,
		metrics:    metricsOrNoop(metrics),
	}
}

// Ingest extracts and indexes a source and waits for the result.
func (s *IngestService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IndexResult, error) {
	id, err := s.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Wait(ctx, id)
}

// Submit queues a source and returns the job ID without waiting.
func (s *IngestService) Submit(ctx context.Context, req domain.IngestRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	req.Locator = strings.TrimSpace(req.Locator)
	if req.Locator == "" {
		return "", fmt.Errorf("%w: locator is required", domain.ErrInvalidInput)
	}
	extractor, ok := s.extractors[req.SourceType]
	if !ok {
		return "", fmt.Errorf("%w: no extractor for source type %q", domain.ErrUnsupportedType, req.SourceType)
	}

	id, err := s.pool.Submit(string(req.SourceType)+" "+req.Locator, func(ctx context.Context) (any, error) {
		return s.run(ctx, extractor, req)
	})
	if err != nil {
		return "", err
	}
	logger.Debug("queued %s %s as job %s", req.SourceType, req.Locator, id)
	return id, nil
}

// Job returns a snapshot of a submitted job.
func (s *IngestService) Job(id string) (domain.Job, error) {
	return s.pool.Job(id)
}

// Wait blocks until the job finishes or ctx is done.
func (s *IngestService) Wait(ctx context.Context, id string) (*domain.IndexResult, error) {
	v, err := s.pool.Wait(ctx, id)
	if err != nil {
		return nil, err
	}
	result, ok := v.(*domain.IndexResult)
	if !ok {
		return nil, fmt.Errorf("job %s returned %T", id, v)
	}
	return result, nil
}

func (s *IngestService) run(
	ctx context.Context,
	extractor driven.Extractor,
	req domain.IngestRequest,
) (*domain.IndexResult, error) {
	logger.Info("Extracting %s %s", req.SourceType, req.Locator)

	extracted, err := extractor.Extract(ctx, req.Locator)
	if err != nil {
		s.metrics.ObserveIngestFailure(string(req.SourceType), "extract")
		if !errors.Is(err, domain.ErrExtraction) {
			err = domain.NewExtractionError(req.Locator, err)
		}
		return nil, err
	}
	if req.Title != "" {
		extracted.Title = req.Title
	}

	result, err := s.indexer.IndexDocument(ctx, driving.IndexRequestFromExtracted(extracted))
	if err != nil {
		s.metrics.ObserveIngestFailure(string(req.SourceType), "index")
		return nil, err
	}
	return result, nil
}
