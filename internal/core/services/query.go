package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
	"github.com/custodia-labs/notebook-cli/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryEngine = (*QueryService)(nil)

// QueryService embeds a question and returns the nearest chunks.
type QueryService struct {
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	limits   domain.RetrievalSettings
	metrics  driven.MetricsRecorder
}

// NewQueryService creates a query engine. embedder must be the same
// service used for indexing.
func NewQueryService(
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	limits domain.RetrievalSettings,
	metrics driven.MetricsRecorder,
) *QueryService {
	return &QueryService{
		index:    index,
		embedder: embedder,
		limits:   limits,
		metrics:  metricsOrNoop(metrics),
	}
}

// Query returns up to opts.TopK chunks nearest to question, best first.
func (s *QueryService) Query(
	ctx context.Context, question string, opts domain.QueryOptions,
) ([]domain.ContextChunk, error) {
	logger.Section("Query")

	topK, err := s.resolveTopK(opts.TopK)
	if err != nil {
		return nil, err
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	logger.Debug("Question: %q, top_k: %d", question, topK)

	start := time.Now()
	results, err := s.query(ctx, question, topK)
	s.metrics.ObserveQuery(len(results), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	logger.Debug("Returned %d chunks", len(results))
	return results, nil
}

// Context runs Query and keeps at most the configured number of
// context chunks.
func (s *QueryService) Context(
	ctx context.Context, question string, opts domain.QueryOptions,
) ([]domain.ContextChunk, error) {
	results, err := s.Query(ctx, question, opts)
	if err != nil {
		return nil, err
	}
	if limit := s.limits.MaxContextChunks; limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *QueryService) resolveTopK(topK int) (int, error) {
	switch {
	case topK < 0:
		return 0, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidConfig, topK)
	case topK == 0:
		if s.limits.TopK <= 0 {
			return 0, fmt.Errorf("%w: default top_k must be positive, got %d",
				domain.ErrInvalidConfig, s.limits.TopK)
		}
		return s.limits.TopK, nil
	default:
		return topK, nil
	}
}

func (s *QueryService) query(ctx context.Context, question string, topK int) ([]domain.ContextChunk, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, &domain.StorageError{Step: "vector count", Err: err}
	}
	if count == 0 {
		logger.Debug("Vector index is empty")
		return []domain.ContextChunk{}, nil
	}

	vectors, err := embedTexts(ctx, s.embedder, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if err := s.checkIdentity(ctx, len(vectors[0])); err != nil {
		return nil, err
	}

	hits, err := s.index.Query(ctx, vectors[0], topK)
	if err != nil {
		return nil, &domain.StorageError{Step: "vector query", Err: err}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]domain.ContextChunk, len(hits))
	for i, h := range hits {
		results[i] = domain.ContextChunk{
			ChunkID:  h.ID,
			Text:     h.Content,
			Metadata: h.Metadata,
			Distance: h.Distance,
		}
	}
	return results, nil
}

// checkIdentity rejects a question embedded with a different model or
// dimension count than the one the index was built with.
func (s *QueryService) checkIdentity(ctx context.Context, dims int) error {
	pinner, ok := s.index.(driven.IdentityPinner)
	if !ok {
		return nil
	}
	id := driven.EmbeddingIdentity{Model: s.embedder.ModelName(), Dimensions: dims}
	if err := pinner.CheckIdentity(ctx, id); err != nil {
		return fmt.Errorf("checking embedding identity: %w", err)
	}
	return nil
}
