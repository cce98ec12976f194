package services

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
)

// unitVector returns v scaled to length 1.
func unitVector(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if len(v) == 0 || sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("%w: degenerate vector of length %d", domain.ErrEmbedding, len(v))
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// embedTexts embeds texts in a single batch and unit-normalises the result.
func embedTexts(ctx context.Context, embedder driven.EmbeddingService, texts []string) ([][]float32, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	raw, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbedding, len(raw), len(texts))
	}

	out := make([][]float32, len(raw))
	for i, v := range raw {
		if out[i], err = unitVector(v); err != nil {
			return nil, err
		}
		if i > 0 && len(out[i]) != len(out[0]) {
			return nil, fmt.Errorf("%w: mixed vector lengths %d and %d",
				domain.ErrEmbedding, len(out[0]), len(out[i]))
		}
	}
	return out, nil
}
