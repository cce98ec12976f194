package driving

import (
	"context"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// QueryEngine retrieves ranked context for a question.
type QueryEngine interface {
	// Query returns up to TopK chunks ordered by ascending distance.
	// An empty knowledge base yields an empty result, not an error.
	Query(ctx context.Context, question string, opts domain.QueryOptions) ([]domain.ContextChunk, error)

	// Context runs Query and truncates the result to the configured
	// maximum number of context chunks.
	Context(ctx context.Context, question string, opts domain.QueryOptions) ([]domain.ContextChunk, error)
}

// AnswerService answers questions from retrieved context.
type AnswerService interface {
	// Ask retrieves context and asks the language model to answer from it.
	// Returns domain.ErrLLMUnavailable if no model is configured.
	Ask(ctx context.Context, question string, opts domain.QueryOptions) (*domain.Answer, error)
}
