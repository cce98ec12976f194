// Package mcp exposes the notebook over the Model Context Protocol so that
// AI assistants can query, ask and add sources.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

var (
	// ErrMissingQueryService is returned when the query engine is not provided.
	ErrMissingQueryService = errors.New("mcp: query service is required")

	// ErrMissingDocumentService is returned when the document service is not provided.
	ErrMissingDocumentService = errors.New("mcp: document service is required")

	// ErrToolUnavailable is returned by tools whose service was not provided.
	ErrToolUnavailable = errors.New("tool unavailable")
)

// toolError adds a hint for errors an assistant can act on. The SDK
// reports a handler error to the client as a tool result with IsError set,
// so the message is written for the model to read.
func toolError(err error) error {
	switch {
	case errors.Is(err, domain.ErrLLMUnavailable):
		return fmt.Errorf("no answer model is configured, use the query tool and answer from its results: %w", err)
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return fmt.Errorf("the embedding provider is not configured or unreachable: %w", err)
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("not found, use list_sources to see document ids: %w", err)
	case errors.Is(err, domain.ErrQueueFull):
		return fmt.Errorf("ingestion queue is full, retry shortly: %w", err)
	case errors.Is(err, domain.ErrUnsupportedType), errors.Is(err, domain.ErrInvalidInput):
		return fmt.Errorf("invalid request: %w", err)
	default:
		return err
	}
}
