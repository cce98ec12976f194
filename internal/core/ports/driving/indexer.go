package driving

import (
	"context"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// Indexer chunks, embeds and stores a single document, replacing any
// previous chunks for the same document ID in both stores.
type Indexer interface {
	// IndexDocument indexes an already-extracted document. A successful
	// return means the vector index and metadata store agree on the
	// document's chunk IDs.
	IndexDocument(ctx context.Context, req IndexRequest) (*domain.IndexResult, error)
}

// IndexRequest is a document ready for indexing.
type IndexRequest struct {
	// DocID overrides the ID derived from SourceType and Seed.
	DocID string

	// SourceType is the kind of source.
	SourceType domain.SourceType

	// SourceRef is the canonical locator.
	SourceRef string

	// Seed is the string the document ID is derived from. Defaults to SourceRef.
	Seed string

	// Title is the human-readable title.
	Title string

	// Text is the extracted text. It is normalised before chunking.
	Text string
}

// IndexRequestFromExtracted builds an IndexRequest from extractor output.
func IndexRequestFromExtracted(e *domain.Extracted) IndexRequest {
	return IndexRequest{
		SourceType: e.SourceType,
		SourceRef:  e.SourceRef,
		Seed:       e.Seed,
		Title:      e.Title,
		Text:       e.Text,
	}
}
