package driven

import (
	"context"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// MetadataStore is the durable relational record of documents and their
// chunks. It is the authoritative source for listing and provenance.
// Backed by SQLite.
type MetadataStore interface {
	// UpsertDocument inserts the document or, if it exists, overwrites its
	// source type, source reference and title. CreatedAt is never changed
	// for an existing document.
	UpsertDocument(ctx context.Context, doc *domain.Document) error

	// ReplaceChunks atomically deletes every chunk owned by docID and
	// inserts chunks in their place.
	ReplaceChunks(ctx context.Context, docID string, chunks []domain.Chunk) error

	// ListDocuments returns all documents, most recently created first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks returns a document's chunks in position order.
	GetChunks(ctx context.Context, docID string) ([]domain.Chunk, error)

	// ChunkIDs returns the IDs of a document's chunks in position order.
	ChunkIDs(ctx context.Context, docID string) ([]string, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// Stats returns document and chunk totals.
	Stats(ctx context.Context) (StoreStats, error)

	// Close releases resources.
	Close() error
}

// StoreStats holds aggregate counts for the metadata store.
type StoreStats struct {
	Documents int
	Chunks    int
}
