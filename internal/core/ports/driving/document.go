package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// DocumentService lists and manages indexed documents.
type DocumentService interface {
	// List returns documents, most recently added first.
	// A limit of zero or less returns all of them.
	List(ctx context.Context, limit int) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetChunks returns a document's chunks in reading order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetContent returns the chunks joined in reading order.
	GetContent(ctx context.Context, documentID string) (string, error)

	// GetDetails returns metadata for display.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Delete removes a document from both stores.
	Delete(ctx context.Context, documentID string) error

	// Open opens the document's source in the default application.
	Open(ctx context.Context, documentID string) error
}

// DocumentDetails provides a display view of a document.
type DocumentDetails struct {
	// ID is the document identifier.
	ID string

	// SourceType is the kind of source.
	SourceType domain.SourceType

	// SourceRef is the canonical locator.
	SourceRef string

	// Title is the document title.
	Title string

	// ChunkCount is the number of chunks in the metadata store.
	ChunkCount int

	// VectorCount is the number of vectors in the index for the document.
	VectorCount int

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// InSync returns true if both stores hold the same number of entries.
func (d DocumentDetails) InSync() bool {
	return d.ChunkCount == d.VectorCount
}

// RepairService reconciles the vector index with the metadata store.
type RepairService interface {
	// Repair rebuilds vector entries from metadata chunk text and removes
	// orphaned vectors.
	Repair(ctx context.Context, opts RepairOptions) (*domain.RepairReport, error)
}

// RepairOptions configures a repair pass.
type RepairOptions struct {
	// DocID limits the pass to one document. Empty means all.
	DocID string

	// DryRun reports problems without fixing them.
	DryRun bool

	// Rebuild re-embeds every chunk, not only missing ones.
	Rebuild bool
}
