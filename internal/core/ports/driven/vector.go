package driven

import (
	"context"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// VectorIndex provides semantic similarity search over chunk embeddings.
// Records are keyed by chunk ID. The index may not support true upsert,
// so callers delete existing IDs before re-adding them.
type VectorIndex interface {
	// Upsert stores records, replacing any with the same ID.
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// DeleteByIDs removes records. Unknown IDs are ignored.
	DeleteByIDs(ctx context.Context, ids []string) error

	// Query returns up to k records nearest to embedding, ordered by
	// ascending distance. An empty index returns no hits and no error.
	Query(ctx context.Context, embedding []float32, k int) ([]VectorHit, error)

	// GetByIDs returns the subset of ids that currently exist.
	GetByIDs(ctx context.Context, ids []string) ([]string, error)

	// IDsForDocument returns every record ID whose metadata names docID.
	IDsForDocument(ctx context.Context, docID string) ([]string, error)

	// DocumentIDs returns the distinct document IDs present in the index.
	DocumentIDs(ctx context.Context) ([]string, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched chunk ID.
	ID string

	// Content is the chunk text stored with the vector.
	Content string

	// Metadata is the provenance stored with the vector.
	Metadata domain.ChunkMetadata

	// Distance is the cosine distance to the query. Lower is closer.
	Distance float64
}

// EmbeddingIdentity pins the embedding function a vector index was built with.
type EmbeddingIdentity struct {
	// Model is the embedding model name.
	Model string

	// Dimensions is the vector length.
	Dimensions int
}

// IdentityPinner is implemented by vector indexes that record which
// embedding function they were built with.
type IdentityPinner interface {
	// PinIdentity records id on first use and returns
	// domain.ErrEmbeddingMismatch if a different identity is recorded.
	PinIdentity(ctx context.Context, id EmbeddingIdentity) error

	// CheckIdentity returns domain.ErrEmbeddingMismatch if an identity
	// other than id is recorded. It never records anything.
	CheckIdentity(ctx context.Context, id EmbeddingIdentity) error

	// ResetIdentity forgets the recorded identity so a full rebuild can
	// switch embedding models.
	ResetIdentity(ctx context.Context) error
}
