package pgvector

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
)

// setupTestIndex connects to PGVECTOR_DSN and empties the tables.
func setupTestIndex(t *testing.T) *Index {
	t.Helper()
	dsn := os.Getenv("PGVECTOR_DSN")
	if dsn == "" {
		t.Skip("PGVECTOR_DSN not set")
	}

	ctx := context.Background()
	idx, err := NewIndex(ctx, dsn)
	require.NoError(t, err)
	_, err = idx.pool.Exec(ctx, "TRUNCATE notebook_vectors, notebook_identity")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func rec(id, docID string, emb ...float32) domain.VectorRecord {
	return domain.VectorRecord{
		ID:        id,
		Embedding: emb,
		Content:   "text of " + id,
		Metadata:  domain.ChunkMetadata{DocID: docID, Title: "T", SourceType: domain.SourceTypeFile, SourceRef: "/" + docID},
	}
}

func TestIndex_RoundTrip(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.VectorRecord{
		rec("a__0", "a", 1, 0),
		rec("a__1", "a", 0.8, 0.6),
		rec("b__0", "b", 0, 1),
	}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	hits, err := idx.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a__0", hits[0].ID)
	assert.Equal(t, "a__1", hits[1].ID)
	assert.InDelta(t, 0.2, hits[1].Distance, 1e-5)
	assert.Equal(t, "/a", hits[0].Metadata.SourceRef)

	found, err := idx.GetByIDs(ctx, []string{"a__1", "zz"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a__1"}, found)

	ids, err := idx.IDsForDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a__0", "a__1"}, ids)

	require.NoError(t, idx.DeleteByIDs(ctx, ids))
	docs, err := idx.DocumentIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, docs)
}

func TestIndex_Identity(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()
	first := driven.EmbeddingIdentity{Model: "nomic-embed-text", Dimensions: 768}

	require.NoError(t, idx.PinIdentity(ctx, first))
	require.NoError(t, idx.PinIdentity(ctx, first))
	require.NoError(t, idx.CheckIdentity(ctx, first))
	assert.ErrorIs(t, idx.CheckIdentity(ctx, driven.EmbeddingIdentity{Model: "nomic-embed-text", Dimensions: 384}),
		domain.ErrEmbeddingMismatch)
	assert.ErrorIs(t, idx.PinIdentity(ctx, driven.EmbeddingIdentity{Model: "x", Dimensions: 2}),
		domain.ErrEmbeddingMismatch)

	require.NoError(t, idx.ResetIdentity(ctx))
	assert.NoError(t, idx.PinIdentity(ctx, driven.EmbeddingIdentity{Model: "x", Dimensions: 2}))
}
