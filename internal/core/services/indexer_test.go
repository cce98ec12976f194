package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
	"github.com/custodia-labs/notebook-cli/internal/postprocessors/chunker"
)

// assertConsistent checks that the vector index and the metadata store
// agree on a document's chunk IDs.
func assertConsistent(t *testing.T, kb *testKB, docID string) {
	t.Helper()
	ctx := context.Background()

	chunkIDs, err := kb.store.ChunkIDs(ctx, docID)
	require.NoError(t, err)
	vectorIDs, err := kb.index.IDsForDocument(ctx, docID)
	require.NoError(t, err)
	assert.ElementsMatch(t, chunkIDs, vectorIDs)
}

func TestIndexerService_IndexDocument(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	ctx := context.Background()

	result := kb.add(t, "url_abc", "abcdefghij")

	assert.Equal(t, "url_abc", result.DocID)
	assert.Equal(t, 3, result.Chunks)
	assert.Equal(t, 0, result.Replaced)
	assert.Equal(t, 1, kb.embedder.calls(), "one batch per document")

	chunks, err := kb.store.GetChunks(ctx, "url_abc")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "url_abc__0", chunks[0].ID)
	assert.Equal(t, "abcd", chunks[0].Content)
	assert.Equal(t, "ghij", chunks[2].Content)

	hits, err := kb.index.Query(ctx, letterVector("abcd"), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "url_abc__0", hits[0].ID)
	assert.Equal(t, "url_abc", hits[0].Metadata.DocID)
	assert.Equal(t, "Doc url_abc", hits[0].Metadata.Title)
	assert.Equal(t, domain.SourceTypeURL, hits[0].Metadata.SourceType)
	assert.Equal(t, "https://example.com/url_abc", hits[0].Metadata.SourceRef)

	assertConsistent(t, kb, "url_abc")
}

func TestIndexerService_DerivesIDFromSeed(t *testing.T) {
	kb := newTestKB(t, 100, 10)

	result, err := kb.indexer.IndexDocument(context.Background(), driving.IndexRequest{
		SourceType: domain.SourceTypeYouTube,
		SourceRef:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Seed:       "dQw4w9WgXcQ",
		Text:       "never gonna give you up",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.YouTubeDocumentID("dQw4w9WgXcQ"), result.DocID)
}

func TestIndexerService_ReindexReplacesVectors(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	ctx := context.Background()

	kb.add(t, "url_doc", "abcdefghij")
	first, err := kb.store.GetDocument(ctx, "url_doc")
	require.NoError(t, err)

	result := kb.add(t, "url_doc", "xyz")

	assert.Equal(t, 1, result.Chunks)
	assert.Equal(t, 3, result.Replaced)

	count, err := kb.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "stale vectors from the longer version are gone")

	hits, err := kb.index.Query(ctx, letterVector("xyz"), 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "xyz", hits[0].Content)

	second, err := kb.store.GetDocument(ctx, "url_doc")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	docs, err := kb.store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assertConsistent(t, kb, "url_doc")
}

func TestIndexerService_ReindexSameTextIsIdempotent(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	ctx := context.Background()

	kb.add(t, "url_doc", "abcdefghij")
	result := kb.add(t, "url_doc", "abcdefghij")

	assert.Equal(t, 3, result.Chunks)
	assert.Equal(t, 3, result.Replaced)
	count, err := kb.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestIndexerService_EmptyDocument(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	ctx := context.Background()

	kb.add(t, "url_doc", "abcdefghij")
	calls := kb.embedder.calls()

	result := kb.add(t, "url_doc", "  \r\n\r\n\t ")

	assert.Equal(t, 0, result.Chunks)
	assert.Equal(t, 3, result.Replaced)
	assert.Equal(t, calls, kb.embedder.calls(), "nothing to embed")

	doc, err := kb.store.GetDocument(ctx, "url_doc")
	require.NoError(t, err)
	assert.Equal(t, "url_doc", doc.ID)

	ids, err := kb.store.ChunkIDs(ctx, "url_doc")
	require.NoError(t, err)
	assert.Empty(t, ids)

	count, err := kb.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIndexerService_InvalidRequest(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	ctx := context.Background()

	_, err := kb.indexer.IndexDocument(ctx, driving.IndexRequest{SourceType: "ftp", SourceRef: "x", Text: "t"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = kb.indexer.IndexDocument(ctx, driving.IndexRequest{SourceType: domain.SourceTypeURL, Text: "t"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexerService_EmbeddingFailureWritesNothing(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	kb.embedder.err = errors.New("model not loaded")
	ctx := context.Background()

	_, err := kb.indexer.IndexDocument(ctx, urlRequest("url_doc", "abcdefghij"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)

	_, err = kb.store.GetDocument(ctx, "url_doc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	count, err := kb.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIndexerService_EmbeddingCountMismatch(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	kb.embedder.short = true

	_, err := kb.indexer.IndexDocument(context.Background(), urlRequest("url_doc", "abcdefghij"))
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestIndexerService_EmbeddingModelMismatch(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	ctx := context.Background()
	require.NoError(t, kb.index.PinIdentity(ctx, driven.EmbeddingIdentity{Model: "other", Dimensions: 27}))

	_, err := kb.indexer.IndexDocument(ctx, urlRequest("url_doc", "abcdefghij"))
	assert.ErrorIs(t, err, domain.ErrEmbeddingMismatch)
}

func TestIndexerService_VectorFailureIsStorageError(t *testing.T) {
	c, err := chunker.New(chunker.WithChunkSize(4), chunker.WithOverlap(1))
	require.NoError(t, err)
	store := memory.NewMetadataStore()
	index := &flakyIndex{VectorIndex: memory.NewVectorIndex(), failUpsert: true}
	indexer := NewIndexerService(store, index, newLetterEmbedder(), c, nil, nil)

	_, err = indexer.IndexDocument(context.Background(), urlRequest("url_doc", "abcdefghij"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, errBackend)

	var storageErr *domain.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "vector upsert", storageErr.Step)

	_, err = store.GetDocument(context.Background(), "url_doc")
	assert.ErrorIs(t, err, domain.ErrNotFound, "metadata is written after vectors")
}

func TestIndexerService_ConcurrentSameDocument(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			text := "abcdefghij"
			if n%2 == 0 {
				text = "xyz"
			}
			_, err := kb.indexer.IndexDocument(ctx, urlRequest("url_doc", text))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assertConsistent(t, kb, "url_doc")
	assert.Equal(t, 0, kb.locks.Len())
}

func TestIndexerService_ConcurrentDistinctDocuments(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := kb.indexer.IndexDocument(ctx, urlRequest(fmt.Sprintf("url_%d", n), "abcdefghij"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stats, err := kb.store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Documents)
	assert.Equal(t, 24, stats.Chunks)
	count, err := kb.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, count)
}
