package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

func newTestIngest(t *testing.T, kb *testKB, workers, queue int, extractors ...*mockExtractor) *IngestService {
	t.Helper()
	pool := NewWorkerPool(workers, queue, nil)
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })

	svc := NewIngestService(kb.indexer, pool, nil)
	for _, e := range extractors {
		svc.extractors[e.sourceType] = e
	}
	return svc
}

func TestIngestService_Ingest(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	svc := newTestIngest(t, kb, 1, 4, &mockExtractor{sourceType: domain.SourceTypeURL, text: "abcdefghij"})

	result, err := svc.Ingest(context.Background(), domain.IngestRequest{
		SourceType: domain.SourceTypeURL,
		Locator:    " https://example.com/a ",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.URLDocumentID("https://example.com/a"), result.DocID)
	assert.Equal(t, 3, result.Chunks)

	doc, err := kb.store.GetDocument(context.Background(), result.DocID)
	require.NoError(t, err)
	assert.Equal(t, "Extracted https://example.com/a", doc.Title)
}

func TestIngestService_TitleOverride(t *testing.T) {
	kb := newTestKB(t, 100, 10)
	svc := newTestIngest(t, kb, 1, 4, &mockExtractor{sourceType: domain.SourceTypeFile, text: "notes"})

	result, err := svc.Ingest(context.Background(), domain.IngestRequest{
		SourceType: domain.SourceTypeFile,
		Locator:    "/tmp/notes.txt",
		Title:      "My Notes",
	})

	require.NoError(t, err)
	doc, err := kb.store.GetDocument(context.Background(), result.DocID)
	require.NoError(t, err)
	assert.Equal(t, "My Notes", doc.Title)
}

func TestIngestService_ExtractionFailure(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	boom := errors.New("404 not found")
	svc := newTestIngest(t, kb, 1, 4, &mockExtractor{sourceType: domain.SourceTypeURL, err: boom})

	_, err := svc.Ingest(context.Background(), domain.IngestRequest{
		SourceType: domain.SourceTypeURL,
		Locator:    "https://example.com/missing",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.ErrorIs(t, err, boom)
	var extractionErr *domain.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, "https://example.com/missing", extractionErr.Locator)

	stats, err := kb.store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Documents)
}

func TestIngestService_Validation(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	svc := newTestIngest(t, kb, 1, 4, &mockExtractor{sourceType: domain.SourceTypeURL})
	ctx := context.Background()

	_, err := svc.Submit(ctx, domain.IngestRequest{SourceType: domain.SourceTypeURL, Locator: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Submit(ctx, domain.IngestRequest{SourceType: domain.SourceTypeYouTube, Locator: "abc"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.Submit(cancelled, domain.IngestRequest{SourceType: domain.SourceTypeURL, Locator: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestService_Backpressure(t *testing.T) {
	kb := newTestKB(t, 4, 1)
	block := make(chan struct{})
	extractor := &mockExtractor{sourceType: domain.SourceTypeURL, text: "abc", block: block}
	svc := newTestIngest(t, kb, 1, 1, extractor)
	ctx := context.Background()

	first, err := svc.Submit(ctx, domain.IngestRequest{SourceType: domain.SourceTypeURL, Locator: "https://a"})
	require.NoError(t, err)

	// Wait until the worker has taken the first job so the queue slot is free
	require.Eventually(t, func() bool {
		job, err := svc.Job(first)
		return err == nil && job.Status == domain.JobRunning
	}, time.Second, time.Millisecond)

	_, err = svc.Submit(ctx, domain.IngestRequest{SourceType: domain.SourceTypeURL, Locator: "https://b"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, domain.IngestRequest{SourceType: domain.SourceTypeURL, Locator: "https://c"})
	assert.ErrorIs(t, err, domain.ErrQueueFull)

	close(block)
	result, err := svc.Wait(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Chunks)
}
