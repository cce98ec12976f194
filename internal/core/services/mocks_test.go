package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
	"github.com/custodia-labs/notebook-cli/internal/postprocessors/chunker"
)

// letterEmbedder maps text to letter frequencies, so texts sharing
// letters land close together.
type letterEmbedder struct {
	mu      sync.Mutex
	model   string
	batches [][]string
	err     error
	short   bool
}

func newLetterEmbedder() *letterEmbedder {
	return &letterEmbedder{model: "letters"}
}

func (e *letterEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *letterEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches = append(e.batches, texts)
	if e.err != nil {
		return nil, e.err
	}
	n := len(texts)
	if e.short && n > 0 {
		n--
	}
	out := make([][]float32, n)
	for i := 0; i < n; i++ {
		out[i] = letterVector(texts[i])
	}
	return out, nil
}

func (e *letterEmbedder) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.batches)
}

func (e *letterEmbedder) Dimensions() int              { return 27 }
func (e *letterEmbedder) ModelName() string            { return e.model }
func (e *letterEmbedder) Ping(_ context.Context) error { return nil }
func (e *letterEmbedder) Close() error                 { return nil }

func letterVector(text string) []float32 {
	v := make([]float32, 27)
	v[26] = 0.01
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

// flakyIndex wraps the memory index and fails selected operations.
type flakyIndex struct {
	*memory.VectorIndex
	failUpsert bool
	failCount  bool
}

var errBackend = errors.New("backend unavailable")

func (f *flakyIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if f.failUpsert {
		return errBackend
	}
	return f.VectorIndex.Upsert(ctx, records)
}

func (f *flakyIndex) Count(ctx context.Context) (int, error) {
	if f.failCount {
		return 0, errBackend
	}
	return f.VectorIndex.Count(ctx)
}

// mockLLM records the messages it receives.
type mockLLM struct {
	reply    string
	err      error
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.messages = messages
	m.opts = opts
	return m.reply, m.err
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPrompts serves fixed prompt overrides.
type mockPrompts map[string]string

func (m mockPrompts) Load(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m mockPrompts) Reload() {}

// mockExtractor returns canned text for any locator.
type mockExtractor struct {
	sourceType domain.SourceType
	text       string
	err        error
	block      chan struct{}
}

func (m *mockExtractor) SourceType() domain.SourceType { return m.sourceType }

func (m *mockExtractor) Extract(ctx context.Context, locator string) (*domain.Extracted, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Extracted{
		SourceType: m.sourceType,
		SourceRef:  locator,
		Seed:       locator,
		Title:      "Extracted " + locator,
		Text:       m.text,
	}, nil
}

// testKB is a knowledge base wired from in-memory adapters.
type testKB struct {
	store    *memory.MetadataStore
	index    *memory.VectorIndex
	embedder *letterEmbedder
	locks    *KeyedMutex
	indexer  *IndexerService
}

func newTestKB(t *testing.T, size, overlap int) *testKB {
	t.Helper()
	c, err := chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap))
	require.NoError(t, err)

	kb := &testKB{
		store:    memory.NewMetadataStore(),
		index:    memory.NewVectorIndex(),
		embedder: newLetterEmbedder(),
		locks:    NewKeyedMutex(),
	}
	kb.indexer = NewIndexerService(kb.store, kb.index, kb.embedder, c, kb.locks, nil)
	return kb
}

func (kb *testKB) add(t *testing.T, docID, text string) *domain.IndexResult {
	t.Helper()
	result, err := kb.indexer.IndexDocument(context.Background(), urlRequest(docID, text))
	require.NoError(t, err)
	return result
}

func urlRequest(docID, text string) driving.IndexRequest {
	return driving.IndexRequest{
		DocID:      docID,
		SourceType: domain.SourceTypeURL,
		SourceRef:  "https://example.com/" + docID,
		Title:      "Doc " + docID,
		Text:       text,
	}
}
