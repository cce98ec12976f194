package cli

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/notebook-cli/internal/app"
	"github.com/custodia-labs/notebook-cli/internal/config"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
	"github.com/custodia-labs/notebook-cli/internal/core/services"
	fileextractor "github.com/custodia-labs/notebook-cli/internal/extractors/file"
	"github.com/custodia-labs/notebook-cli/internal/metrics"
)

type mockDocumentService struct {
	mu        sync.Mutex
	docs      map[string]domain.Document
	chunks    map[string][]domain.Chunk
	vectors   map[string]int
	deleted   []string
	opened    []string
	lastLimit int
	listErr   error
}

func newMockDocumentService(docs ...domain.Document) *mockDocumentService {
	m := &mockDocumentService{
		docs:    make(map[string]domain.Document),
		chunks:  make(map[string][]domain.Chunk),
		vectors: make(map[string]int),
	}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

func (m *mockDocumentService) List(_ context.Context, limit int) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return &d, nil
}

func (m *mockDocumentService) GetChunks(_ context.Context, id string) ([]domain.Chunk, error) {
	return m.chunks[id], nil
}

func (m *mockDocumentService) GetContent(_ context.Context, id string) (string, error) {
	var buf bytes.Buffer
	for i, c := range m.chunks[id] {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(c.Content)
	}
	return buf.String(), nil
}

func (m *mockDocumentService) GetDetails(ctx context.Context, id string) (*driving.DocumentDetails, error) {
	d, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	vectors, ok := m.vectors[id]
	if !ok {
		vectors = len(m.chunks[id])
	}
	return &driving.DocumentDetails{
		ID:          d.ID,
		SourceType:  d.SourceType,
		SourceRef:   d.SourceRef,
		Title:       d.Title,
		ChunkCount:  len(m.chunks[id]),
		VectorCount: vectors,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentService) Open(_ context.Context, id string) error {
	m.opened = append(m.opened, id)
	return nil
}

type mockQueryEngine struct {
	results  []domain.ContextChunk
	err      error
	lastOpts domain.QueryOptions
}

func (m *mockQueryEngine) Query(_ context.Context, _ string, opts domain.QueryOptions) ([]domain.ContextChunk, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockQueryEngine) Context(ctx context.Context, q string, opts domain.QueryOptions) ([]domain.ContextChunk, error) {
	return m.Query(ctx, q, opts)
}

type mockAnswerService struct {
	answer       *domain.Answer
	err          error
	lastQuestion string
	lastOpts     domain.QueryOptions
}

func (m *mockAnswerService) Ask(_ context.Context, q string, opts domain.QueryOptions) (*domain.Answer, error) {
	m.lastQuestion = q
	m.lastOpts = opts
	return m.answer, m.err
}

type mockRepairService struct {
	report   *domain.RepairReport
	lastOpts driving.RepairOptions
}

func (m *mockRepairService) Repair(_ context.Context, opts driving.RepairOptions) (*domain.RepairReport, error) {
	m.lastOpts = opts
	r := *m.report
	r.DryRun = opts.DryRun
	return &r, nil
}

// mockIngestService indexes synchronously into a mockDocumentService.
// Submit rejects work once capacity jobs are outstanding.
type mockIngestService struct {
	mu       sync.Mutex
	docs     *mockDocumentService
	failures map[string]error
	capacity int
	jobs     map[string]domain.IngestRequest
	seq      int
	requests []domain.IngestRequest
}

func newMockIngestService(docs *mockDocumentService) *mockIngestService {
	return &mockIngestService{docs: docs, failures: make(map[string]error), jobs: make(map[string]domain.IngestRequest)}
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IndexResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.index(req)
}

func (m *mockIngestService) index(req domain.IngestRequest) (*domain.IndexResult, error) {
	if err := m.failures[req.Locator]; err != nil {
		return nil, err
	}
	id := domain.DocumentID(req.SourceType.IDPrefix(), req.Locator)
	title := req.Title
	if title == "" {
		title = "Title of " + req.Locator
	}
	ref := req.Locator
	if req.SourceType == domain.SourceTypeYouTube {
		ref = "https://www.youtube.com/watch?v=" + req.Locator
	}
	m.docs.mu.Lock()
	m.docs.docs[id] = domain.Document{ID: id, SourceType: req.SourceType, SourceRef: ref, Title: title}
	m.docs.mu.Unlock()
	return &domain.IndexResult{DocID: id, Chunks: 2}, nil
}

func (m *mockIngestService) Submit(_ context.Context, req domain.IngestRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.capacity > 0 && len(m.jobs) >= m.capacity {
		return "", domain.ErrQueueFull
	}
	m.seq++
	id := fmt.Sprintf("job-%d", m.seq)
	m.jobs[id] = req
	m.requests = append(m.requests, req)
	return id, nil
}

func (m *mockIngestService) Job(id string) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	return domain.Job{ID: id, Name: req.Locator, Status: domain.JobQueued}, nil
}

func (m *mockIngestService) Wait(_ context.Context, id string) (*domain.IndexResult, error) {
	m.mu.Lock()
	req, ok := m.jobs[id]
	delete(m.jobs, id)
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.index(req)
}

// testApp assembles an App from mocks over real settings in a temp dir.
type testApp struct {
	*app.App
	docs   *mockDocumentService
	query  *mockQueryEngine
	answer *mockAnswerService
	repair *mockRepairService
	ingest *mockIngestService
}

func newTestBase(t *testing.T) *app.Base {
	t.Helper()
	dir := t.TempDir()
	paths := config.Paths{Dir: dir, ConfigFile: dir + "/config.toml", PromptDir: dir + "/prompts"}
	store, err := file.NewConfigStore(paths.ConfigFile)
	require.NoError(t, err)
	settings := services.NewSettingsService(store, nil)
	settings.SetEnvLookup(func(string) (string, bool) { return "", false })
	return &app.Base{Paths: paths, ConfigStore: store, Settings: settings}
}

func newTestApp(t *testing.T, docs ...domain.Document) *testApp {
	t.Helper()
	base := newTestBase(t)
	cfg := domain.DefaultSettings()
	cfg.DataDir = t.TempDir()
	cfg.Ingest.UploadsDir = cfg.DataDir + "/uploads"

	ta := &testApp{
		docs:   newMockDocumentService(docs...),
		query:  &mockQueryEngine{},
		answer: &mockAnswerService{},
		repair: &mockRepairService{report: &domain.RepairReport{}},
	}
	ta.ingest = newMockIngestService(ta.docs)
	ta.App = &app.App{
		Base:      base,
		Config:    &cfg,
		Files:     fileextractor.NewDefault(),
		Metrics:   metrics.New(),
		Query:     ta.query,
		Answer:    ta.answer,
		Documents: ta.docs,
		Repair:    ta.repair,
		Ingest:    ta.ingest,
	}
	return ta
}

// run executes the command tree against a and returns combined output.
func run(t *testing.T, a *testApp, args ...string) (string, error) {
	t.Helper()
	var load Loader
	var loadBase BaseLoader
	if a != nil {
		load = func(context.Context, app.Options) (*app.App, error) { return a.App, nil }
		loadBase = func(app.Options) (*app.Base, error) { return a.Base, nil }
	}
	env := NewEnv("1.2.3", load, loadBase)

	var out bytes.Buffer
	root := NewRootCommand(env)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), err
}
