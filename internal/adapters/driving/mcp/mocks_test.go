package mcp

import (
	"context"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
)

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
	answer *domain.Answer
	err    error
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, _ domain.QueryOptions) (*domain.Answer, error) {
	return m.answer, m.err
}

type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	chunks    []domain.Chunk
	content   string
	details   *driving.DocumentDetails
	err       error
	lastLimit int
}

func (m *mockDocumentService) List(_ context.Context, limit int) ([]domain.Document, error) {
	m.lastLimit = limit
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	return m.details, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) Open(_ context.Context, _ string) error {
	return m.err
}

type mockIngestService struct {
	result  *domain.IndexResult
	jobID   string
	err     error
	lastReq domain.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IndexResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockIngestService) Submit(_ context.Context, req domain.IngestRequest) (string, error) {
	m.lastReq = req
	return m.jobID, m.err
}

func (m *mockIngestService) Job(id string) (domain.Job, error) {
	return domain.Job{ID: id, Status: domain.JobQueued}, m.err
}

func (m *mockIngestService) Wait(_ context.Context, _ string) (*domain.IndexResult, error) {
	return m.result, m.err
}
