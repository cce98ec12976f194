package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// defaultListLimit bounds list_sources when no limit is given.
const defaultListLimit = 30

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Question string `json:"question" jsonschema:"the question or search text"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default from settings)"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
}

// PassageOutput is one retrieved chunk.
type PassageOutput struct {
	ChunkID   string  `json:"chunk_id"`
	DocID     string  `json:"doc_id"`
	Title     string  `json:"title"`
	SourceRef string  `json:"source_ref"`
	Position  int     `json:"position"`
	Distance  float64 `json:"distance"`
	Text      string  `json:"text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the knowledge base"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default from settings)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput is a document referenced by an answer.
type SourceOutput struct {
	DocID     string `json:"doc_id"`
	Title     string `json:"title"`
	SourceRef string `json:"source_ref"`
}

// ListSourcesInput is the input schema for the list_sources tool.
type ListSourcesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of sources (default 30, 0 or less for the default)"`
}

// ListSourcesOutput is the output schema for the list_sources tool.
type ListSourcesOutput struct {
	Sources []DocumentOutput `json:"sources"`
	Count   int              `json:"count"`
}

// DocumentOutput describes an indexed document.
type DocumentOutput struct {
	ID         string `json:"id"`
	SourceType string `json:"source_type"`
	Title      string `json:"title"`
	SourceRef  string `json:"source_ref"`
	UpdatedAt  string `json:"updated_at"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	ID             string `json:"id" jsonschema:"the document id from list_sources"`
	IncludeContent bool   `json:"include_content,omitempty" jsonschema:"include the full document text"`
}

// GetDocumentOutput is the output schema for the get_document tool.
type GetDocumentOutput struct {
	ID         string `json:"id"`
	SourceType string `json:"source_type"`
	Title      string `json:"title"`
	SourceRef  string `json:"source_ref"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
	Chunks     int    `json:"chunks"`
	Vectors    int    `json:"vectors"`
	InSync     bool   `json:"in_sync"`
	Content    string `json:"content,omitempty"`
}

// AddSourceInput is the input schema for the add_source tool.
type AddSourceInput struct {
	Type    string `json:"type" jsonschema:"one of file, url or youtube"`
	Locator string `json:"locator" jsonschema:"file path, page URL, or YouTube URL or video id"`
	Title   string `json:"title,omitempty" jsonschema:"optional title overriding the extracted one"`
	Async   bool   `json:"async,omitempty" jsonschema:"queue the source and return a job id instead of waiting"`
}

// AddSourceOutput is the output schema for the add_source tool.
type AddSourceOutput struct {
	DocID  string `json:"doc_id,omitempty"`
	Chunks int    `json:"chunks"`
	JobID  string `json:"job_id,omitempty"`
	Status string `json:"status"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Retrieve the passages closest to a question, best first",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the knowledge base, with the sources used",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sources",
		Description: "List indexed sources, most recently added first",
	}, s.handleListSources)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Show a document's metadata and optionally its text",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_source",
		Description: "Add a local file, web page or YouTube video to the knowledge base",
	}, s.handleAddSource)
}

func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	results, err := s.ports.Query.Query(ctx, input.Question, domain.QueryOptions{TopK: input.TopK})
	if err != nil {
		return nil, QueryOutput{}, toolError(err)
	}

	output := QueryOutput{
		Results: make([]PassageOutput, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		output.Results[i] = PassageOutput{
			ChunkID:   r.ChunkID,
			DocID:     r.Metadata.DocID,
			Title:     r.Metadata.Title,
			SourceRef: r.Metadata.SourceRef,
			Position:  r.Metadata.Position,
			Distance:  r.Distance,
			Text:      r.Text,
		}
	}
	return nil, output, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Answer == nil {
		return nil, AskOutput{}, toolError(fmt.Errorf("ask: %w", ErrToolUnavailable))
	}

	answer, err := s.ports.Answer.Ask(ctx, input.Question, domain.QueryOptions{TopK: input.TopK})
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}

	output := AskOutput{
		Answer:  answer.Text,
		Sources: make([]SourceOutput, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{DocID: src.DocID, Title: src.Title, SourceRef: src.SourceRef}
	}
	return nil, output, nil
}

func (s *Server) handleListSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListSourcesInput,
) (*mcp.CallToolResult, ListSourcesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	docs, err := s.ports.Documents.List(ctx, limit)
	if err != nil {
		return nil, ListSourcesOutput{}, toolError(err)
	}

	output := ListSourcesOutput{
		Sources: make([]DocumentOutput, len(docs)),
		Count:   len(docs),
	}
	for i := range docs {
		output.Sources[i] = documentOutput(&docs[i])
	}
	return nil, output, nil
}

func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	details, err := s.ports.Documents.GetDetails(ctx, input.ID)
	if err != nil {
		return nil, GetDocumentOutput{}, toolError(err)
	}

	output := GetDocumentOutput{
		ID:         details.ID,
		SourceType: details.SourceType.String(),
		Title:      details.Title,
		SourceRef:  details.SourceRef,
		CreatedAt:  details.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  details.UpdatedAt.Format(time.RFC3339),
		Chunks:     details.ChunkCount,
		Vectors:    details.VectorCount,
		InSync:     details.InSync(),
	}
	if input.IncludeContent {
		content, err := s.ports.Documents.GetContent(ctx, input.ID)
		if err != nil {
			return nil, GetDocumentOutput{}, toolError(err)
		}
		output.Content = content
	}
	return nil, output, nil
}

func (s *Server) handleAddSource(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddSourceInput,
) (*mcp.CallToolResult, AddSourceOutput, error) {
	if s.ports.Ingest == nil {
		return nil, AddSourceOutput{}, toolError(fmt.Errorf("add_source: %w", ErrToolUnavailable))
	}

	req := domain.IngestRequest{
		SourceType: domain.SourceType(input.Type),
		Locator:    input.Locator,
		Title:      input.Title,
	}
	if !req.SourceType.IsValid() {
		return nil, AddSourceOutput{}, toolError(
			fmt.Errorf("%w: source type %q", domain.ErrUnsupportedType, input.Type))
	}

	if input.Async {
		id, err := s.ports.Ingest.Submit(ctx, req)
		if err != nil {
			return nil, AddSourceOutput{}, toolError(err)
		}
		return nil, AddSourceOutput{JobID: id, Status: string(domain.JobQueued)}, nil
	}

	result, err := s.ports.Ingest.Ingest(ctx, req)
	if err != nil {
		return nil, AddSourceOutput{}, toolError(err)
	}
	return nil, AddSourceOutput{DocID: result.DocID, Chunks: result.Chunks, Status: string(domain.JobDone)}, nil
}

func documentOutput(d *domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:         d.ID,
		SourceType: d.SourceType.String(),
		Title:      d.DisplayTitle(),
		SourceRef:  d.SourceRef,
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
	}
}
