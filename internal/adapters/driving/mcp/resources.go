package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

const (
	uriScheme      = "notebook://"
	documentsRoot  = uriScheme + "documents/"
	infoSuffix     = "info"
	mimeJSON       = "application/json"
	mimePlainText  = "text/plain"
	sourcesURI     = uriScheme + "sources"
	contentPattern = documentsRoot + "{id}"
	infoPattern    = documentsRoot + "{id}/" + infoSuffix
)

// DocumentInfo is the notebook://documents/{id}/info resource.
type DocumentInfo struct {
	DocumentOutput
	CreatedAt  string `json:"created_at"`
	Chunks     int    `json:"chunks"`
	Vectors    int    `json:"vectors"`
	InSync     bool   `json:"in_sync"`
	RepairHint string `json:"repair_hint,omitempty"`
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         sourcesURI,
		Name:        "sources",
		Description: "Indexed sources, most recently added first",
		MIMEType:    mimeJSON,
	}, s.readSources)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: contentPattern,
		Name:        "document-content",
		Description: "Text of an indexed document, reassembled from its chunks",
		MIMEType:    mimePlainText,
	}, s.readDocumentContent)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: infoPattern,
		Name:        "document-info",
		Description: "Metadata of an indexed document with chunk and vector counts",
		MIMEType:    mimeJSON,
	}, s.readDocumentInfo)
}

func (s *Server) readSources(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Documents.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	out := make([]DocumentOutput, len(docs))
	for i := range docs {
		out[i] = documentOutput(&docs[i])
	}
	return jsonResult(req.Params.URI, out)
}

func (s *Server) readDocumentContent(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id, suffix := parseDocumentURI(req.Params.URI)
	if id == "" || suffix != "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	content, err := s.ports.Documents.GetContent(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document content: %w", err)
	}
	return textResult(req.Params.URI, mimePlainText, content), nil
}

func (s *Server) readDocumentInfo(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id, suffix := parseDocumentURI(req.Params.URI)
	if id == "" || suffix != infoSuffix {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	d, err := s.ports.Documents.GetDetails(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document details: %w", err)
	}

	info := DocumentInfo{
		DocumentOutput: documentOutput(&domain.Document{
			ID:         d.ID,
			SourceType: d.SourceType,
			SourceRef:  d.SourceRef,
			Title:      d.Title,
			UpdatedAt:  d.UpdatedAt,
		}),
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		Chunks:    d.ChunkCount,
		Vectors:   d.VectorCount,
		InSync:    d.InSync(),
	}
	if !info.InSync {
		info.RepairHint = "run `notebook repair --doc " + d.ID + "`"
	}
	return jsonResult(req.Params.URI, info)
}

// parseDocumentURI splits notebook://documents/{id}[/{suffix}]. The id is
// empty when uri is not a document URI.
func parseDocumentURI(uri string) (id, suffix string) {
	rest, ok := strings.CutPrefix(uri, documentsRoot)
	if !ok {
		return "", ""
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return parts[0], ""
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1]
	}
	return "", ""
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return textResult(uri, mimeJSON, string(data)), nil
}

func textResult(uri, mime, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mime, Text: text}},
	}
}
