package mcp

import (
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server uses.
type Ports struct {
	// Query retrieves context chunks.
	Query driving.QueryEngine

	// Answer generates grounded answers. Optional; the ask tool reports
	// ErrToolUnavailable without it.
	Answer driving.AnswerService

	// Documents lists and reads indexed documents.
	Documents driving.DocumentService

	// Ingest adds sources. Optional; the add_source tool reports
	// ErrToolUnavailable without it.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
