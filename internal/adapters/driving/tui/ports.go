// Package tui provides an interactive terminal user interface for the notebook.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Query retrieves passages for a question.
	Query driving.QueryEngine

	// Answer generates answers. Optional: without it the ask view shows
	// retrieved passages only.
	Answer driving.AnswerService

	// Documents lists, shows and removes indexed documents.
	Documents driving.DocumentService

	// Ingest adds new sources. Optional.
	Ingest driving.IngestService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryEngine
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
