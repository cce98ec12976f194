// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question input, answer and references view.
	ViewAsk
	// ViewSources lists indexed documents.
	ViewSources
	// ViewDocument shows a document's details and chunks.
	ViewDocument
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewSources:
		return "sources"
	case ViewDocument:
		return "document"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// AskCompleted carries an answer, or the retrieved context alone when
// no answer model is configured.
type AskCompleted struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// SourcesLoaded carries the indexed documents.
type SourcesLoaded struct {
	Documents []domain.Document
	Err       error
}

// SourceAdded signals an ingestion finished.
type SourceAdded struct {
	Locator string
	Result  *domain.IndexResult
	Err     error
}

// DocumentDeleted signals a document was removed.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// DocumentSelected signals a document was chosen for the document view.
type DocumentSelected struct {
	DocumentID string
}

// DocumentLoaded carries a document's details and chunks.
type DocumentLoaded struct {
	DocumentID string
	Details    *driving.DocumentDetails
	Chunks     []domain.Chunk
	Err        error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
