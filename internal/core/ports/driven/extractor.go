package driven

import (
	"context"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// Extractor turns a locator (path, URL, video URL) into a title, a
// canonical source reference and plain text. Failures are returned as
// *domain.ExtractionError and are never retried by the core.
type Extractor interface {
	// SourceType returns the kind of source this extractor handles.
	SourceType() domain.SourceType

	// Extract fetches and converts the content at locator.
	Extract(ctx context.Context, locator string) (*domain.Extracted, error)
}
