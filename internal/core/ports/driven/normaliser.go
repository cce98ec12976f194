package driven

import (
	"context"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// Normaliser converts raw bytes of one file format into plain text.
// The file extractor selects a normaliser by extension.
type Normaliser interface {
	// SupportedExtensions returns lower-case file extensions including the dot.
	SupportedExtensions() []string

	// Normalise converts raw into text and an optional title.
	Normalise(ctx context.Context, raw []byte) (*domain.NormalisedText, error)
}
