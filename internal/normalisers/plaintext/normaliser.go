// Package plaintext provides the Normaliser for plain text and source
// files. The file extractor also falls back to it for unknown extensions
// whose content looks like text.
package plaintext

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{
		".txt", ".text", ".log", ".rst", ".csv", ".tsv",
		".json", ".yaml", ".yml", ".toml", ".xml", ".ini",
		".go", ".py", ".rs", ".java", ".c", ".h", ".cpp", ".rb",
		".sh", ".sql", ".js", ".jsx", ".ts", ".tsx", ".css",
	}
}

// Normalise decodes raw as UTF-8, dropping invalid sequences and a
// leading byte order mark. It never fails.
func (n *Normaliser) Normalise(_ context.Context, raw []byte) (*domain.NormalisedText, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	return &domain.NormalisedText{Text: strings.ToValidUTF8(string(raw), "")}, nil
}

// LooksLikeText reports whether raw sniffs as text, for deciding whether a
// file with an unknown extension can be ingested.
func LooksLikeText(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	return strings.HasPrefix(http.DetectContentType(raw), "text/")
}
