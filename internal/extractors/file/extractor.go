// Package file extracts text from local files.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/normalisers/docx"
	"github.com/custodia-labs/notebook-cli/internal/normalisers/eml"
	"github.com/custodia-labs/notebook-cli/internal/normalisers/html"
	"github.com/custodia-labs/notebook-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/notebook-cli/internal/normalisers/pdf"
	"github.com/custodia-labs/notebook-cli/internal/normalisers/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// maxFileSize is the largest file read into memory.
const maxFileSize = 256 << 20

// Extractor reads a file and hands it to the normaliser registered for
// its extension. Files with unknown extensions are accepted when their
// content sniffs as text.
type Extractor struct {
	byExt    map[string]driven.Normaliser
	fallback *plaintext.Normaliser
}

// New creates a file extractor with the given normalisers. A later
// normaliser claiming an extension replaces an earlier one.
func New(normalisers ...driven.Normaliser) *Extractor {
	e := &Extractor{
		byExt:    make(map[string]driven.Normaliser),
		fallback: plaintext.New(),
	}
	for _, n := range normalisers {
		for _, ext := range n.SupportedExtensions() {
			e.byExt[strings.ToLower(ext)] = n
		}
	}
	return e
}

// NewDefault creates a file extractor with every built-in normaliser.
func NewDefault() *Extractor {
	return New(
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
		eml.New(),
		pdf.New(),
	)
}

// SourceType returns domain.SourceTypeFile.
func (e *Extractor) SourceType() domain.SourceType {
	return domain.SourceTypeFile
}

// Supports reports whether path has an extension with a registered
// normaliser.
func (e *Extractor) Supports(path string) bool {
	_, ok := e.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract reads the file at locator. The resolved absolute path is both the
// source reference and the ID seed. The title is the one found in the
// content, else the file name.
func (e *Extractor) Extract(ctx context.Context, locator string) (*domain.Extracted, error) {
	out, err := e.extract(ctx, locator)
	if err != nil {
		return nil, domain.NewExtractionError(locator, err)
	}
	return out, nil
}

func (e *Extractor) extract(ctx context.Context, locator string) (*domain.Extracted, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}
	path := domain.ResolvePath(locator)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", domain.ErrInvalidInput, path, maxFileSize)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	normaliser, ok := e.byExt[ext]
	if !ok {
		if !plaintext.LooksLikeText(raw) {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, ext)
		}
		normaliser = e.fallback
	}

	norm, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(norm.Title)
	if title == "" {
		title = filepath.Base(path)
	}

	return &domain.Extracted{
		SourceType: domain.SourceTypeFile,
		SourceRef:  path,
		Seed:       path,
		Title:      title,
		Text:       domain.NormaliseText(norm.Text),
	}, nil
}
