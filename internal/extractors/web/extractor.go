// Package web extracts readable text from web pages.
package web

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/extractors"
	"github.com/custodia-labs/notebook-cli/internal/normalisers/html"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor fetches a page over HTTP(S) and keeps its main text.
type Extractor struct {
	fetcher *extractors.Fetcher
}

// New creates a web extractor.
func New(cfg extractors.FetchConfig) *Extractor {
	return &Extractor{fetcher: extractors.NewFetcher(cfg)}
}

// SourceType returns domain.SourceTypeURL.
func (e *Extractor) SourceType() domain.SourceType {
	return domain.SourceTypeURL
}

// Extract fetches locator. HTML is reduced to the text of its main
// content with <title> as the title; other text/* bodies are kept
// verbatim. The URL as given is the source reference, and also the title
// when the page has none.
func (e *Extractor) Extract(ctx context.Context, locator string) (*domain.Extracted, error) {
	out, err := e.extract(ctx, strings.TrimSpace(locator))
	if err != nil {
		return nil, domain.NewExtractionError(locator, err)
	}
	return out, nil
}

func (e *Extractor) extract(ctx context.Context, locator string) (*domain.Extracted, error) {
	if err := validateURL(locator); err != nil {
		return nil, err
	}

	resp, err := e.fetcher.Get(ctx, locator)
	if err != nil {
		return nil, err
	}

	title, text, err := render(resp)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = locator
	}

	return &domain.Extracted{
		SourceType: domain.SourceTypeURL,
		SourceRef:  locator,
		Seed:       locator,
		Title:      title,
		Text:       domain.NormaliseText(text),
	}, nil
}

func validateURL(locator string) error {
	u, err := url.Parse(locator)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q is not an http(s) URL", domain.ErrInvalidInput, locator)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", domain.ErrInvalidInput, locator)
	}
	return nil
}

func render(resp *extractors.Response) (title, text string, err error) {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(resp.Body)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/html"
	}

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		page, err := html.Extract(bytes.NewReader(resp.Body))
		if err != nil {
			return "", "", err
		}
		return page.Title, page.Text, nil
	case strings.HasPrefix(mediaType, "text/"):
		return "", strings.ToValidUTF8(string(resp.Body), ""), nil
	default:
		return "", "", fmt.Errorf("%w: content type %q", domain.ErrUnsupportedType, mediaType)
	}
}
