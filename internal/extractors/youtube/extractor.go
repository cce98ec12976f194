// Package youtube extracts transcripts from YouTube videos.
package youtube

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	stdhtml "html"
	"net/url"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/extractors"
	"github.com/custodia-labs/notebook-cli/internal/logger"
	"github.com/custodia-labs/notebook-cli/internal/normalisers/html"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	// DefaultBaseURL serves watch pages and the timedtext endpoint.
	DefaultBaseURL = "https://www.youtube.com"

	titleSuffix = " - YouTube"
)

// DefaultLanguages is the caption language priority.
var DefaultLanguages = []string{"ko", "en"}

// ErrNoTranscript is returned when a video has no captions in any of the
// configured languages.
var ErrNoTranscript = errors.New("no transcript available")

// Config configures the YouTube extractor.
type Config struct {
	// Fetch configures page and caption fetches.
	Fetch extractors.FetchConfig

	// APIKey enables title lookup through the YouTube Data API.
	APIKey string

	// APIEndpoint overrides the Data API endpoint.
	APIEndpoint string

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// Languages lists caption languages in priority order.
	Languages []string
}

// Extractor fetches a video's title and caption track.
type Extractor struct {
	fetcher   *extractors.Fetcher
	baseURL   string
	languages []string
	apiKey    string
	endpoint  string
}

// New creates a YouTube extractor.
func New(cfg Config) *Extractor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = DefaultLanguages
	}
	return &Extractor{
		fetcher:   extractors.NewFetcher(cfg.Fetch),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		languages: cfg.Languages,
		apiKey:    cfg.APIKey,
		endpoint:  cfg.APIEndpoint,
	}
}

// SourceType returns domain.SourceTypeYouTube.
func (e *Extractor) SourceType() domain.SourceType {
	return domain.SourceTypeYouTube
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`v=([\w-]{11})`),
	regexp.MustCompile(`youtu\.be/([\w-]{11})`),
	regexp.MustCompile(`shorts/([\w-]{11})`),
}

// VideoID returns the 11 character video ID in locator. Input matching
// none of the known URL shapes is taken to be the ID itself.
func VideoID(locator string) string {
	locator = strings.TrimSpace(locator)
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(locator); m != nil {
			return m[1]
		}
	}
	return locator
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// Extract resolves the video ID, looks up the title and joins the caption
// segments with newlines. The video ID seeds the document ID.
func (e *Extractor) Extract(ctx context.Context, locator string) (*domain.Extracted, error) {
	out, err := e.extract(ctx, locator)
	if err != nil {
		return nil, domain.NewExtractionError(locator, err)
	}
	return out, nil
}

func (e *Extractor) extract(ctx context.Context, locator string) (*domain.Extracted, error) {
	id := VideoID(locator)
	if id == "" || strings.ContainsAny(id, " /?&") {
		return nil, fmt.Errorf("%w: no video id in %q", domain.ErrInvalidInput, locator)
	}

	text, err := e.transcript(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.Extracted{
		SourceType: domain.SourceTypeYouTube,
		SourceRef:  WatchURL(id),
		Seed:       id,
		Title:      e.title(ctx, id),
		Text:       domain.NormaliseText(text),
	}, nil
}

// title tries the Data API, then the watch page, then a placeholder.
// Lookup failures are logged and never fail the extraction.
func (e *Extractor) title(ctx context.Context, id string) string {
	if e.apiKey != "" {
		title, err := e.apiTitle(ctx, id)
		if err == nil && title != "" {
			return title
		}
		if err != nil {
			logger.Warn("youtube api title lookup for %s: %v", id, err)
		}
	}

	resp, err := e.fetcher.Get(ctx, e.baseURL+"/watch?v="+url.QueryEscape(id))
	if err == nil {
		if page, perr := html.Extract(bytes.NewReader(resp.Body)); perr == nil {
			if title := strings.TrimSpace(strings.TrimSuffix(page.Title, titleSuffix)); title != "" {
				return title
			}
		}
	} else {
		logger.Debug("youtube watch page for %s: %v", id, err)
	}

	return "YouTube:" + id
}

func (e *Extractor) apiTitle(ctx context.Context, id string) (string, error) {
	opts := []option.ClientOption{option.WithAPIKey(e.apiKey)}
	if e.endpoint != "" {
		opts = append(opts, option.WithEndpoint(e.endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create youtube service: %w", err)
	}

	resp, err := svc.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", fmt.Errorf("video %s: %w", id, domain.ErrNotFound)
	}
	return resp.Items[0].Snippet.Title, nil
}

// timedText is the caption document served by the timedtext endpoint.
type timedText struct {
	Segments []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

// transcript returns the first non-empty caption track, trying uploaded
// captions before generated ones for each language in turn.
func (e *Extractor) transcript(ctx context.Context, id string) (string, error) {
	var lastErr error
	for _, lang := range e.languages {
		for _, kind := range []string{"", "asr"} {
			q := url.Values{"v": {id}, "lang": {lang}}
			if kind != "" {
				q.Set("kind", kind)
			}
			resp, err := e.fetcher.Get(ctx, e.baseURL+"/api/timedtext?"+q.Encode())
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, domain.ErrRateLimited) {
					return "", err
				}
				lastErr = err
				continue
			}

			segments, err := parseTimedText(resp.Body)
			if err != nil {
				lastErr = err
				continue
			}
			if len(segments) > 0 {
				return strings.Join(segments, "\n"), nil
			}
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w for %s (languages %s): %w",
			ErrNoTranscript, id, strings.Join(e.languages, ","), lastErr)
	}
	return "", fmt.Errorf("%w for %s (languages %s)", ErrNoTranscript, id, strings.Join(e.languages, ","))
}

func parseTimedText(body []byte) ([]string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse captions: %w", err)
	}

	segments := make([]string, 0, len(doc.Segments))
	for _, s := range doc.Segments {
		// Caption text is HTML-escaped inside the XML.
		text := strings.TrimSpace(stdhtml.UnescapeString(s.Text))
		if text != "" {
			segments = append(segments, text)
		}
	}
	return segments, nil
}
