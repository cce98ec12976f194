package extractors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

// Fetch defaults.
const (
	DefaultTimeout     = 20 * time.Second
	DefaultUserAgent   = "Mozilla/5.0 (compatible; notebook/1.0; +https://github.com/custodia-labs/notebook-cli)"
	DefaultMaxBodySize = 20 << 20
)

// ErrBodyTooLarge is returned when a response exceeds the configured
// MaxBodySize. Nothing of the body is kept.
var ErrBodyTooLarge = errors.New("response body too large")

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	// Timeout bounds a single request. Zero uses DefaultTimeout.
	Timeout time.Duration

	// RequestsPerSecond throttles requests. Zero disables throttling.
	RequestsPerSecond float64

	// UserAgent is sent with every request. Empty uses DefaultUserAgent.
	UserAgent string

	// MaxBodySize is the largest body accepted; longer bodies fail with
	// ErrBodyTooLarge. Zero uses DefaultMaxBodySize.
	MaxBodySize int64

	// HTTPClient overrides the client. Its Timeout is left untouched.
	HTTPClient *http.Client
}

// Fetcher performs throttled HTTP GETs. Redirects are followed.
type Fetcher struct {
	client    *http.Client
	limiter   *RateLimiter
	userAgent string
	maxBody   int64
}

// NewFetcher creates a Fetcher from cfg.
func NewFetcher(cfg FetchConfig) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		client:    client,
		limiter:   NewRateLimiter(cfg.RequestsPerSecond, 1),
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodySize,
	}
}

// Response is a fetched body.
type Response struct {
	// URL is the final URL after redirects.
	URL string

	// ContentType is the Content-Type header.
	ContentType string

	// Body is the complete response body.
	Body []byte
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// Get fetches url. A 429 answer records a backoff and returns an error
// wrapping domain.ErrRateLimited.
func (f *Fetcher) Get(ctx context.Context, url string) (*Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en;q=0.9,*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		f.limiter.RecordRateLimit(resp)
		return nil, fmt.Errorf("GET %s: %w", url, domain.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("GET %s: %w: limit is %d bytes", url, ErrBodyTooLarge, f.maxBody)
	}

	return &Response{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
