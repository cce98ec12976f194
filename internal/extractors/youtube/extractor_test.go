package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

const videoID = "dQw4w9WgXcQ"

func TestVideoID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", videoID},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=42", videoID},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", videoID},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", videoID},
		{"  dQw4w9WgXcQ ", videoID},
		{"abc", "abc"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, VideoID(tc.input))
		})
	}
}

// fakeYouTube serves watch pages, captions and the Data API.
type fakeYouTube struct {
	mu       sync.Mutex
	captions map[string]string // "lang" or "lang/asr" -> XML
	title    string
	apiTitle string
	apiKey   string
}

func (f *fakeYouTube) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/watch":
		if f.title == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html><head><title>" + f.title + "</title></head><body></body></html>"))
	case r.URL.Path == "/api/timedtext":
		key := r.URL.Query().Get("lang")
		if kind := r.URL.Query().Get("kind"); kind != "" {
			key += "/" + kind
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(f.captions[key]))
	case strings.HasSuffix(r.URL.Path, "/videos"):
		f.mu.Lock()
		f.apiKey = r.URL.Query().Get("key")
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if f.apiTitle == "" {
			_, _ = w.Write([]byte(`{"items":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"` + videoID + `","snippet":{"title":"` + f.apiTitle + `"}}]}`))
	default:
		http.NotFound(w, r)
	}
}

func newExtractor(t *testing.T, fake *fakeYouTube, apiKey string) *Extractor {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:     srv.URL,
		APIKey:      apiKey,
		APIEndpoint: srv.URL + "/",
	})
}

const koCaptions = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0" dur="1.5">안녕하세요</text>
<text start="1.5" dur="2">it&amp;#39;s a test</text>
<text start="3.5" dur="1"> </text>
</transcript>`

const enCaptions = `<transcript><text start="0" dur="1">hello</text></transcript>`

func TestExtract_LanguagePriority(t *testing.T) {
	fake := &fakeYouTube{
		captions: map[string]string{"ko": koCaptions, "en": enCaptions},
		title:    "Never Gonna Give You Up - YouTube",
	}
	e := newExtractor(t, fake, "")

	got, err := e.Extract(context.Background(), "https://youtu.be/"+videoID)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceTypeYouTube, got.SourceType)
	assert.Equal(t, "https://www.youtube.com/watch?v="+videoID, got.SourceRef)
	assert.Equal(t, "Never Gonna Give You Up", got.Title)
	assert.Equal(t, "안녕하세요\nit's a test", got.Text)
	assert.Equal(t, domain.YouTubeDocumentID(videoID), got.DocumentID())
}

func TestExtract_FallsBackToGeneratedThenNextLanguage(t *testing.T) {
	t.Run("generated captions", func(t *testing.T) {
		fake := &fakeYouTube{captions: map[string]string{"ko/asr": enCaptions}}
		got, err := newExtractor(t, fake, "").Extract(context.Background(), videoID)
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Text)
	})

	t.Run("second language", func(t *testing.T) {
		fake := &fakeYouTube{captions: map[string]string{"en": enCaptions}}
		got, err := newExtractor(t, fake, "").Extract(context.Background(), videoID)
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Text)
		assert.Equal(t, "YouTube:"+videoID, got.Title)
	})
}

func TestExtract_APITitle(t *testing.T) {
	fake := &fakeYouTube{
		captions: map[string]string{"en": enCaptions},
		title:    "Page Title - YouTube",
		apiTitle: "API Title",
	}
	got, err := newExtractor(t, fake, "secret").Extract(context.Background(), videoID)
	require.NoError(t, err)
	assert.Equal(t, "API Title", got.Title)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "secret", fake.apiKey)
}

func TestExtract_APIMissFallsBackToWatchPage(t *testing.T) {
	fake := &fakeYouTube{
		captions: map[string]string{"en": enCaptions},
		title:    "Page Title - YouTube",
	}
	got, err := newExtractor(t, fake, "secret").Extract(context.Background(), videoID)
	require.NoError(t, err)
	assert.Equal(t, "Page Title", got.Title)
}

func TestExtract_NoTranscript(t *testing.T) {
	fake := &fakeYouTube{captions: map[string]string{}}
	_, err := newExtractor(t, fake, "").Extract(context.Background(), videoID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.ErrorIs(t, err, ErrNoTranscript)
	assert.Contains(t, err.Error(), "ko,en")
}

func TestExtract_InvalidLocator(t *testing.T) {
	fake := &fakeYouTube{}
	_, err := newExtractor(t, fake, "").Extract(context.Background(), "https://example.com/video")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseTimedText(t *testing.T) {
	segments, err := parseTimedText([]byte("   "))
	require.NoError(t, err)
	assert.Empty(t, segments)

	_, err = parseTimedText([]byte("<transcript><text>"))
	assert.Error(t, err)
}
