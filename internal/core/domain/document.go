package domain

import (
	"math"
	"strings"
	"time"
)

// SourceType identifies where a document came from.
type SourceType string

// Supported source types.
const (
	// SourceTypeFile is a local file (uploaded or on disk).
	SourceTypeFile SourceType = "file"

	// SourceTypeURL is a web page.
	SourceTypeURL SourceType = "url"

	// SourceTypeYouTube is a video transcript.
	SourceTypeYouTube SourceType = "youtube"
)

// IsValid returns true if the source type is recognised.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypeFile, SourceTypeURL, SourceTypeYouTube:
		return true
	default:
		return false
	}
}

// IDPrefix returns the tag prepended to document ids of this type.
func (t SourceType) IDPrefix() string {
	switch t {
	case SourceTypeFile:
		return "file"
	case SourceTypeURL:
		return "url"
	case SourceTypeYouTube:
		return "yt"
	default:
		return string(t)
	}
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// AllSourceTypes returns every supported source type.
func AllSourceTypes() []SourceType {
	return []SourceType{SourceTypeFile, SourceTypeURL, SourceTypeYouTube}
}

// DetectSourceType guesses the source type of a free-form locator.
// YouTube links are videos, other http(s) links are web pages and
// anything else is a file path.
func DetectSourceType(locator string) SourceType {
	l := strings.ToLower(strings.TrimSpace(locator))
	if !strings.HasPrefix(l, "http://") && !strings.HasPrefix(l, "https://") {
		return SourceTypeFile
	}
	host := strings.TrimPrefix(strings.TrimPrefix(l, "http://"), "https://")
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(strings.TrimPrefix(host, "www."), "m.")
	if host == "youtube.com" || host == "youtu.be" || host == "music.youtube.com" {
		return SourceTypeYouTube
	}
	return SourceTypeURL
}

// Document represents an ingested source.
// At most one Document exists per ID; re-ingesting the same source
// updates it in place.
type Document struct {
	// ID is the content-addressed identifier derived from the source seed.
	ID string

	// SourceType is the kind of source.
	SourceType SourceType

	// SourceRef is the canonical locator (absolute path, URL or canonical video URL).
	SourceRef string

	// Title is the human-readable title. May be empty.
	Title string

	// CreatedAt is when the document was first indexed.
	// Re-indexing never changes it.
	CreatedAt time.Time

	// UpdatedAt is when the document was last upserted.
	UpdatedAt time.Time
}

// DisplayTitle returns the title, or a placeholder when none is known.
func (d Document) DisplayTitle() string {
	if d.Title == "" {
		return "untitled"
	}
	return d.Title
}

// Chunk represents a positioned window of a document's text.
type Chunk struct {
	// ID is "{doc_id}__{position}".
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Content is the chunk's literal text, non-empty after trimming.
	Content string

	// Position is the zero-based order within the document.
	Position int
}

// ChunkMetadata is the denormalised provenance attached to every vector
// so that query results need no join against the metadata store.
type ChunkMetadata struct {
	DocID      string     `json:"doc_id"`
	Title      string     `json:"title"`
	SourceType SourceType `json:"source_type"`
	SourceRef  string     `json:"source_ref"`
	Position   int        `json:"position"`
}

// NewChunkMetadata builds the vector metadata for a chunk of doc.
func NewChunkMetadata(doc *Document, position int) ChunkMetadata {
	return ChunkMetadata{
		DocID:      doc.ID,
		Title:      doc.Title,
		SourceType: doc.SourceType,
		SourceRef:  doc.SourceRef,
		Position:   position,
	}
}

// VectorRecord is a chunk's entry in the vector index, keyed by chunk ID.
type VectorRecord struct {
	// ID is the chunk ID.
	ID string

	// Embedding is the unit-normalised vector.
	Embedding []float32

	// Content is the chunk text.
	Content string

	// Metadata is the denormalised provenance.
	Metadata ChunkMetadata
}

// CosineDistance returns 1 - cos(a, b). Vectors of different length or
// zero magnitude are maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
