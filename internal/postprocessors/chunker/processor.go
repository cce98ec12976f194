// Package chunker splits normalised document text into overlapping
// fixed-size windows.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Split cuts text into windows of size characters, consecutive windows
// sharing overlap characters. Each window is trimmed and dropped if
// nothing remains. Sizes are counted in runes, so text should be valid
// UTF-8: an invalid byte would come back as U+FFFD. domain.NormaliseText
// makes that replacement before indexing.
//
// The cursor moves to end-overlap after each window but always advances
// by at least one rune. Splitting stops once a window reaches the end.
func Split(text string, size, overlap int) ([]string, error) {
	if err := (domain.ChunkingSettings{Size: size, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	chunks := make([]string, 0, n/(size-overlap)+1)
	start := 0
	for start < n {
		end := start + size
		if end > n {
			end = n
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			chunks = append(chunks, piece)
		}
		if end == n {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks, nil
}

// Processor turns a document's text into positioned chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

var _ driven.Chunker = (*Processor)(nil)

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker. It fails with domain.ErrInvalidConfig if the
// resulting size is not greater than the overlap.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.Settings().Validate(); err != nil {
		return nil, fmt.Errorf("configuring chunker: %w", err)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Settings returns the window parameters in use.
func (p *Processor) Settings() domain.ChunkingSettings {
	return domain.ChunkingSettings{Size: p.chunkSize, Overlap: p.overlap}
}

// Chunk splits text into chunks owned by docID. Positions follow output
// order and chunk IDs are "{docID}__{position}".
func (p *Processor) Chunk(docID, text string) ([]domain.Chunk, error) {
	pieces, err := Split(text, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(docID, i),
			DocumentID: docID,
			Content:    piece,
			Position:   i,
		}
	}
	return chunks, nil
}
