package driven

import "github.com/custodia-labs/notebook-cli/internal/core/domain"

// Chunker splits a document's normalised text into ordered chunks.
// Output must be deterministic for a given text and configuration.
type Chunker interface {
	// Chunk returns the chunks of text owned by docID.
	// Empty or whitespace-only text yields no chunks and no error.
	Chunk(docID, text string) ([]domain.Chunk, error)

	// Settings returns the window parameters in use.
	Settings() domain.ChunkingSettings
}
