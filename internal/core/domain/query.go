package domain

// QueryOptions configures a retrieval query.
type QueryOptions struct {
	// TopK is the maximum number of chunks to return.
	// Zero selects the configured default; negative values are invalid.
	TopK int
}

// ContextChunk is one retrieved chunk with its provenance.
type ContextChunk struct {
	// ChunkID identifies the chunk.
	ChunkID string

	// Text is the chunk's literal text.
	Text string

	// Metadata is the provenance stored alongside the vector.
	Metadata ChunkMetadata

	// Distance is the vector distance to the question. Lower is closer.
	Distance float64
}

// Source is a distinct document referenced by an answer.
type Source struct {
	DocID     string
	Title     string
	SourceRef string
}

// Answer is a generated response grounded in retrieved context.
type Answer struct {
	// Text is the model's response.
	Text string

	// Context is the chunks the answer was grounded on, best first.
	Context []ContextChunk

	// Sources lists the referenced documents in first-seen order.
	Sources []Source
}

// SourcesFromContext returns the distinct documents behind ctx,
// preserving first-seen order.
func SourcesFromContext(ctx []ContextChunk) []Source {
	seen := make(map[string]struct{}, len(ctx))
	var sources []Source
	for _, c := range ctx {
		key := c.Metadata.DocID
		if key == "" {
			key = c.Metadata.SourceRef
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		sources = append(sources, Source{
			DocID:     c.Metadata.DocID,
			Title:     c.Metadata.Title,
			SourceRef: c.Metadata.SourceRef,
		})
	}
	return sources
}

// IndexResult reports the outcome of indexing a single document.
type IndexResult struct {
	// DocID is the indexed document.
	DocID string

	// Chunks is the number of chunks now stored for the document.
	Chunks int

	// Replaced is the number of previous vector entries removed.
	Replaced int
}

// RepairReport summarises a reconciliation pass between the two stores.
type RepairReport struct {
	// Documents is the number of documents inspected.
	Documents int

	// Orphans is the number of vector entries with no metadata chunk.
	Orphans int

	// Missing is the number of metadata chunks with no vector entry.
	Missing int

	// Rebuilt is the number of vector entries written.
	Rebuilt int

	// DryRun is true when nothing was written.
	DryRun bool
}

// Consistent returns true if the pass found nothing to fix.
func (r RepairReport) Consistent() bool {
	return r.Orphans == 0 && r.Missing == 0
}
