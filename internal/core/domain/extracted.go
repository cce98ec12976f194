package domain

// Extracted is what an extractor hands to the core: a title, a stable
// source reference and normalised plain text.
type Extracted struct {
	// SourceType is the kind of source.
	SourceType SourceType

	// SourceRef is the canonical locator.
	SourceRef string

	// Seed is the string the document ID is derived from.
	// For files it is the absolute path, for URLs the URL and for
	// videos the video ID.
	Seed string

	// Title is the best-effort title. May be empty.
	Title string

	// Text is the extracted plain text.
	Text string
}

// DocumentID returns the content-addressed ID for the extracted source.
func (e *Extracted) DocumentID() string {
	seed := e.Seed
	if seed == "" {
		seed = e.SourceRef
	}
	return DocumentID(e.SourceType.IDPrefix(), seed)
}

// NormalisedText is a normaliser's output for a raw byte payload.
type NormalisedText struct {
	// Title is a title discovered in the content, if any.
	Title string

	// Text is the plain text.
	Text string
}
