// Package extractors contains the content extractors that turn a locator
// into plain text for the indexer, and the helpers they share.
//
// Each subpackage implements driven.Extractor for one source type:
//
//   - file: local files, dispatched by extension to the normalisers
//   - web: HTTP(S) pages
//   - youtube: video transcripts
//
// Extractors never retry. A failure is returned as *domain.ExtractionError.
package extractors
