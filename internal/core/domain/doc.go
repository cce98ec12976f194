// Package domain defines the core business entities for the notebook.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source that has been ingested into the knowledge base
//   - Chunk: A positioned window of a document's normalised text
//   - VectorRecord: The embedded projection of a chunk
//   - Extracted: Text handed to the core by an extractor
//
// Identity and text normalisation also live here, because every other
// layer must agree on them byte for byte.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
