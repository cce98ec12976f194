// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - MetadataStore: Relational record of documents and chunks (SQLite)
//   - VectorIndex: Chunk embeddings keyed by chunk ID
//   - EmbeddingService: Turns text into unit-normalised vectors
//   - Chunker: Splits normalised text into positioned chunks
//   - Extractor: Produces title, source reference and text for a locator
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, only retrieval is available.
//   - PromptStore: Custom prompt templates. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or normaliser package
package driven
