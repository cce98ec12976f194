package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown source or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Error taxonomy of the ingestion and retrieval pipeline.

	// ErrInvalidConfig indicates invalid configuration, such as a chunk
	// overlap that is not smaller than the chunk size or a non-positive
	// top_k. It is raised before any I/O and is never retried.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrExtraction indicates an extractor failed to produce text.
	ErrExtraction = errors.New("extraction failed")

	// ErrStorage indicates the metadata store or vector index failed.
	// A partially applied index operation is not rolled back; run repair.
	ErrStorage = errors.New("storage failure")

	// ErrEmbedding indicates the embedding service failed or returned
	// a malformed batch.
	ErrEmbedding = errors.New("embedding failed")

	// ErrEmbeddingMismatch indicates the vector index was built with a
	// different embedding model or dimension than the one configured.
	ErrEmbeddingMismatch = errors.New("embedding identity mismatch")

	// ErrQueueFull indicates the ingestion worker pool is saturated.
	ErrQueueFull = errors.New("ingestion queue full")

	// ErrPoolClosed indicates the worker pool is shutting down.
	ErrPoolClosed = errors.New("worker pool closed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answer generation is disabled; retrieval still works.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// ExtractionError wraps a failure reported by a content extractor.
// It matches ErrExtraction with errors.Is and exposes the cause.
type ExtractionError struct {
	// Locator is what the caller asked to extract.
	Locator string

	// Err is the underlying failure.
	Err error
}

// NewExtractionError returns an ExtractionError for locator.
func NewExtractionError(locator string, err error) *ExtractionError {
	return &ExtractionError{Locator: locator, Err: err}
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Locator, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrExtraction.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// StorageError wraps a failure in one of the two stores during a named step.
type StorageError struct {
	// Step is the pipeline step that failed (for example "vector upsert").
	Step string

	// Err is the underlying failure.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
