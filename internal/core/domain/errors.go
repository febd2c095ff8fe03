package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown extractor or provider type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrForbidden indicates the caller does not own the entity.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates the entity changed while it was being written.
	ErrConflict = errors.New("conflict")

	// Retrieval Errors.

	// ErrDimensionMismatch indicates paragraph and embedding counts disagree
	// or an embedding does not have EmbeddingDimensions values.
	// Callers must not retry with the same input.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrStorage indicates the persistence layer failed.
	// Callers may retry with backoff.
	ErrStorage = errors.New("storage error")

	// ErrEmbeddingBackend indicates a pluggable embedding model failed.
	// It is fatal for the call that observed it.
	ErrEmbeddingBackend = errors.New("embedding backend error")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the delegated vector index cannot serve requests.
	// Similarity queries fall back to the exact scan.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
