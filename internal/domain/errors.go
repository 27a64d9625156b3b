package domain

import "errors"

var (
	// ErrEmptyQuery signals a query that is empty after trimming.
	ErrEmptyQuery = errors.New("empty query")
	// ErrInvalidLimit signals a result limit below 1.
	ErrInvalidLimit = errors.New("invalid limit")
	// ErrVectorUnavailable signals that a source cannot perform vector search
	// right now (no capability, missing index or unreachable backend).
	// Distinct from an empty result: callers fall back to lexical search.
	ErrVectorUnavailable = errors.New("vector search unavailable")
	// ErrAllSourcesUnavailable signals that every enabled source failed both
	// search paths; retrieval is impossible, which is not "zero matches".
	ErrAllSourcesUnavailable = errors.New("all sources unavailable")
	// ErrBatchTooLarge signals a duplicate-detection batch above the cap.
	ErrBatchTooLarge = errors.New("batch too large")
	// ErrItemNotFound signals a missing reference item.
	ErrItemNotFound = errors.New("item not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	// Always recovered by degrading to lexical search, never surfaced.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
