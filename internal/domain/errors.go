package domain

import "errors"

var (
	// ErrInvalidRequest signals a request the caller can fix (bad mode, empty query, out-of-range limit).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrSearchBackendError signals a vector store failure.
	ErrSearchBackendError = errors.New("search backend error")
)
