package domain

import "errors"

var (
	// ErrCreatorNotFound signals a missing creator record.
	ErrCreatorNotFound = errors.New("creator not found")
	// ErrInvalidRequest signals malformed query parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
