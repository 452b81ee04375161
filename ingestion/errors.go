package ingestion

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrSparseIndexRequired is returned when a sparse index is not provided.
	ErrSparseIndexRequired = errors.New("sparse index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidMaxAttempts is returned when retry is configured with a non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")

	// ErrInvalidRateLimit is returned when the rate limiter is configured with a non-positive quota or window.
	ErrInvalidRateLimit = errors.New("rate limit and window must be greater than zero")

	// ErrInvalidBatchConfig is returned when batching parameters are non-positive.
	ErrInvalidBatchConfig = errors.New("invalid batch configuration")
)
