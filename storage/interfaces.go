package storage

import (
	"context"

	"github.com/poiesic/corpus/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ChunkRepository provides operations for managing document chunks and
// their embedding vectors. It is the dense retrieval leg of the engine:
// embedded chunks are committed here and queried back by vector
// similarity.
type ChunkRepository interface {
	Repository

	// AddChunks adds one or more chunks to storage.
	// Chunk IDs are content-based and assigned by the chunker; a chunk
	// whose ID is already present is overwritten with identical data,
	// which keeps ingestion writes at-least-once safe.
	// Sets InsertedAt on each chunk and records the chunk's source
	// file name in the source index.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// HasSource reports whether any chunks for the given source file
	// name have been committed. Used as the ingestion dedup guard.
	HasSource(ctx context.Context, fileName string) (bool, error)

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// ForEachChunk streams all stored chunks in batches of batchSize.
	// Used to rebuild the sparse index from committed state.
	// Iteration stops on the first error returned by fn.
	ForEachChunk(ctx context.Context, batchSize int, fn func(chunks []*core.Chunk) error) error

	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.Match, error)
}
