package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/ai/mock"
	"github.com/poiesic/corpus/bm25"
	"github.com/poiesic/corpus/chunker"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	storagebadger "github.com/poiesic/corpus/storage/badger"
)

type failingIndex struct{}

func (failingIndex) Add(ctx context.Context, chunks []*core.Chunk) error {
	return errors.New("index unavailable")
}

func newTestSplitter(t *testing.T) *chunker.Chunker {
	t.Helper()
	c, err := chunker.New(
		chunker.WithChunkSize(100),
		chunker.WithChunkOverlap(20),
		chunker.WithMinChunk(50),
		chunker.WithMaxChunk(200),
	)
	require.NoError(t, err)
	return c
}

func newTestPipeline(t *testing.T, sparse SparseIndex, embedder *mock.MockEmbedder, opts ...Option) (*Pipeline, storage.ChunkRepository) {
	t.Helper()

	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	if sparse == nil {
		idx, err := bm25.New()
		require.NoError(t, err)
		sparse = idx
	}

	provider := mock.NewMockProviderWithEmbedder(embedder)
	opts = append([]Option{WithBatchDelay(0)}, opts...)
	p, err := NewPipeline(repo, sparse, provider, newTestSplitter(t), opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)

	return p, repo
}

func TestNewPipelineValidation(t *testing.T) {
	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	idx, err := bm25.New()
	require.NoError(t, err)
	provider := mock.NewMockProvider()

	t.Run("requires chunk repository", func(t *testing.T) {
		_, err := NewPipeline(nil, idx, provider, nil)
		assert.ErrorIs(t, err, ErrChunkRepositoryRequired)
	})

	t.Run("requires sparse index", func(t *testing.T) {
		_, err := NewPipeline(repo, nil, provider, nil)
		assert.ErrorIs(t, err, ErrSparseIndexRequired)
	})

	t.Run("requires provider", func(t *testing.T) {
		_, err := NewPipeline(repo, idx, nil, nil)
		assert.ErrorIs(t, err, ErrAIProviderRequired)
	})

	t.Run("rejects bad options", func(t *testing.T) {
		_, err := NewPipeline(repo, idx, provider, nil, WithBatchSize(0))
		assert.ErrorIs(t, err, ErrInvalidBatchConfig)
	})
}

func TestIngestDocument(t *testing.T) {
	ctx := context.Background()
	longDoc := strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing elit ", 100)

	t.Run("ingests and indexes a document", func(t *testing.T) {
		idx, err := bm25.New()
		require.NoError(t, err)
		p, repo := newTestPipeline(t, idx, mock.NewMockEmbedder())

		report, err := p.IngestDocument(ctx, longDoc, "doc.txt", "general")
		require.NoError(t, err)
		assert.False(t, report.Skipped)
		assert.Greater(t, report.ChunksTotal, 1)
		assert.Equal(t, report.BatchesTotal, report.BatchesSucceeded)
		assert.Zero(t, report.BatchesFailed)
		assert.Equal(t, report.ChunksTotal, report.ChunksEmbedded)
		assert.Equal(t, report.ChunksTotal, report.ChunksIndexed)

		count, err := repo.CountChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, report.ChunksTotal, count)
		assert.Equal(t, report.ChunksTotal, idx.Stats().TotalDocuments)
	})

	t.Run("vectors are normalized before commit", func(t *testing.T) {
		p, repo := newTestPipeline(t, nil, mock.NewMockEmbedder())

		report, err := p.IngestDocument(ctx, "a short note", "short.txt", "general")
		require.NoError(t, err)
		require.Equal(t, 1, report.ChunksEmbedded)

		var stored *core.Chunk
		require.NoError(t, repo.ForEachChunk(ctx, 10, func(chunks []*core.Chunk) error {
			stored = chunks[0]
			return nil
		}))
		require.NotNil(t, stored)

		var sumSquares float32
		for _, v := range stored.Vector {
			sumSquares += v * v
		}
		assert.InDelta(t, 1.0, sumSquares, 0.001)
	})

	t.Run("reingesting the same source is a no-op", func(t *testing.T) {
		p, repo := newTestPipeline(t, nil, mock.NewMockEmbedder())

		first, err := p.IngestDocument(ctx, longDoc, "dup.txt", "general")
		require.NoError(t, err)
		require.False(t, first.Skipped)

		second, err := p.IngestDocument(ctx, longDoc, "dup.txt", "general")
		require.NoError(t, err)
		assert.True(t, second.Skipped)
		assert.Zero(t, second.ChunksTotal)

		count, err := repo.CountChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.ChunksTotal, count)
	})

	t.Run("empty document yields zero chunks without error", func(t *testing.T) {
		p, repo := newTestPipeline(t, nil, mock.NewMockEmbedder())

		report, err := p.IngestDocument(ctx, "\n\t  ", "empty.txt", "general")
		require.NoError(t, err)
		assert.Zero(t, report.ChunksTotal)

		count, err := repo.CountChunks(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("transient embedding failures are retried", func(t *testing.T) {
		var (
			mu    sync.Mutex
			calls int
		)
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n < 3 {
				return nil, errors.New("provider blip")
			}
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = []float32{1, 0, 0}
			}
			return out, nil
		}

		p, _ := newTestPipeline(t, nil, embedder,
			WithRetry(5, time.Millisecond, 5*time.Millisecond))

		report, err := p.IngestDocument(ctx, "a short note", "retry.txt", "general")
		require.NoError(t, err)
		assert.Equal(t, 1, report.BatchesSucceeded)
		assert.Zero(t, report.BatchesFailed)
		assert.Equal(t, 3, calls)
	})

	t.Run("one failed batch does not abort the others", func(t *testing.T) {
		var (
			mu    sync.Mutex
			calls int
		)
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			mu.Lock()
			calls++
			first := calls == 1
			mu.Unlock()
			if first {
				return nil, errors.New("provider down")
			}
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = []float32{1, 0, 0}
			}
			return out, nil
		}

		idx, err := bm25.New()
		require.NoError(t, err)
		p, repo := newTestPipeline(t, idx, embedder,
			WithBatchSize(1),
			WithRetry(1, time.Millisecond, time.Millisecond))

		report, err := p.IngestDocument(ctx, longDoc, "partial.txt", "general")
		require.NoError(t, err)
		require.Greater(t, report.BatchesTotal, 1)
		assert.Equal(t, 1, report.BatchesFailed)
		assert.Equal(t, report.BatchesTotal-1, report.BatchesSucceeded)
		assert.Equal(t, report.ChunksEmbedded, report.ChunksIndexed)

		count, err := repo.CountChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, report.ChunksEmbedded, count)
	})

	t.Run("sparse index failure is best-effort", func(t *testing.T) {
		p, repo := newTestPipeline(t, failingIndex{}, mock.NewMockEmbedder())

		report, err := p.IngestDocument(ctx, longDoc, "sparse.txt", "general")
		require.NoError(t, err)
		assert.Equal(t, report.BatchesTotal, report.BatchesSucceeded)
		assert.Zero(t, report.ChunksIndexed)

		count, err := repo.CountChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, report.ChunksEmbedded, count)
	})
}
