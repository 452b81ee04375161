package badger

import (
	"context"
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunk(fileName string, ordinal int, text string, vector []float32) *core.Chunk {
	return &core.Chunk{
		Id:      core.ChunkID(fileName, ordinal, text),
		Text:    text,
		Ordinal: ordinal,
		Metadata: map[string]string{
			core.MetaFileName: fileName,
			core.MetaCategory: "general",
			core.MetaSource:   "test",
		},
		Vector: vector,
	}
}

func TestAddChunks(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	t.Run("add and get", func(t *testing.T) {
		chunk := newTestChunk("a.txt", 0, "first chunk of a", []float32{1, 0, 0})
		require.NoError(t, repo.AddChunks(ctx, chunk))
		assert.False(t, chunk.InsertedAt.IsZero())

		got, err := repo.GetChunk(ctx, chunk.Id)
		require.NoError(t, err)
		assert.Equal(t, chunk.Id, got.Id)
		assert.Equal(t, chunk.Text, got.Text)
		assert.Equal(t, chunk.Metadata, got.Metadata)
		assert.Equal(t, chunk.Vector, got.Vector)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		require.NoError(t, repo.AddChunks(ctx))
	})

	t.Run("invalid chunk rejected", func(t *testing.T) {
		err := repo.AddChunks(ctx, &core.Chunk{Text: ""})
		assert.ErrorIs(t, err, core.ErrInvalidChunk)
	})

	t.Run("rewriting same id is idempotent", func(t *testing.T) {
		chunk := newTestChunk("b.txt", 0, "chunk of b", []float32{0, 1, 0})
		require.NoError(t, repo.AddChunks(ctx, chunk))
		before, err := repo.CountChunks(ctx)
		require.NoError(t, err)

		require.NoError(t, repo.AddChunks(ctx, chunk))
		after, err := repo.CountChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestGetChunk_NotFound(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	_, err = repo.GetChunk(context.Background(), core.ID(12345))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetChunks_SkipsMissing(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	chunk := newTestChunk("a.txt", 0, "only stored chunk", nil)
	require.NoError(t, repo.AddChunks(ctx, chunk))

	chunks, err := repo.GetChunks(ctx, chunk.Id, core.ID(99999))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, chunk.Id, chunks[0].Id)
}

func TestHasSource(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	found, err := repo.HasSource(ctx, "report.txt")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.AddChunks(ctx, newTestChunk("report.txt", 0, "report body", nil)))

	found, err = repo.HasSource(ctx, "report.txt")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.HasSource(ctx, "other.txt")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindSimilar_OrderingAndThreshold(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	chunks := []*core.Chunk{
		newTestChunk("a.txt", 0, "close match", []float32{0.9, 0.1, 0}),
		newTestChunk("a.txt", 1, "best match", []float32{1, 0, 0}),
		newTestChunk("a.txt", 2, "far away", []float32{0, 0, 1}),
	}
	require.NoError(t, repo.AddChunks(ctx, chunks...))

	matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "best match", matches[0].Chunk.Text)
	assert.Equal(t, "close match", matches[1].Chunk.Text)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestFindSimilar_Limit(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.AddChunks(ctx, newTestChunk("a.txt", i, string(rune('a'+i))+" text", []float32{1, 0, 0})))
	}

	matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 3)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestForEachChunk(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	for i := 0; i < 7; i++ {
		require.NoError(t, repo.AddChunks(ctx, newTestChunk("a.txt", i, string(rune('a'+i))+" body", nil)))
	}

	var seen int
	var batches int
	err = repo.ForEachChunk(ctx, 3, func(chunks []*core.Chunk) error {
		batches++
		seen += len(chunks)
		assert.LessOrEqual(t, len(chunks), 3)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, seen)
	assert.Equal(t, 3, batches)
}

func TestCountChunks(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	count, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, repo.AddChunks(ctx,
		newTestChunk("a.txt", 0, "one", nil),
		newTestChunk("a.txt", 1, "two", nil),
	))

	count, err = repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
