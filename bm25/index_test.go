package bm25

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/core"
)

func testChunk(t *testing.T, ordinal int, text string) *core.Chunk {
	t.Helper()
	return &core.Chunk{
		Id:      core.ChunkID("bm25_test.txt", ordinal, text),
		Text:    text,
		Ordinal: ordinal,
		Metadata: map[string]string{
			core.MetaFileName: "bm25_test.txt",
		},
	}
}

func TestIndexOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		idx, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultK1, idx.k1)
		assert.Equal(t, DefaultB, idx.b)
	})

	t.Run("custom parameters", func(t *testing.T) {
		idx, err := New(WithK1(1.5), WithB(0.5))
		require.NoError(t, err)
		assert.Equal(t, 1.5, idx.k1)
		assert.Equal(t, 0.5, idx.b)
	})

	t.Run("rejects invalid k1", func(t *testing.T) {
		_, err := New(WithK1(0))
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("rejects invalid b", func(t *testing.T) {
		_, err := New(WithB(1.5))
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestTokenize(t *testing.T) {
	t.Run("lowercases and splits on punctuation", func(t *testing.T) {
		tokens := Tokenize("ACME Corp's revenue, Q3-2024!")
		assert.Equal(t, []string{"acme", "corp", "s", "revenue", "q3", "2024"}, tokens)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Tokenize(""))
		assert.Empty(t, Tokenize("  ...  "))
	})
}

func TestIndexSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks matching document first", func(t *testing.T) {
		idx, err := New()
		require.NoError(t, err)

		finance := testChunk(t, 0, "ACME Corp revenue grew twenty percent in the third quarter")
		weather := testChunk(t, 1, "Monsoon patterns shifted across the coastal region this year")
		require.NoError(t, idx.Add(ctx, []*core.Chunk{finance, weather}))

		hits, err := idx.Search(ctx, "ACME revenue", 10)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, finance.Id, hits[0].Id)
		assert.Positive(t, hits[0].Score)
	})

	t.Run("empty query yields no hits", func(t *testing.T) {
		idx, err := New()
		require.NoError(t, err)
		require.NoError(t, idx.Add(ctx, []*core.Chunk{testChunk(t, 0, "some indexed text")}))

		hits, err := idx.Search(ctx, "   ", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("query with no matching terms yields no hits", func(t *testing.T) {
		idx, err := New()
		require.NoError(t, err)
		require.NoError(t, idx.Add(ctx, []*core.Chunk{testChunk(t, 0, "alpha beta gamma")}))

		hits, err := idx.Search(ctx, "zeppelin", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("respects topK", func(t *testing.T) {
		idx, err := New()
		require.NoError(t, err)

		var chunks []*core.Chunk
		for i := 0; i < 10; i++ {
			chunks = append(chunks, testChunk(t, i, fmt.Sprintf("shared term plus filler number %d", i)))
		}
		require.NoError(t, idx.Add(ctx, chunks))

		hits, err := idx.Search(ctx, "shared term", 3)
		require.NoError(t, err)
		assert.Len(t, hits, 3)
	})

	t.Run("rarer terms score higher", func(t *testing.T) {
		idx, err := New()
		require.NoError(t, err)

		rare := testChunk(t, 0, "the zeppelin floated over the city")
		common1 := testChunk(t, 1, "the city grew and the city changed")
		common2 := testChunk(t, 2, "another city on another coast")
		require.NoError(t, idx.Add(ctx, []*core.Chunk{rare, common1, common2}))

		hits, err := idx.Search(ctx, "zeppelin", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, rare.Id, hits[0].Id)
	})
}

func TestIndexDeduplication(t *testing.T) {
	ctx := context.Background()

	idx, err := New()
	require.NoError(t, err)

	chunks := []*core.Chunk{
		testChunk(t, 0, "first chunk of text"),
		testChunk(t, 1, "second chunk of text"),
	}
	require.NoError(t, idx.Add(ctx, chunks))
	require.NoError(t, idx.Add(ctx, chunks))

	stats := idx.Stats()
	assert.Equal(t, 2, stats.TotalDocuments)

	hits, err := idx.Search(ctx, "chunk text", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestIndexVisibility(t *testing.T) {
	ctx := context.Background()

	idx, err := New()
	require.NoError(t, err)

	hits, err := idx.Search(ctx, "fresh", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	fresh := testChunk(t, 0, "a fresh document just indexed")
	require.NoError(t, idx.Add(ctx, []*core.Chunk{fresh}))

	hits, err = idx.Search(ctx, "fresh", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, fresh.Id, hits[0].Id)
}

func TestIndexClear(t *testing.T) {
	ctx := context.Background()

	idx, err := New()
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, []*core.Chunk{testChunk(t, 0, "content to be cleared")}))
	require.Equal(t, 1, idx.Stats().TotalDocuments)

	require.NoError(t, idx.Clear(ctx))

	stats := idx.Stats()
	assert.Zero(t, stats.TotalDocuments)
	assert.Zero(t, stats.TotalTerms)
	assert.Zero(t, stats.AverageDocLength)

	// After clearing, the same chunk can be indexed again
	require.NoError(t, idx.Add(ctx, []*core.Chunk{testChunk(t, 0, "content to be cleared")}))
	assert.Equal(t, 1, idx.Stats().TotalDocuments)
}

func TestIndexStats(t *testing.T) {
	ctx := context.Background()

	idx, err := New()
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, []*core.Chunk{
		testChunk(t, 0, "one two three four"),
		testChunk(t, 1, "one two"),
	}))

	stats := idx.Stats()
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 4, stats.TotalTerms)
	assert.InDelta(t, 3.0, stats.AverageDocLength, 0.001)
}
