package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/core"
)

func fusionChunk(ordinal int, text string) *core.Chunk {
	return &core.Chunk{
		Id:       core.ChunkID("fusion_test.txt", ordinal, text),
		Text:     text,
		Ordinal:  ordinal,
		Metadata: map[string]string{core.MetaFileName: "fusion_test.txt"},
	}
}

func TestFuseRRF(t *testing.T) {
	a := fusionChunk(0, "alpha")
	b := fusionChunk(1, "bravo")
	c := fusionChunk(2, "charlie")

	t.Run("document in both legs outranks single-leg leaders", func(t *testing.T) {
		// a leads the dense leg and also shows up second in the
		// sparse leg; b leads sparse only, c trails dense only.
		dense := []*core.Match{
			{Chunk: a, Score: 0.9},
			{Chunk: c, Score: 0.7},
		}
		sparse := []core.SparseHit{
			{Id: b.Id, Score: 12.0},
			{Id: a.Id, Score: 8.0},
		}
		payloads := map[core.ID]*core.Chunk{b.Id: b}

		fused := fuseRRF(dense, sparse, payloads, 10)
		require.Len(t, fused, 3)
		assert.Equal(t, a.Id, fused[0].Id)
		assert.InDelta(t, 1.0/61+1.0/62, fused[0].RRFScore, 1e-9)
	})

	t.Run("rank position matters, raw scores do not", func(t *testing.T) {
		// b's huge BM25 score buys it exactly the rank-1 sparse
		// contribution, nothing more.
		dense := []*core.Match{{Chunk: a, Score: 0.61}}
		sparse := []core.SparseHit{{Id: b.Id, Score: 9000.0}}
		payloads := map[core.ID]*core.Chunk{b.Id: b}

		fused := fuseRRF(dense, sparse, payloads, 10)
		require.Len(t, fused, 2)
		assert.InDelta(t, fused[0].RRFScore, fused[1].RRFScore, 1e-9)
	})

	t.Run("candidates carry leg provenance and scores", func(t *testing.T) {
		dense := []*core.Match{{Chunk: a, Score: 0.8}}
		sparse := []core.SparseHit{{Id: a.Id, Score: 5.0}}

		fused := fuseRRF(dense, sparse, nil, 10)
		require.Len(t, fused, 1)
		assert.True(t, fused[0].InDense)
		assert.True(t, fused[0].InSparse)
		assert.InDelta(t, 0.8, fused[0].Similarity, 1e-6)
		assert.InDelta(t, 5.0, fused[0].BM25Score, 1e-6)
		assert.Equal(t, a.Text, fused[0].Text)
	})

	t.Run("unresolvable sparse hit is dropped", func(t *testing.T) {
		sparse := []core.SparseHit{
			{Id: b.Id, Score: 3.0},
			{Id: c.Id, Score: 2.0},
		}
		payloads := map[core.ID]*core.Chunk{c.Id: c}

		fused := fuseRRF(nil, sparse, payloads, 10)
		require.Len(t, fused, 1)
		assert.Equal(t, c.Id, fused[0].Id)
	})

	t.Run("respects the limit", func(t *testing.T) {
		dense := []*core.Match{
			{Chunk: a, Score: 0.9},
			{Chunk: b, Score: 0.8},
			{Chunk: c, Score: 0.7},
		}

		fused := fuseRRF(dense, nil, nil, 2)
		require.Len(t, fused, 2)
		assert.Equal(t, a.Id, fused[0].Id)
		assert.Equal(t, b.Id, fused[1].Id)
	})

	t.Run("empty legs fuse to nothing", func(t *testing.T) {
		assert.Empty(t, fuseRRF(nil, nil, nil, 10))
	})
}
