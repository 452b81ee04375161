package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/core"
)

func TestMetadataScore(t *testing.T) {
	t.Run("base score with no metadata", func(t *testing.T) {
		assert.InDelta(t, 0.5, metadataScore(nil), 0.001)
	})

	t.Run("source adds a tenth", func(t *testing.T) {
		md := map[string]string{core.MetaSource: "report.txt"}
		assert.InDelta(t, 0.6, metadataScore(md), 0.001)
	})

	t.Run("temporal fields add a fifth", func(t *testing.T) {
		md := map[string]string{core.MetaStartDate: "01.2020"}
		assert.InDelta(t, 0.7, metadataScore(md), 0.001)
	})

	t.Run("rich metadata", func(t *testing.T) {
		md := map[string]string{
			core.MetaSource:    "report.txt",
			core.MetaStartDate: "01.2020",
			core.MetaEndDate:   "Current",
		}
		assert.InDelta(t, 0.8, metadataScore(md), 0.001)
	})
}

func TestRerank(t *testing.T) {
	query := "ACME revenue"

	t.Run("phrase match beats bag of words at equal similarity", func(t *testing.T) {
		phrase := &core.Candidate{
			Id:         1,
			Text:       "acme revenue rose sharply",
			InDense:    true,
			Similarity: 0.8,
		}
		scattered := &core.Candidate{
			Id:         2,
			Text:       "revenue fell while acme expanded",
			InDense:    true,
			Similarity: 0.8,
		}

		ranked := rerank([]*core.Candidate{scattered, phrase}, query, DefaultWeights, 10)
		require.Len(t, ranked, 2)
		assert.Equal(t, phrase.Id, ranked[0].Id)
		assert.Greater(t, ranked[0].KeywordScore, ranked[1].KeywordScore)
	})

	t.Run("sparse-only candidates default the vector component", func(t *testing.T) {
		c := &core.Candidate{Id: 1, Text: "acme revenue data", InSparse: true}

		ranked := rerank([]*core.Candidate{c}, query, DefaultWeights, 10)
		require.Len(t, ranked, 1)
		assert.InDelta(t, DefaultSimilarity, ranked[0].VectorScore, 0.001)
	})

	t.Run("component scores are annotated", func(t *testing.T) {
		c := &core.Candidate{
			Id:         1,
			Text:       "acme revenue numbers",
			InDense:    true,
			Similarity: 0.9,
			Metadata:   map[string]string{core.MetaSource: "report.txt"},
		}

		ranked := rerank([]*core.Candidate{c}, query, DefaultWeights, 10)
		require.Len(t, ranked, 1)

		got := ranked[0]
		assert.InDelta(t, 0.9, got.VectorScore, 0.001)
		assert.Positive(t, got.KeywordScore)
		assert.InDelta(t, 0.6, got.MetadataScore, 0.001)

		want := 0.5*got.VectorScore + 0.4*got.KeywordScore + 0.1*got.MetadataScore
		assert.InDelta(t, want, got.RerankScore, 0.001)
	})

	t.Run("higher similarity wins when text is equal", func(t *testing.T) {
		strong := &core.Candidate{Id: 1, Text: "acme revenue", InDense: true, Similarity: 0.95}
		weak := &core.Candidate{Id: 2, Text: "acme revenue", InDense: true, Similarity: 0.65}

		ranked := rerank([]*core.Candidate{weak, strong}, query, DefaultWeights, 10)
		assert.Equal(t, strong.Id, ranked[0].Id)
	})

	t.Run("truncates to the limit", func(t *testing.T) {
		var candidates []*core.Candidate
		for i := 1; i <= 5; i++ {
			candidates = append(candidates, &core.Candidate{
				Id:         core.ID(i),
				Text:       "acme revenue",
				InDense:    true,
				Similarity: float64(i) / 10,
			})
		}

		ranked := rerank(candidates, query, DefaultWeights, 2)
		assert.Len(t, ranked, 2)
	})

	t.Run("custom weights shift the outcome", func(t *testing.T) {
		similarOnly := &core.Candidate{Id: 1, Text: "unrelated words entirely", InDense: true, Similarity: 1.0}
		keywordOnly := &core.Candidate{Id: 2, Text: "acme revenue exactly", InSparse: true}

		vectorHeavy := rerank([]*core.Candidate{similarOnly, keywordOnly}, query, Weights{Vector: 1}, 10)
		assert.Equal(t, similarOnly.Id, vectorHeavy[0].Id)

		keywordHeavy := rerank([]*core.Candidate{similarOnly, keywordOnly}, query, Weights{Keyword: 1}, 10)
		assert.Equal(t, keywordOnly.Id, keywordHeavy[0].Id)
	})
}
