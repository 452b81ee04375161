package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermOverlapRatio(t *testing.T) {
	t.Run("full overlap", func(t *testing.T) {
		assert.Equal(t, 1.0, termOverlapRatio("ACME Corp revenue grew", "acme revenue"))
	})

	t.Run("partial overlap", func(t *testing.T) {
		assert.InDelta(t, 0.5, termOverlapRatio("quarterly revenue report", "revenue forecast"), 0.001)
	})

	t.Run("no overlap", func(t *testing.T) {
		assert.Zero(t, termOverlapRatio("monsoon season", "tax policy"))
	})

	t.Run("stop words and single characters are ignored", func(t *testing.T) {
		// Only "revenue" survives filtering; "the", "of", "a" and "x" do not
		assert.Equal(t, 1.0, termOverlapRatio("total revenue shown", "the revenue of a x"))
	})

	t.Run("query with no usable terms", func(t *testing.T) {
		assert.Zero(t, termOverlapRatio("anything", "the of a"))
	})
}

func TestPhraseBoost(t *testing.T) {
	t.Run("single word query has no phrases", func(t *testing.T) {
		assert.Zero(t, phraseBoost("revenue revenue revenue", "revenue"))
	})

	t.Run("matched bigram earns a quarter point", func(t *testing.T) {
		assert.InDelta(t, 0.25, phraseBoost("acme revenue was strong", "ACME revenue"), 0.001)
	})

	t.Run("bigram and trigram both count", func(t *testing.T) {
		// "acme corp", "corp revenue" and "acme corp revenue" all match
		assert.InDelta(t, 0.75, phraseBoost("acme corp revenue grew", "ACME Corp revenue"), 0.001)
	})

	t.Run("repeated occurrences of one gram count once", func(t *testing.T) {
		assert.InDelta(t, 0.25, phraseBoost("big deal big deal and big deal", "big deal"), 0.001)
	})

	t.Run("capped at one", func(t *testing.T) {
		doc := "alpha beta gamma delta epsilon zeta"
		query := "alpha beta gamma delta epsilon zeta"
		assert.Equal(t, 1.0, phraseBoost(doc, query))
	})

	t.Run("no phrase match", func(t *testing.T) {
		assert.Zero(t, phraseBoost("revenue acme", "acme revenue"))
	})
}

func TestKeywordScore(t *testing.T) {
	t.Run("blends overlap and phrases", func(t *testing.T) {
		// overlap 1.0, phrase boost 0.25
		score := keywordScore("acme revenue was strong", "ACME revenue")
		assert.InDelta(t, 0.4*1.0+0.6*0.25, score, 0.001)
	})

	t.Run("never exceeds one", func(t *testing.T) {
		doc := "alpha beta gamma delta epsilon zeta"
		assert.LessOrEqual(t, keywordScore(doc, doc), 1.0)
	})

	t.Run("zero for unrelated text", func(t *testing.T) {
		assert.Zero(t, keywordScore("monsoon season", "tax policy"))
	})
}
