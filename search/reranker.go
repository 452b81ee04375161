/*
Copyright 2025 Poiesic Systems

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package search

import (
	"sort"

	"github.com/poiesic/corpus/core"
)

// DefaultSimilarity stands in for the vector component of candidates
// that never went through the dense leg.
const DefaultSimilarity = 0.5

// Weights blends the three rerank components. They should sum to 1.
type Weights struct {
	Vector   float64
	Keyword  float64
	Metadata float64
}

// DefaultWeights favors the vector signal, with keyword evidence close
// behind and metadata richness as a tiebreaker.
var DefaultWeights = Weights{
	Vector:   0.5,
	Keyword:  0.4,
	Metadata: 0.1,
}

// rerank orders candidates by the blended relevance score and keeps
// the top limit. Each returned candidate carries its three component
// scores so a result's ranking can be explained.
func rerank(candidates []*core.Candidate, query string, weights Weights, limit int) []*core.Candidate {
	for _, c := range candidates {
		c.VectorScore = DefaultSimilarity
		if c.InDense {
			c.VectorScore = c.Similarity
		}
		c.KeywordScore = keywordScore(c.Text, query)
		c.MetadataScore = metadataScore(c.Metadata)

		c.RerankScore = weights.Vector*c.VectorScore +
			weights.Keyword*c.KeywordScore +
			weights.Metadata*c.MetadataScore
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].RerankScore != candidates[j].RerankScore {
			return candidates[i].RerankScore > candidates[j].RerankScore
		}
		return candidates[i].Id < candidates[j].Id
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// keywordScore blends bag-of-words overlap with exact phrase matches,
// clamped to [0,1].
func keywordScore(document, query string) float64 {
	score := 0.4*termOverlapRatio(document, query) + 0.6*phraseBoost(document, query)
	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

// metadataScore rewards provenance richness: base 0.5, +0.1 for a
// source field, +0.2 when any temporal field is present, capped at 1.
func metadataScore(metadata map[string]string) float64 {
	score := 0.5
	if metadata[core.MetaSource] != "" {
		score += 0.1
	}
	if metadata[core.MetaStartDate] != "" || metadata[core.MetaEndDate] != "" {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
