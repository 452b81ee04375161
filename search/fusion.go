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

// RRFKConst is the rank-smoothing constant of reciprocal rank fusion.
// A document at 1-indexed rank r in a leg contributes 1/(RRFKConst+r).
const RRFKConst = 60

// fuseRRF merges the dense and sparse leg rankings with reciprocal
// rank fusion and returns the top limit candidates by fused score.
// RRF works on rank positions only, so the incommensurable cosine and
// BM25 scales need no normalization against each other.
//
// Sparse hits resolve their text and metadata through payloads; a hit
// whose payload is missing is dropped even though it carried a nonzero
// rank contribution.
func fuseRRF(dense []*core.Match, sparse []core.SparseHit, payloads map[core.ID]*core.Chunk, limit int) []*core.Candidate {
	candidates := make(map[core.ID]*core.Candidate)

	for i, match := range dense {
		c := &core.Candidate{
			Id:         match.Chunk.Id,
			Text:       match.Chunk.Text,
			Metadata:   match.Chunk.Metadata,
			InDense:    true,
			Similarity: float64(match.Score),
		}
		c.RRFScore = 1.0 / float64(RRFKConst+i+1)
		candidates[c.Id] = c
	}

	for i, hit := range sparse {
		c, ok := candidates[hit.Id]
		if !ok {
			chunk, resolved := payloads[hit.Id]
			if !resolved {
				continue
			}
			c = &core.Candidate{
				Id:       hit.Id,
				Text:     chunk.Text,
				Metadata: chunk.Metadata,
			}
			candidates[hit.Id] = c
		}
		c.InSparse = true
		c.BM25Score = hit.Score
		c.RRFScore += 1.0 / float64(RRFKConst+i+1)
	}

	fused := make([]*core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		fused = append(fused, c)
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].RRFScore != fused[j].RRFScore {
			return fused[i].RRFScore > fused[j].RRFScore
		}
		return fused[i].Id < fused[j].Id
	})

	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}
