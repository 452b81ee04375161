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
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// DefaultSimilarityThreshold is the minimum cosine similarity for
// dense-leg candidates.
const DefaultSimilarityThreshold = 0.60

// SparseSearcher is the keyword leg of a hybrid query.
type SparseSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]core.SparseHit, error)
}

// Searcher runs hybrid queries: a dense vector leg and a sparse
// keyword leg fetched concurrently, fused by reciprocal rank, then
// reranked down to the requested result count.
type Searcher struct {
	chunkRepository storage.ChunkRepository
	sparseIndex     SparseSearcher
	embedder        ai.Embedder
	threshold       float32
	weights         Weights
	degradedLegs    bool
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithSimilarityThreshold sets the dense-leg similarity cutoff.
// Default is 0.60.
func WithSimilarityThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		s.threshold = threshold
		return nil
	}
}

// WithRerankWeights overrides the rerank blend.
// Default is vector 0.5, keyword 0.4, metadata 0.1.
func WithRerankWeights(weights Weights) Option {
	return func(s *Searcher) error {
		s.weights = weights
		return nil
	}
}

// WithDegradedLegs allows a query to proceed on a single leg when the
// other fails. By default a leg failure fails the whole query. In
// degraded mode a query where both legs fail returns empty results and
// a nil error.
func WithDegradedLegs(enabled bool) Option {
	return func(s *Searcher) error {
		s.degradedLegs = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new hybrid searcher.
func NewSearcher(
	chunkRepository storage.ChunkRepository,
	sparseIndex SparseSearcher,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if sparseIndex == nil {
		return nil, ErrSparseIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		chunkRepository: chunkRepository,
		sparseIndex:     sparseIndex,
		embedder:        provider.Embedder(),
		threshold:       DefaultSimilarityThreshold,
		weights:         DefaultWeights,
		logger:          slog.Default().With("component", "search"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search runs a hybrid query and returns up to topK candidates ranked
// by blended relevance.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]*core.Candidate, error) {
	return s.SearchWithMonitor(ctx, query, topK, nil)
}

// SearchWithMonitor runs a hybrid query with stage observability.
// The monitor receives callbacks after each stage of the pipeline.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, topK int, monitor SearchMonitor) ([]*core.Candidate, error) {
	if topK <= 0 {
		return nil, ErrInvalidLimit
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	start := time.Now()
	monitor.Start(query)

	// Both legs overfetch so fusion has enough rank signal to work with.
	fetchLimit := 2 * topK

	var (
		dense  []*core.Match
		sparse []core.SparseHit
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		legStart := time.Now()

		embedding, err := s.embedder.EmbedText(gctx, query)
		if err == nil {
			dense, err = s.chunkRepository.FindSimilar(gctx, core.NormalizeVector(embedding), s.threshold, fetchLimit)
		}
		if err != nil {
			if !s.degradedLegs {
				return fmt.Errorf("dense leg: %w", err)
			}
			s.logger.Warn("dense leg failed, continuing degraded", "err", err)
		}

		monitor.AfterDenseSearch(dense, time.Since(legStart))
		return nil
	})

	g.Go(func() error {
		legStart := time.Now()

		hits, err := s.sparseIndex.Search(gctx, query, fetchLimit)
		if err != nil {
			if !s.degradedLegs {
				return fmt.Errorf("sparse leg: %w", err)
			}
			s.logger.Warn("sparse leg failed, continuing degraded", "err", err)
		}
		sparse = hits

		monitor.AfterSparseSearch(sparse, time.Since(legStart))
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("hybrid query failed", "query", query, "err", err)
		return nil, err
	}

	payloads, err := s.resolveSparsePayloads(ctx, dense, sparse)
	if err != nil {
		return nil, err
	}

	fused := fuseRRF(dense, sparse, payloads, fetchLimit)
	monitor.AfterFusion(fused)

	results := rerank(fused, query, s.weights, topK)

	monitor.Finish(results, time.Since(start))
	s.logger.Debug("hybrid query complete",
		"query", query,
		"dense", len(dense),
		"sparse", len(sparse),
		"fused", len(fused),
		"results", len(results),
		"elapsed", time.Since(start))
	return results, nil
}

// resolveSparsePayloads fetches the chunks behind sparse-only hits so
// fusion can build full candidates for them. A hit whose chunk cannot
// be found is logged and dropped.
func (s *Searcher) resolveSparsePayloads(ctx context.Context, dense []*core.Match, sparse []core.SparseHit) (map[core.ID]*core.Chunk, error) {
	seen := make(map[core.ID]bool, len(dense))
	for _, match := range dense {
		seen[match.Chunk.Id] = true
	}

	var missing []core.ID
	for _, hit := range sparse {
		if !seen[hit.Id] {
			missing = append(missing, hit.Id)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	chunks, err := s.chunkRepository.GetChunks(ctx, missing...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sparse candidates: %w", err)
	}

	payloads := make(map[core.ID]*core.Chunk, len(chunks))
	for _, chunk := range chunks {
		payloads[chunk.Id] = chunk
	}

	if len(payloads) < len(missing) {
		s.logger.Warn("dropping unresolvable sparse hits",
			"requested", len(missing), "resolved", len(payloads))
	}
	return payloads, nil
}
