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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/chunker"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/storage"
)

// Defaults for batching, retry and pacing.
const (
	DefaultBatchSize      = 32
	DefaultMaxBatchTokens = 8192
	DefaultMaxAttempts    = 5
	DefaultBaseDelay      = time.Second
	DefaultMaxDelay       = 30 * time.Second
	DefaultBatchDelay     = 100 * time.Millisecond

	releaseTimeout = 5 * time.Second
)

// SparseIndex receives the chunks of each successful ingestion so they
// become keyword-searchable. Failures here are logged but never fail
// the overall ingestion.
type SparseIndex interface {
	Add(ctx context.Context, chunks []*core.Chunk) error
}

// Report summarizes one ingestion call.
type Report struct {
	RunID            uuid.UUID
	FileName         string
	Skipped          bool // source already ingested
	ChunksTotal      int
	BatchesTotal     int
	BatchesSucceeded int
	BatchesFailed    int
	ChunksEmbedded   int
	ChunksIndexed    int
	Elapsed          time.Duration
}

// Pipeline orchestrates document ingestion: splitting, batched
// embedding under throughput limits, committing to storage, and the
// best-effort push into the sparse index.
type Pipeline struct {
	chunkRepository storage.ChunkRepository
	sparseIndex     SparseIndex
	embedder        ai.Embedder
	splitter        *chunker.Chunker
	pool            *ants.Pool

	batchSize      int
	maxBatchTokens int
	maxAttempts    int
	baseDelay      time.Duration
	maxDelay       time.Duration
	batchDelay     time.Duration
	limiter        *RateLimiter

	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent batch
// embedding. Default is runtime.NumCPU(), with a minimum of 4.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets the maximum number of chunks per embedding batch.
// Default is 32.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size <= 0 {
			return ErrInvalidBatchConfig
		}
		p.batchSize = size
		return nil
	}
}

// WithMaxBatchTokens caps the cumulative estimated tokens per batch.
// Zero disables the token budget. Default is 8192.
func WithMaxBatchTokens(tokens int) Option {
	return func(p *Pipeline) error {
		if tokens < 0 {
			return ErrInvalidBatchConfig
		}
		p.maxBatchTokens = tokens
		return nil
	}
}

// WithRetry sets the per-batch retry policy.
// Defaults are 5 attempts, 1s base delay, 30s delay cap.
func WithRetry(maxAttempts int, baseDelay, maxDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.baseDelay = baseDelay
		p.maxDelay = maxDelay
		return nil
	}
}

// WithBatchDelay sets the stagger delay between batch submissions.
// Default is 100ms; zero submits without pacing.
func WithBatchDelay(delay time.Duration) Option {
	return func(p *Pipeline) error {
		if delay < 0 {
			return ErrInvalidBatchConfig
		}
		p.batchDelay = delay
		return nil
	}
}

// WithRateLimitPerMinute bounds embedding calls to the given quota per
// rolling minute. Default is unlimited.
func WithRateLimitPerMinute(limit int) Option {
	return func(p *Pipeline) error {
		limiter, err := NewRateLimiter(limit, time.Minute)
		if err != nil {
			return err
		}
		p.limiter = limiter
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	chunkRepository storage.ChunkRepository,
	sparseIndex SparseIndex,
	provider ai.AIProvider,
	splitter *chunker.Chunker,
	opts ...Option,
) (*Pipeline, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if sparseIndex == nil {
		return nil, ErrSparseIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	if splitter == nil {
		var err error
		splitter, err = chunker.New()
		if err != nil {
			return nil, err
		}
	}

	poolSize := runtime.NumCPU()
	if poolSize < 4 {
		poolSize = 4
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunkRepository: chunkRepository,
		sparseIndex:     sparseIndex,
		embedder:        provider.Embedder(),
		splitter:        splitter,
		pool:            pool,
		batchSize:       DefaultBatchSize,
		maxBatchTokens:  DefaultMaxBatchTokens,
		maxAttempts:     DefaultMaxAttempts,
		baseDelay:       DefaultBaseDelay,
		maxDelay:        DefaultMaxDelay,
		batchDelay:      DefaultBatchDelay,
		logger:          slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestDocument splits the document, embeds its chunks in bounded
// parallel batches, commits them, and pushes the committed chunks into
// the sparse index. The call blocks until every batch has either
// succeeded or exhausted its retries; a failed batch never aborts the
// others. Re-ingesting an already-processed file name is a no-op.
func (p *Pipeline) IngestDocument(ctx context.Context, text, fileName, category string) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:    uuid.New(),
		FileName: fileName,
	}
	logger := p.logger.With("run_id", report.RunID, "file_name", fileName)

	exists, err := p.chunkRepository.HasSource(ctx, fileName)
	if err != nil {
		return nil, fmt.Errorf("source lookup failed: %w", err)
	}
	if exists {
		report.Skipped = true
		report.Elapsed = time.Since(start)
		logger.Info("source already ingested, skipping")
		return report, nil
	}

	chunks := p.splitter.Split(text, fileName, category)
	report.ChunksTotal = len(chunks)
	if len(chunks) == 0 {
		report.Elapsed = time.Since(start)
		logger.Info("document yielded no chunks")
		return report, nil
	}

	batches := buildBatches(chunks, p.batchSize, p.maxBatchTokens)
	report.BatchesTotal = len(batches)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed []*core.Chunk
	)

	// Stagger batch submissions so the pool does not burst the
	// provider with simultaneous first requests.
	pacer := rate.NewLimiter(rate.Every(p.batchDelay), 1)
	if p.batchDelay == 0 {
		pacer = rate.NewLimiter(rate.Inf, 1)
	}

	for i, batch := range batches {
		if err := pacer.Wait(ctx); err != nil {
			wg.Wait()
			return nil, err
		}

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			if err := p.processBatch(ctx, batch); err != nil {
				logger.Error("batch failed after retries", "batch", i, "size", len(batch), "err", err)
				mu.Lock()
				report.BatchesFailed++
				mu.Unlock()
				return
			}

			mu.Lock()
			report.BatchesSucceeded++
			report.ChunksEmbedded += len(batch)
			committed = append(committed, batch...)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to submit batch: %w", submitErr)
		}
	}

	wg.Wait()

	// Sparse index is a best-effort secondary: a commit failure is
	// logged, not surfaced.
	if len(committed) > 0 {
		if err := p.sparseIndex.Add(ctx, committed); err != nil {
			logger.Error("sparse index commit failed", "chunks", len(committed), "err", err)
		} else {
			report.ChunksIndexed = len(committed)
		}
	}

	report.Elapsed = time.Since(start)
	logger.Info("ingestion complete",
		"chunks", report.ChunksTotal,
		"batches_ok", report.BatchesSucceeded,
		"batches_failed", report.BatchesFailed,
		"indexed", report.ChunksIndexed,
		"elapsed", report.Elapsed)
	return report, nil
}

// processBatch embeds one batch with retry, normalizes the vectors and
// commits the chunks.
func (p *Pipeline) processBatch(ctx context.Context, batch []*core.Chunk) error {
	if p.limiter != nil {
		if err := p.limiter.Acquire(ctx); err != nil {
			return err
		}
	}

	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = p.embedder.EmbedTexts(ctx, texts)
		return err
	}, p.maxAttempts, p.baseDelay, p.maxDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", p.maxAttempts, err)
	}

	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
	}

	for i := range batch {
		batch[i].Vector = core.NormalizeVector(embeddings[i])
	}

	if err := p.chunkRepository.AddChunks(ctx, batch...); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// Release drains the worker pool, force-closing it after a grace
// period. The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool == nil {
		return
	}
	if err := p.pool.ReleaseTimeout(releaseTimeout); err != nil {
		p.logger.Warn("worker pool did not drain in time", "err", err)
	}
}
