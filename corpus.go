// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package corpus

import (
	"context"
	"log/slog"

	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/ai/openai"
	"github.com/poiesic/corpus/bm25"
	"github.com/poiesic/corpus/chunker"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/search"
	"github.com/poiesic/corpus/storage"
	storagebadger "github.com/poiesic/corpus/storage/badger"
)

// Engine wires the chunk store, the sparse index and the embedding
// provider into one document retrieval engine.
type Engine struct {
	backend     *storagebadger.Backend
	chunkRepo   storage.ChunkRepository
	sparseIndex *bm25.Index
	provider    ai.AIProvider
	splitter    *chunker.Chunker
	pipeline    *ingestion.Pipeline
	searcher    *search.Searcher
	logger      *slog.Logger
}

// Stats describes the engine's current corpus.
type Stats struct {
	StoredChunks  int
	IndexedChunks int
	IndexedTerms  int
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the default
// OpenAI-compatible one.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all chunk storage in memory. Intended for tests
// and throwaway corpora.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine opens the storage at filePath and assembles the full
// ingestion and search stack on top of it.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := storagebadger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create chunk repository
	chunkRepo, err := storagebadger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create sparse index
	sparseIndex, err := bm25.New()
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			chunkRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	splitter, err := chunker.New()
	if err != nil {
		provider.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	pipeline, err := ingestion.NewPipeline(chunkRepo, sparseIndex, provider, splitter)
	if err != nil {
		provider.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(chunkRepo, sparseIndex, provider)
	if err != nil {
		pipeline.Release()
		provider.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	engine := &Engine{
		backend:     backend,
		chunkRepo:   chunkRepo,
		sparseIndex: sparseIndex,
		provider:    provider,
		splitter:    splitter,
		pipeline:    pipeline,
		searcher:    searcher,
		logger:      slog.Default(),
	}

	// A restarted engine has a durable chunk store but an empty
	// in-memory keyword index; rebuild it before serving queries.
	if err := engine.Reindex(context.Background()); err != nil {
		engine.Close()
		return nil, err
	}

	return engine, nil
}

// IngestDocument splits, embeds and indexes one document.
func (e *Engine) IngestDocument(ctx context.Context, text, fileName, category string) (*ingestion.Report, error) {
	return e.pipeline.IngestDocument(ctx, text, fileName, category)
}

// Search runs a hybrid query and returns up to topK ranked candidates.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]*core.Candidate, error) {
	return e.searcher.Search(ctx, query, topK)
}

// SearchWithMonitor runs a hybrid query with stage observability.
func (e *Engine) SearchWithMonitor(ctx context.Context, query string, topK int, monitor search.SearchMonitor) ([]*core.Candidate, error) {
	return e.searcher.SearchWithMonitor(ctx, query, topK, monitor)
}

// Reindex rebuilds the keyword index from the stored chunks.
func (e *Engine) Reindex(ctx context.Context) error {
	if err := e.sparseIndex.Clear(ctx); err != nil {
		return err
	}
	return e.chunkRepo.ForEachChunk(ctx, 256, func(chunks []*core.Chunk) error {
		return e.sparseIndex.Add(ctx, chunks)
	})
}

// Stats reports corpus sizes from both the store and the index.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	stored, err := e.chunkRepo.CountChunks(ctx)
	if err != nil {
		return nil, err
	}

	indexStats := e.sparseIndex.Stats()
	return &Stats{
		StoredChunks:  stored,
		IndexedChunks: indexStats.TotalDocuments,
		IndexedTerms:  indexStats.TotalTerms,
	}, nil
}

// ChunkRepository exposes the underlying chunk store.
func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunkRepo
}

// SparseIndex exposes the underlying keyword index.
func (e *Engine) SparseIndex() *bm25.Index {
	return e.sparseIndex
}

// NewIngestionPipeline builds a pipeline with custom options sharing
// the engine's storage, index and provider.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.chunkRepo, e.sparseIndex, e.provider, e.splitter, opts...)
}

// NewSearcher builds a searcher with custom options sharing the
// engine's storage, index and provider.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(e.chunkRepo, e.sparseIndex, e.provider, opts...)
}

// Close releases the pipeline's workers and shuts down the provider
// and storage.
func (e *Engine) Close() error {
	e.pipeline.Release()

	// Close AI provider first
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := e.chunkRepo.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	// Close backend
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
