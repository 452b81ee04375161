package bm25

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/poiesic/corpus/core"
)

// Default BM25 tuning parameters (standard values).
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Stats describes the current committed state of the index.
type Stats struct {
	TotalDocuments   int
	TotalTerms       int
	AverageDocLength float64
}

// snapshot is an immutable view of committed index state. Readers score
// against the snapshot current at query start; writers publish a fresh
// snapshot on commit.
type snapshot struct {
	postings map[string]map[core.ID]int // term -> doc id -> term frequency
	docLen   map[core.ID]int            // doc id -> token count
	avgLen   float64
}

// Index is an in-memory BM25 inverted index over chunk text.
//
// Writes follow a single-writer discipline: indexing calls are mutually
// exclusive. Reads never block on a write beyond loading the latest
// published snapshot, so the index is near-real-time rather than
// immediately consistent.
type Index struct {
	k1     float64
	b      float64
	logger *slog.Logger

	mu       sync.Mutex // guards writer-side state below
	postings map[string]map[core.ID]int
	docLen   map[core.ID]int
	totalLen int

	snap atomic.Pointer[snapshot]
}

// Option configures an Index.
type Option func(*Index) error

// WithK1 sets the term-frequency saturation parameter.
// Default is 1.2.
func WithK1(k1 float64) Option {
	return func(idx *Index) error {
		if k1 <= 0 {
			return ErrInvalidParameter
		}
		idx.k1 = k1
		return nil
	}
}

// WithB sets the length normalization parameter.
// Default is 0.75.
func WithB(b float64) Option {
	return func(idx *Index) error {
		if b < 0 || b > 1 {
			return ErrInvalidParameter
		}
		idx.b = b
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
		return nil
	}
}

// New creates a new empty BM25 index.
func New(opts ...Option) (*Index, error) {
	idx := &Index{
		k1:       DefaultK1,
		b:        DefaultB,
		logger:   slog.Default().With("component", "bm25"),
		postings: make(map[string]map[core.ID]int),
		docLen:   make(map[core.ID]int),
	}

	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}

	idx.snap.Store(&snapshot{
		postings: map[string]map[core.ID]int{},
		docLen:   map[core.ID]int{},
	})

	return idx, nil
}

// Add indexes the given chunks and refreshes the reader snapshot.
// A chunk id that is already indexed is never re-added; duplicate
// submissions are silently skipped.
func (idx *Index) Add(ctx context.Context, chunks []*core.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	added := 0
	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}
		if _, ok := idx.docLen[chunk.Id]; ok {
			continue
		}

		tokens := Tokenize(chunk.Text)
		if len(tokens) == 0 {
			continue
		}

		idx.docLen[chunk.Id] = len(tokens)
		idx.totalLen += len(tokens)
		for _, token := range tokens {
			docs, ok := idx.postings[token]
			if !ok {
				docs = make(map[core.ID]int)
				idx.postings[token] = docs
			}
			docs[chunk.Id]++
		}
		added++
	}

	if added > 0 {
		idx.refresh()
	}
	idx.logger.Debug("indexed chunks", "submitted", len(chunks), "added", added)
	return nil
}

// Search scores the committed documents against the query and returns
// up to topK hits ordered by descending BM25 score. An empty or
// unparseable query yields an empty result, never an error.
func (idx *Index) Search(ctx context.Context, query string, topK int) ([]core.SparseHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}

	snap := idx.snap.Load()
	terms := Tokenize(query)
	if len(terms) == 0 || len(snap.docLen) == 0 {
		return nil, nil
	}

	n := float64(len(snap.docLen))
	scores := make(map[core.ID]float64)

	for _, term := range terms {
		docs, ok := snap.postings[term]
		if !ok {
			continue
		}

		df := float64(len(docs))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))

		for id, tf := range docs {
			norm := 1 - idx.b + idx.b*float64(snap.docLen[id])/snap.avgLen
			scores[id] += idf * float64(tf) * (idx.k1 + 1) / (float64(tf) + idx.k1*norm)
		}
	}

	hits := make([]core.SparseHit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, core.SparseHit{Id: id, Score: score})
	}

	// Deterministic order: score descending, id ascending for ties
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Id < hits[j].Id
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Clear deletes all entries and resets the dedup state.
func (idx *Index) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.postings = make(map[string]map[core.ID]int)
	idx.docLen = make(map[core.ID]int)
	idx.totalLen = 0
	idx.refresh()

	idx.logger.Debug("cleared index")
	return nil
}

// Stats returns statistics for the committed snapshot.
func (idx *Index) Stats() Stats {
	snap := idx.snap.Load()
	return Stats{
		TotalDocuments:   len(snap.docLen),
		TotalTerms:       len(snap.postings),
		AverageDocLength: snap.avgLen,
	}
}

// refresh publishes a fresh snapshot of the writer-side state.
// Caller must hold idx.mu.
func (idx *Index) refresh() {
	postings := make(map[string]map[core.ID]int, len(idx.postings))
	for term, docs := range idx.postings {
		copied := make(map[core.ID]int, len(docs))
		for id, tf := range docs {
			copied[id] = tf
		}
		postings[term] = copied
	}

	docLen := make(map[core.ID]int, len(idx.docLen))
	for id, length := range idx.docLen {
		docLen[id] = length
	}

	var avgLen float64
	if len(docLen) > 0 {
		avgLen = float64(idx.totalLen) / float64(len(docLen))
	}

	idx.snap.Store(&snapshot{
		postings: postings,
		docLen:   docLen,
		avgLen:   avgLen,
	})
}
