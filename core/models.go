package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so that identical
// content always maps to the same identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID generates the deterministic ID for a chunk.
// The ID covers the source file name, the chunk's ordinal within the
// document and its text, so re-chunking the same document yields the
// same IDs in both the vector store and the sparse index.
func ChunkID(fileName string, ordinal int, text string) ID {
	return IDFromContent(fileName + "#" + strconv.Itoa(ordinal) + "#" + text)
}

// Metadata keys attached to chunks by the chunker.
const (
	MetaCategory  = "category"
	MetaFileName  = "file_name"
	MetaStartDate = "start_date"
	MetaEndDate   = "end_date"
	MetaSource    = "source"
)

// Chunk is the atomic retrieval unit: a bounded, token-sized slice of a
// source document. A chunk is immutable once created; the vector store
// and the sparse index each hold their own copy.
type Chunk struct {
	Id         ID
	Text       string
	Ordinal    int               // Position of the chunk within its parent document
	Metadata   map[string]string // category, file_name, start_date, end_date, source
	Vector     []float32         // Embedding vector (populated by the ingestion pipeline)
	InsertedAt time.Time         // When the chunk was committed to storage
}

// FileName returns the source file name recorded in the chunk metadata.
func (c *Chunk) FileName() string {
	return c.Metadata[MetaFileName]
}

// Match represents a chunk matched by vector similarity search.
type Match struct {
	Chunk *Chunk
	Score float32
}

// SparseHit represents a chunk matched by the sparse (BM25) index.
// Only the chunk ID and keyword score are known at this point; the full
// payload is resolved from storage during fusion.
type SparseHit struct {
	Id    ID
	Score float64
}

// Candidate is a retrieval candidate flowing through fusion and
// reranking. It is built fresh per query and never persisted.
type Candidate struct {
	Id       ID
	Text     string
	Metadata map[string]string

	// Leg membership. A candidate may come from the dense leg, the
	// sparse leg, or both.
	InDense  bool
	InSparse bool

	// Raw leg scores. Similarity is only meaningful when InDense is
	// true, BM25Score only when InSparse is true.
	Similarity float64
	BM25Score  float64

	// Fusion and rerank scores.
	RRFScore    float64
	RerankScore float64

	// Component scores annotated by the reranker for explainability.
	VectorScore   float64
	KeywordScore  float64
	MetadataScore float64
}
