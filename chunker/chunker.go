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

package chunker

import (
	"log/slog"
	"strings"

	"github.com/poiesic/corpus/core"
)

// Default splitting parameters, all expressed in estimated tokens.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 128
	DefaultMinChunk     = 100
	DefaultMaxChunk     = 800
)

// Chunker splits raw document text into overlapping, token-bounded
// chunks and attaches provenance and temporal metadata to each one.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	minChunk     int
	maxChunk     int
	logger       *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithChunkSize sets the target chunk size in estimated tokens.
// Default is 512.
func WithChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size <= 0 {
			return ErrInvalidConfig
		}
		c.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the overlap between adjacent chunks in
// estimated tokens. Default is 128.
func WithChunkOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return ErrInvalidConfig
		}
		c.chunkOverlap = overlap
		return nil
	}
}

// WithMinChunk sets the minimum chunk size in estimated tokens.
// Default is 100.
func WithMinChunk(min int) Option {
	return func(c *Chunker) error {
		if min <= 0 {
			return ErrInvalidConfig
		}
		c.minChunk = min
		return nil
	}
}

// WithMaxChunk sets the maximum chunk size in estimated tokens.
// Default is 800.
func WithMaxChunk(max int) Option {
	return func(c *Chunker) error {
		if max <= 0 {
			return ErrInvalidConfig
		}
		c.maxChunk = max
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a Chunker with the given options applied over defaults.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		minChunk:     DefaultMinChunk,
		maxChunk:     DefaultMaxChunk,
		logger:       slog.Default().With("component", "chunker"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.chunkOverlap >= c.chunkSize {
		return nil, ErrInvalidConfig
	}
	if c.minChunk > c.chunkSize || c.chunkSize > c.maxChunk {
		return nil, ErrInvalidConfig
	}

	return c, nil
}

// EstimateTokens approximates the token count of text as one token per
// four characters, rounded up. Both the splitter and the batch builder
// rely on this estimate so they agree on chunk budgets.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// CleanText strips control and non-ASCII characters and collapses all
// whitespace runs to single spaces. Cleaning happens before splitting
// so the embedder and the keyword analyzer see identical text.
func CleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range text {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case r >= 32 && r < 127:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// Split cleans the document text, extracts document-level temporal
// metadata, and cuts the text into overlapping chunks tagged with the
// source file name and category. A document with no extractable text
// yields zero chunks and no error.
func (c *Chunker) Split(text, fileName, category string) []*core.Chunk {
	clean := CleanText(text)
	if clean == "" {
		c.logger.Debug("document yielded no text", "file_name", fileName)
		return nil
	}

	startDate, endDate := ExtractTemporalRange(clean)

	words := strings.Fields(clean)
	pieces := c.splitWords(words)

	chunks := make([]*core.Chunk, 0, len(pieces))
	for ordinal, piece := range pieces {
		metadata := map[string]string{
			core.MetaFileName: fileName,
			core.MetaSource:   fileName,
		}
		if category != "" {
			metadata[core.MetaCategory] = category
		}
		// Temporal range is document-wide: every chunk of the same
		// document carries the identical start_date/end_date pair.
		if startDate != "" {
			metadata[core.MetaStartDate] = startDate
		}
		if endDate != "" {
			metadata[core.MetaEndDate] = endDate
		}

		chunks = append(chunks, &core.Chunk{
			Id:       core.ChunkID(fileName, ordinal, piece),
			Text:     piece,
			Ordinal:  ordinal,
			Metadata: metadata,
		})
	}

	c.logger.Debug("split document",
		"file_name", fileName,
		"chars", len(clean),
		"chunks", len(chunks))
	return chunks
}

// splitWords accumulates words into chunks of roughly chunkSize tokens,
// carrying the trailing chunkOverlap tokens of each chunk into the
// start of the next one. No chunk exceeds maxChunk estimated tokens,
// and only the final chunk may fall below minChunk.
func (c *Chunker) splitWords(words []string) []string {
	words = c.breakOversized(words)

	var (
		pieces  []string
		current []string
		tokens  int
		fresh   int // words in current not carried over from the previous chunk
	)

	flush := func() {
		if fresh == 0 {
			return
		}
		pieces = append(pieces, strings.Join(current, " "))
	}

	// Seed the next chunk with the trailing overlap region of the
	// one just flushed.
	cut := func() {
		flush()
		carry, carryTokens := c.overlapTail(current)
		current = carry
		tokens = carryTokens
		fresh = 0
	}

	for _, word := range words {
		wt := wordTokens(word)

		// Cut early when appending would push past the upper bound,
		// shedding carry words until the incoming word fits.
		if len(current) > 0 && tokens+wt > c.maxChunk {
			cut()
			for len(current) > 0 && tokens+wt > c.maxChunk {
				tokens -= wordTokens(current[0])
				current = current[1:]
			}
		}

		current = append(current, word)
		tokens += wt
		fresh++

		if tokens >= c.chunkSize {
			cut()
		}
	}

	flush()
	return pieces
}

// overlapTail returns the smallest word suffix covering at least
// chunkOverlap estimated tokens.
func (c *Chunker) overlapTail(words []string) ([]string, int) {
	if c.chunkOverlap == 0 {
		return nil, 0
	}

	tokens := 0
	i := len(words)
	for i > 0 && tokens < c.chunkOverlap {
		i--
		tokens += wordTokens(words[i])
	}

	tail := make([]string, len(words)-i)
	copy(tail, words[i:])
	return tail, tokens
}

// breakOversized hard-splits any single word whose estimated token
// count exceeds maxChunk, so no chunk can blow past the upper bound on
// the strength of one pathological token run.
func (c *Chunker) breakOversized(words []string) []string {
	limit := c.maxChunk * 4

	out := make([]string, 0, len(words))
	for _, word := range words {
		for len(word) > limit {
			out = append(out, word[:limit])
			word = word[limit:]
		}
		out = append(out, word)
	}
	return out
}

// wordTokens estimates the token cost of appending one word to a
// chunk, including its separating space.
func wordTokens(word string) int {
	return (len(word) + 1 + 3) / 4
}
