package ingestion

import (
	"github.com/poiesic/corpus/chunker"
	"github.com/poiesic/corpus/core"
)

// buildBatches groups chunks into ordered embedding batches. Batches
// are cut at batchSize chunks, or earlier when adding the next chunk
// would push the batch past maxBatchTokens. A maxBatchTokens of zero
// disables the token budget and yields fixed-size batches only.
// A chunk whose own estimate exceeds the budget travels alone.
func buildBatches(chunks []*core.Chunk, batchSize, maxBatchTokens int) [][]*core.Chunk {
	if len(chunks) == 0 {
		return nil
	}

	var (
		batches [][]*core.Chunk
		current []*core.Chunk
		tokens  int
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		batches = append(batches, current)
		current = nil
		tokens = 0
	}

	for _, chunk := range chunks {
		cost := chunker.EstimateTokens(chunk.Text)

		if maxBatchTokens > 0 && len(current) > 0 && tokens+cost > maxBatchTokens {
			flush()
		}
		current = append(current, chunk)
		tokens += cost

		if len(current) >= batchSize {
			flush()
		}
	}
	flush()

	return batches
}
