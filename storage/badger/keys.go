package badger

import (
	"fmt"

	"github.com/poiesic/corpus/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix = "chkrec"
	chunkSourcePrefix = "chksrc"
)

// makeChunkKey generates a key for a chunk record by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeSourceKey generates a key for the source dedup index.
// One key exists per ingested file name; the value holds the number of
// chunks committed for that source.
func makeSourceKey(fileName string) []byte {
	return []byte(chunkSourcePrefix + ":" + fileName)
}
