package storage

import (
	"testing"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRoundTrip(t *testing.T) {
	chunk := &core.Chunk{
		Id:      core.ChunkID("doc.txt", 3, "chunk text"),
		Text:    "chunk text",
		Ordinal: 3,
		Metadata: map[string]string{
			core.MetaFileName:  "doc.txt",
			core.MetaCategory:  "finance",
			core.MetaStartDate: "2021",
			core.MetaEndDate:   "2023",
		},
		Vector:     []float32{0.25, -0.5, 1.0},
		InsertedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	data := MarshalChunk(chunk)
	got, err := UnmarshalChunk(data)
	require.NoError(t, err)

	assert.Equal(t, chunk.Id, got.Id)
	assert.Equal(t, chunk.Text, got.Text)
	assert.Equal(t, chunk.Ordinal, got.Ordinal)
	assert.Equal(t, chunk.Metadata, got.Metadata)
	assert.Equal(t, chunk.Vector, got.Vector)
	assert.True(t, chunk.InsertedAt.Equal(got.InsertedAt))
}

func TestIDRoundTrip(t *testing.T) {
	id := core.IDFromContent("some content")
	got, err := UnmarshalID(MarshalID(id))
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestUnmarshalChunk_Truncated(t *testing.T) {
	chunk := &core.Chunk{
		Id:       core.ChunkID("doc.txt", 0, "text"),
		Text:     "text",
		Metadata: map[string]string{core.MetaFileName: "doc.txt"},
	}
	data := MarshalChunk(chunk)

	_, err := UnmarshalChunk(data[:2])
	assert.Error(t, err)
}
