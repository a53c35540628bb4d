package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexer(t *testing.T) {
	ix := NewIndexer()

	a, b := pattern(1), pattern(2)

	assert.Equal(t, 0, ix.Insert(a))
	assert.Equal(t, 1, ix.Insert(b))
	assert.Equal(t, 0, ix.Insert(pattern(1)))
	assert.Equal(t, 2, ix.Len())

	i, ok := ix.Lookup(b)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = ix.Lookup(pattern(3))
	assert.False(t, ok)

	assert.Equal(t, []Chunk{a, b}, ix.Chunks())
	assert.Equal(t, b, ix.Chunk(1))
}

func TestIndexerCollision(t *testing.T) {
	ix := NewIndexer()
	ix.hash = func([]byte) uint32 { return 42 }

	assert.Equal(t, 0, ix.Insert(pattern(1)))
	assert.Equal(t, 1, ix.Insert(pattern(2)))
	assert.Equal(t, 2, ix.Insert(pattern(3)))
	assert.Equal(t, 1, ix.Insert(pattern(2)))
	assert.Equal(t, 3, ix.Len())
}

func TestIndexerChunksIsCopy(t *testing.T) {
	ix := NewIndexer()
	ix.Insert(pattern(1))

	chunks := ix.Chunks()
	chunks[0][0] = 200

	assert.Equal(t, pattern(1), ix.Chunk(0))
}
