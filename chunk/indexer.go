package chunk

import (
	"bytes"
	"hash/crc32"
)

// Indexer assigns stable indices to chunk content. Two chunks with identical
// pixels always get the same index. An Indexer is not safe for concurrent use.
type Indexer struct {
	chunks  []Chunk
	buckets map[uint32][]int
	hash    func([]byte) uint32
}

// NewIndexer returns an empty Indexer.
func NewIndexer() *Indexer {
	return &Indexer{
		buckets: make(map[uint32][]int),
		hash:    crc32.ChecksumIEEE,
	}
}

// Lookup returns the index previously assigned to content c.
func (ix *Indexer) Lookup(c Chunk) (int, bool) {
	for _, i := range ix.buckets[ix.hash(c[:])] {
		// Checksums can collide, compare the pixels
		if bytes.Equal(ix.chunks[i][:], c[:]) {
			return i, true
		}
	}
	return 0, false
}

// Insert returns the index of content c, assigning the next free index if
// it has not been seen before.
func (ix *Indexer) Insert(c Chunk) int {
	if i, ok := ix.Lookup(c); ok {
		return i
	}
	i := len(ix.chunks)
	ix.chunks = append(ix.chunks, c)
	h := ix.hash(c[:])
	ix.buckets[h] = append(ix.buckets[h], i)
	return i
}

// Len returns the number of distinct chunks seen.
func (ix *Indexer) Len() int {
	return len(ix.chunks)
}

// Chunk returns the content assigned to index i.
func (ix *Indexer) Chunk(i int) Chunk {
	return ix.chunks[i]
}

// Chunks returns every distinct chunk in index order.
func (ix *Indexer) Chunks() []Chunk {
	return append([]Chunk(nil), ix.chunks...)
}
