package nse

import (
	"hash"

	"github.com/filecoin-project/go-nse/lib/proof"
)

// BatchHasher gathers parent nodes into batches of k before handing them to the
// hash engine. Batching only changes how the input is fed, never the digest.
// A BatchHasher is not safe for concurrent use.
type BatchHasher struct {
	k     int
	batch []byte
}

func NewBatchHasher(k int) *BatchHasher {
	k = max(k, 1)
	return &BatchHasher{
		k:     k,
		batch: make([]byte, k*proof.NODE_SIZE),
	}
}

// Hash writes the degree parents of layerIn into h, which must already hold the
// prefix and replica id, and returns the truncated digest.
func (b *BatchHasher) Hash(degree int, h hash.Hash, parents []uint32, layerIn []byte) [32]byte {
	if len(parents) != degree {
		panic("batch hash called with a parent list not matching the degree")
	}

	for start := 0; start < degree; start += b.k {
		end := min(start+b.k, degree)

		buf := b.batch[:(end-start)*proof.NODE_SIZE]
		for i, p := range parents[start:end] {
			off := int(p) * proof.NODE_SIZE
			copy(buf[i*proof.NODE_SIZE:], layerIn[off:off+proof.NODE_SIZE])
		}
		_, _ = h.Write(buf)
	}

	var out [32]byte
	h.Sum(out[:0])
	proof.TruncateHash(out[:])
	return out
}

// BatchHash is the allocating form of BatchHasher.Hash.
func BatchHash(k, degree int, h hash.Hash, parents []uint32, layerIn []byte) [32]byte {
	return NewBatchHasher(k).Hash(degree, h, parents, layerIn)
}
