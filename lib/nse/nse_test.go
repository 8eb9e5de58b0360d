package nse

import (
	"math/rand"
	"testing"

	"github.com/filecoin-project/go-nse/lib/proof"
)

// testConfig is small enough for unit tests while exercising every stage:
// 64 nodes, 6 expander layers and 4 butterfly layers.
func testConfig() *Config {
	return &Config{
		K:                  8,
		N:                  2048,
		DegreeExpander:     12,
		DegreeButterfly:    4,
		NumExpanderLayers:  6,
		NumButterflyLayers: 4,
	}
}

// randomNodes returns n bytes of random canonical nodes.
func randomNodes(t *testing.T, seed int64, n int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	out := make([]byte, n)
	_, _ = rng.Read(out)
	for off := 0; off < n; off += proof.NODE_SIZE {
		proof.TruncateHash(out[off : off+proof.NODE_SIZE])
	}
	return out
}

func testReplicaID(t *testing.T, seed int64) *ReplicaID {
	t.Helper()

	var id ReplicaID
	copy(id[:], randomNodes(t, seed, proof.NODE_SIZE))
	return &id
}
