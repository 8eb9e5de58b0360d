package proof

import (
	"os"
	"path/filepath"

	pool "github.com/libp2p/go-buffer-pool"
	"github.com/minio/sha256-simd"
	"golang.org/x/xerrors"
)

const MaxMemtreeSize = 1 << 30

// BuildSha254MemtreeFromSnapshot builds a sha256 memtree from a complete layer.
// The input data is a concatenation of 32-byte node hashes.
// Returned slice should be released to the pool after use.
func BuildSha254MemtreeFromSnapshot(data []byte) ([]byte, error) {
	if len(data) > MaxMemtreeSize {
		return nil, xerrors.Errorf("layer too large for memtree: %d", len(data))
	}
	if len(data) == 0 || len(data)%NODE_SIZE != 0 {
		return nil, xerrors.Errorf("layer size %d is not a multiple of %d", len(data), NODE_SIZE)
	}

	nLeaves := int64(len(data)) / NODE_SIZE
	if !isFullTree(nLeaves, 2) {
		return nil, xerrors.Errorf("%d leaves do not form a full binary tree", nLeaves)
	}
	totalNodes, levelSizes := computeTotalNodes(nLeaves, 2)
	memtreeBuf := pool.Get(int(totalNodes * NODE_SIZE))

	copy(memtreeBuf[:len(data)], data)

	d := sha256.New()

	levelStarts := make([]int64, len(levelSizes))
	levelStarts[0] = 0
	for i := 1; i < len(levelSizes); i++ {
		levelStarts[i] = levelStarts[i-1] + levelSizes[i-1]*NODE_SIZE
	}

	for level := 1; level < len(levelSizes); level++ {
		levelNodes := levelSizes[level]
		prevLevelStart := levelStarts[level-1]
		currLevelStart := levelStarts[level]

		for i := int64(0); i < levelNodes; i++ {
			leftOffset := prevLevelStart + (2*i)*NODE_SIZE

			d.Reset()
			d.Write(memtreeBuf[leftOffset : leftOffset+(NODE_SIZE*2)])

			outOffset := currLevelStart + i*NODE_SIZE
			// sum calls append, so we give it a zero len slice at the correct offset
			d.Sum(memtreeBuf[outOffset:outOffset])

			// set top bits to 00
			TruncateHash(memtreeBuf[outOffset : outOffset+NODE_SIZE])
		}
	}

	return memtreeBuf, nil
}

func ComputeBinShaParent(left, right [NODE_SIZE]byte) [NODE_SIZE]byte {
	out := sha256.Sum256(append(left[:], right[:]...))
	TruncateHash(out[:])
	return out
}

// Sha254TreeBuilder commits layers into binary sha256 memtrees. RowsToDiscard is
// ignored, memtrees keep every row.
type Sha254TreeBuilder struct{}

func (Sha254TreeBuilder) Arity() int {
	return 2
}

func (Sha254TreeBuilder) BuildTree(layer []byte, sc StoreConfig) (Tree, error) {
	buf, err := BuildSha254MemtreeFromSnapshot(layer)
	if err != nil {
		return nil, err
	}

	t := &Sha254Tree{memtree: buf, leafs: len(layer) / NODE_SIZE, sc: sc}
	if sc.Path != "" {
		if err := os.WriteFile(filepath.Join(sc.Path, sc.ID+".dat"), buf, 0644); err != nil {
			pool.Put(buf)
			return nil, xerrors.Errorf("writing memtree %s: %w", sc.ID, err)
		}
	}
	return t, nil
}

type Sha254Tree struct {
	memtree []byte
	leafs   int
	sc      StoreConfig
}

func (t *Sha254Tree) Root() [32]byte {
	var out [32]byte
	copy(out[:], t.memtree[len(t.memtree)-NODE_SIZE:])
	return out
}

func (t *Sha254Tree) Leafs() int {
	return t.leafs
}

func (t *Sha254Tree) StoreConfig() StoreConfig {
	return t.sc
}

func (t *Sha254Tree) Proof(i int) (*RawMerkleProof, error) {
	return MemtreeProof(t.memtree, int64(i))
}

// Release returns the memtree buffer to the pool; the tree is unusable after.
func (t *Sha254Tree) Release() {
	if t.memtree != nil {
		pool.Put(t.memtree)
		t.memtree = nil
	}
}

// OpenSha254Tree loads a memtree persisted by Sha254TreeBuilder.
func OpenSha254Tree(sc StoreConfig, leafs int) (*Sha254Tree, error) {
	buf, err := os.ReadFile(filepath.Join(sc.Path, sc.ID+".dat"))
	if err != nil {
		return nil, xerrors.Errorf("reading memtree %s: %w", sc.ID, err)
	}
	if want := (2*leafs - 1) * NODE_SIZE; len(buf) != want {
		return nil, xerrors.Errorf("memtree %s has %d bytes, expected %d", sc.ID, len(buf), want)
	}
	return &Sha254Tree{memtree: buf, leafs: leafs, sc: sc}, nil
}

var _ TreeBuilder = Sha254TreeBuilder{}
