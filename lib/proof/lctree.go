package proof

import (
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("proof")

// LCTreeBuilder builds poseidon level-cache trees: the base layer and every row
// above StoreConfig.RowsToDiscard are kept, the discarded rows are regenerated from
// the base when a proof needs them.
type LCTreeBuilder struct {
	arity int
}

func NewLCTreeBuilder(arity int) (*LCTreeBuilder, error) {
	switch arity {
	case 2, 4, 8:
	default:
		return nil, xerrors.Errorf("unsupported level cache tree arity %d", arity)
	}
	return &LCTreeBuilder{arity: arity}, nil
}

func (b *LCTreeBuilder) Arity() int {
	return b.arity
}

func (b *LCTreeBuilder) BuildTree(layer []byte, sc StoreConfig) (Tree, error) {
	if len(layer) == 0 || len(layer)%NODE_SIZE != 0 {
		return nil, xerrors.Errorf("layer size %d is not a multiple of %d", len(layer), NODE_SIZE)
	}

	leafs := int64(len(layer) / NODE_SIZE)
	arity := int64(b.arity)
	if !isFullTree(leafs, arity) {
		return nil, xerrors.Errorf("%d leafs do not form a full arity %d tree", leafs, arity)
	}

	rows := RowCount(leafs, arity)
	if rows > 1 && sc.RowsToDiscard > uint64(rows-2) {
		return nil, xerrors.Errorf("cannot discard %d rows of a %d row tree", sc.RowsToDiscard, rows)
	}

	t := &LCTree{
		arity: b.arity,
		leafs: int(leafs),
		sc:    sc,
		base:  make([]byte, len(layer)),
	}
	copy(t.base, layer)

	row := t.base
	for level := 1; level < rows; level++ {
		next, err := hashRow(row, b.arity)
		if err != nil {
			return nil, xerrors.Errorf("hashing row %d: %w", level, err)
		}
		if uint64(level) > sc.RowsToDiscard {
			t.cache = append(t.cache, next...)
		}
		row = next
	}
	copy(t.root[:], row[len(row)-NODE_SIZE:])

	if sc.Path != "" {
		if err := t.persist(); err != nil {
			return nil, err
		}
	}

	log.Debugw("built level cache tree", "id", sc.ID, "leafs", leafs, "arity", arity, "discarded", sc.RowsToDiscard)

	return t, nil
}

// hashRow computes the parent row of row.
func hashRow(row []byte, arity int) ([]byte, error) {
	nodes := len(row) / NODE_SIZE
	out := make([]byte, nodes/arity*NODE_SIZE)
	children := make([]PoseidonDomain, arity)

	for i := 0; i < nodes/arity; i++ {
		for j := range children {
			off := (i*arity + j) * NODE_SIZE
			copy(children[j][:], row[off:off+NODE_SIZE])
		}
		h, err := HashNodes(children)
		if err != nil {
			return nil, err
		}
		copy(out[i*NODE_SIZE:], h[:])
	}

	return out, nil
}

type LCTree struct {
	arity int
	leafs int
	sc    StoreConfig

	base  []byte
	cache []byte // rows above sc.RowsToDiscard, root last
	root  PoseidonDomain
}

func (t *LCTree) Root() [32]byte {
	return t.root
}

func (t *LCTree) Leafs() int {
	return t.leafs
}

func (t *LCTree) StoreConfig() StoreConfig {
	return t.sc
}

func (t *LCTree) Arity() int {
	return t.arity
}

// Leaf returns the base layer node at index i.
func (t *LCTree) Leaf(i int) PoseidonDomain {
	var out PoseidonDomain
	copy(out[:], t.base[i*NODE_SIZE:(i+1)*NODE_SIZE])
	return out
}

func (t *LCTree) path() string {
	return filepath.Join(t.sc.Path, t.sc.ID+".dat")
}

// persist writes base ‖ cached rows, the same content a level cache store keeps.
func (t *LCTree) persist() error {
	f, err := os.Create(t.path())
	if err != nil {
		return xerrors.Errorf("creating tree store %s: %w", t.sc.ID, err)
	}

	if _, err := f.Write(t.base); err != nil {
		_ = f.Close()
		return xerrors.Errorf("writing tree base %s: %w", t.sc.ID, err)
	}
	if _, err := f.Write(t.cache); err != nil {
		_ = f.Close()
		return xerrors.Errorf("writing tree cache %s: %w", t.sc.ID, err)
	}

	return f.Close()
}

// OpenLCTree loads a tree previously persisted by LCTreeBuilder.
func OpenLCTree(sc StoreConfig, leafs, arity int) (*LCTree, error) {
	if !isFullTree(int64(leafs), int64(arity)) {
		return nil, xerrors.Errorf("%d leafs do not form a full arity %d tree", leafs, arity)
	}

	t := &LCTree{arity: arity, leafs: leafs, sc: sc}

	data, err := os.ReadFile(t.path())
	if err != nil {
		return nil, xerrors.Errorf("reading tree store %s: %w", sc.ID, err)
	}

	_, levels := computeTotalNodes(int64(leafs), int64(arity))
	want := int64(0)
	for level, n := range levels {
		if level == 0 || uint64(level) > sc.RowsToDiscard {
			want += n * NODE_SIZE
		}
	}
	if int64(len(data)) != want {
		return nil, xerrors.Errorf("tree store %s has %d bytes, expected %d", sc.ID, len(data), want)
	}

	t.base = data[:leafs*NODE_SIZE]
	t.cache = data[leafs*NODE_SIZE:]
	copy(t.root[:], data[len(data)-NODE_SIZE:])

	return t, nil
}

// row returns row level of the tree, regenerating it from the closest row
// below when it was discarded.
func (t *LCTree) row(level int) ([]byte, error) {
	_, levels := computeTotalNodes(int64(t.leafs), int64(t.arity))
	if level < 0 || level >= len(levels) {
		return nil, xerrors.Errorf("row %d out of range", level)
	}

	if level == 0 {
		return t.base, nil
	}

	if uint64(level) > t.sc.RowsToDiscard {
		off := int64(0)
		for l := int(t.sc.RowsToDiscard) + 1; l < level; l++ {
			off += levels[l] * NODE_SIZE
		}
		return t.cache[off : off+levels[level]*NODE_SIZE], nil
	}

	row := t.base
	for l := 1; l <= level; l++ {
		next, err := hashRow(row, t.arity)
		if err != nil {
			return nil, xerrors.Errorf("regenerating row %d: %w", l, err)
		}
		row = next
	}
	return row, nil
}

// Proof generates an inclusion proof for leaf i.
func (t *LCTree) Proof(i int) (*MerkleProof[PoseidonDomain], error) {
	if i < 0 || i >= t.leafs {
		return nil, xerrors.Errorf("invalid leaf index %d for %d leafs", i, t.leafs)
	}

	rows := RowCount(int64(t.leafs), int64(t.arity))
	sp := &SingleProof[PoseidonDomain]{
		Root: t.root,
		Leaf: t.Leaf(i),
	}

	var below []byte
	index := i
	for level := 0; level < rows-1; level++ {
		var row []byte
		var err error
		if level > 0 && uint64(level) <= t.sc.RowsToDiscard {
			// discarded rows are consecutive, build upwards from the previous one
			row, err = hashRow(below, t.arity)
		} else {
			row, err = t.row(level)
		}
		if err != nil {
			return nil, err
		}
		below = row

		first := index - index%t.arity
		elem := PathElement[PoseidonDomain]{Index: uint64(index % t.arity)}
		for j := first; j < first+t.arity; j++ {
			if j == index {
				continue
			}
			var sib PoseidonDomain
			copy(sib[:], row[j*NODE_SIZE:(j+1)*NODE_SIZE])
			elem.Hashes = append(elem.Hashes, sib)
		}
		sp.Path.Path = append(sp.Path.Path, elem)

		index /= t.arity
	}

	return &MerkleProof[PoseidonDomain]{Data: ProofData[PoseidonDomain]{Single: sp}}, nil
}

var _ Tree = &LCTree{}
var _ TreeBuilder = &LCTreeBuilder{}
