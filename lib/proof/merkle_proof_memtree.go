package proof

import "golang.org/x/xerrors"

type RawMerkleProof struct {
	Leaf  [32]byte
	Proof [][32]byte
	Root  [32]byte
}

// MemtreeProof generates a Merkle proof for the given leaf index from the memtree.
// The memtree is a byte slice containing all the nodes of the Merkle tree, including leaves and internal nodes.
func MemtreeProof(memtree []byte, leafIndex int64) (*RawMerkleProof, error) {
	// Currently, the implementation supports only binary trees (arity == 2)
	const arity = 2

	totalNodes := int64(len(memtree)) / NODE_SIZE

	// Reconstruct level sizes from the total number of nodes
	nLeaves := (totalNodes + 1) / 2
	totalNodesCheck, levelSizes := computeTotalNodes(nLeaves, arity)
	if totalNodesCheck != totalNodes {
		return nil, xerrors.New("invalid memtree size; reconstructed total nodes do not match")
	}

	levelStarts := make([]int64, len(levelSizes))
	var offset int64 = 0
	for i, size := range levelSizes {
		levelStarts[i] = offset
		offset += size * NODE_SIZE
	}

	if leafIndex < 0 || leafIndex >= levelSizes[0] {
		return nil, xerrors.Errorf("invalid leaf index %d for %d leaves", leafIndex, levelSizes[0])
	}

	proof := &RawMerkleProof{
		Proof: make([][NODE_SIZE]byte, 0, len(levelSizes)-1),
	}

	leafOffset := levelStarts[0] + leafIndex*NODE_SIZE
	copy(proof.Leaf[:], memtree[leafOffset:leafOffset+NODE_SIZE])

	index := leafIndex
	for level := 0; level < len(levelSizes)-1; level++ {
		siblingIndex := index ^ 1 // Toggle the last bit to get the sibling index

		siblingOffset := levelStarts[level] + siblingIndex*NODE_SIZE
		var siblingHash [NODE_SIZE]byte
		copy(siblingHash[:], memtree[siblingOffset:siblingOffset+NODE_SIZE])
		proof.Proof = append(proof.Proof, siblingHash)

		index /= int64(arity)
	}

	rootOffset := levelStarts[len(levelSizes)-1]
	copy(proof.Root[:], memtree[rootOffset:rootOffset+NODE_SIZE])

	return proof, nil
}

// Verify recomputes the root from the leaf and siblings.
func (p *RawMerkleProof) Verify(leafIndex int64) bool {
	cur := p.Leaf
	index := leafIndex
	for _, sib := range p.Proof {
		if index&1 == 0 {
			cur = ComputeBinShaParent(cur, sib)
		} else {
			cur = ComputeBinShaParent(sib, cur)
		}
		index >>= 1
	}
	return cur == p.Root
}
