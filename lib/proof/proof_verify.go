package proof

import (
	"golang.org/x/xerrors"
)

// VerifyProof reconstructs the root of a poseidon inclusion proof and checks it
// against the root carried by the proof.
func VerifyProof(mp *MerkleProof[PoseidonDomain]) error {
	sp := mp.Data.Single
	if sp == nil {
		return xerrors.Errorf("invalid merkle proof variant: no single proof set")
	}

	root, err := reconstructPath(sp.Leaf, sp.Path)
	if err != nil {
		return err
	}
	if root != sp.Root {
		return xerrors.Errorf("proof root mismatch: computed %s, expected %s", root, sp.Root)
	}
	return nil
}

// reconstructPath merges each path element, the Index deciding where the
// current node is inserted among the siblings.
func reconstructPath(leaf PoseidonDomain, path InclusionPath[PoseidonDomain]) (PoseidonDomain, error) {
	cur := leaf
	for i, elem := range path.Path {
		arity := len(elem.Hashes) + 1
		idx := int(elem.Index)
		if idx >= arity {
			return PoseidonDomain{}, xerrors.Errorf("path element %d: index %d out of range for arity %d", i, idx, arity)
		}

		combined := make([]PoseidonDomain, arity)
		j := 0
		for x := 0; x < arity; x++ {
			if x == idx {
				combined[x] = cur
			} else {
				combined[x] = elem.Hashes[j]
				j++
			}
		}

		var err error
		cur, err = HashNodes(combined)
		if err != nil {
			return PoseidonDomain{}, xerrors.Errorf("path element %d: %w", i, err)
		}
	}
	return cur, nil
}
