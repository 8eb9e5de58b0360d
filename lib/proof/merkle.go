package proof

import "encoding/hex"

type HasherDomain = any

// PoseidonDomain is a little-endian BLS12-381 scalar (Fr).
type PoseidonDomain [32]byte

func (p PoseidonDomain) String() string {
	return hex.EncodeToString(p[:])
}

// MerkleProof mirrors the rust-fil-proofs serde layout so proofs produced here can be
// consumed by the same json tooling as sealing proofs.
type MerkleProof[H HasherDomain] struct {
	Data ProofData[H] `json:"data"`
}

type ProofData[H HasherDomain] struct {
	Single *SingleProof[H] `json:"Single,omitempty"`
}

type SingleProof[H HasherDomain] struct {
	Root H                `json:"root"`
	Leaf H                `json:"leaf"`
	Path InclusionPath[H] `json:"path"`
}

type InclusionPath[H HasherDomain] struct {
	Path []PathElement[H] `json:"path"`
}

// PathElement holds the siblings of one level; Index is the position of the
// proven node among arity children.
type PathElement[H HasherDomain] struct {
	Hashes []H    `json:"hashes"`
	Index  uint64 `json:"index"`
}
