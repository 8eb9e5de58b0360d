package proof

import (
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/triplewz/poseidon"
	"golang.org/x/xerrors"

	poseidondst "github.com/filecoin-project/go-nse/lib/proof/poseidon"
)

var (
	consts = map[int]any{}
	lk     sync.Mutex
)

// HashNodes compresses arity children into their parent node using the neptune
// merkle-tree poseidon instance of that arity.
func HashNodes(children []PoseidonDomain) (PoseidonDomain, error) {
	switch len(children) {
	case 2:
		return poseidonHashMulti[poseidondst.Arity2](children)
	case 4:
		return poseidonHashMulti[poseidondst.Arity4](children)
	case 8:
		return poseidonHashMulti[poseidondst.Arity8](children)
	default:
		return PoseidonDomain{}, xerrors.Errorf("unsupported poseidon arity %d", len(children))
	}
}

func poseidonHashMulti[A poseidondst.Arity](vals []PoseidonDomain) (PoseidonDomain, error) {
	arity := (*new(A)).Arity()
	if len(vals) != arity {
		return PoseidonDomain{}, xerrors.Errorf("poseidon arity %d called with %d values", arity, len(vals))
	}

	type E = *poseidondst.DSTElement[poseidondst.MerkleTreeDST[A]]

	lk.Lock()
	cons, ok := consts[arity].(*poseidon.PoseidonConst[E])
	if !ok {
		var err error
		cons, err = poseidon.GenPoseidonConstants[E](arity + 1)
		if err != nil {
			lk.Unlock()
			return PoseidonDomain{}, xerrors.Errorf("generating poseidon constants for arity %d: %w", arity, err)
		}
		consts[arity] = cons
	}
	lk.Unlock()

	bigs := make([]*big.Int, len(vals))
	for i, v := range vals {
		bigs[i] = domainToBigInt(v)
	}

	h, err := poseidon.Hash(bigs, cons, poseidon.OptimizedStatic)
	if err != nil {
		return PoseidonDomain{}, xerrors.Errorf("poseidon hash: %w", err)
	}

	var el fr.Element
	el.SetBigInt(h)
	return DomainToBytes(&el), nil
}

// domainToBigInt interprets a PoseidonDomain as a little-endian integer.
func domainToBigInt(d PoseidonDomain) *big.Int {
	be := make([]byte, NODE_SIZE)
	for i := 0; i < NODE_SIZE; i++ {
		be[NODE_SIZE-1-i] = d[i]
	}
	return new(big.Int).SetBytes(be)
}
