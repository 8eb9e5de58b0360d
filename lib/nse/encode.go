package nse

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-nse/lib/proof"
)

// CombineOp selects how the final layer folds its key with the input node.
type CombineOp int

const (
	// OpEncode computes replica = key + data.
	OpEncode CombineOp = iota
	// OpDecode computes data = replica - key.
	OpDecode
)

func (op CombineOp) String() string {
	switch op {
	case OpEncode:
		return "encode"
	case OpDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Apply combines a key node with an input node into out. All three are 32 byte
// little-endian Fr elements; out may alias in.
func (op CombineOp) Apply(key, in, out []byte) error {
	k, err := proof.DomainFromBytes(key)
	if err != nil {
		return xerrors.Errorf("key: %w", err)
	}
	v, err := proof.DomainFromBytes(in)
	if err != nil {
		return xerrors.Errorf("input: %w", err)
	}

	var r fr.Element
	switch op {
	case OpEncode:
		r.Add(&k, &v)
	case OpDecode:
		r.Sub(&v, &k)
	default:
		return xerrors.Errorf("unknown combine op %d", op)
	}

	res := proof.DomainToBytes(&r)
	copy(out, res[:])
	return nil
}

// Combine encodes a single data node under key.
func Combine(key, data proof.PoseidonDomain) (proof.PoseidonDomain, error) {
	var out proof.PoseidonDomain
	err := OpEncode.Apply(key[:], data[:], out[:])
	return out, err
}

// InverseCombine recovers a data node from its encoding under key.
func InverseCombine(key, encoded proof.PoseidonDomain) (proof.PoseidonDomain, error) {
	var out proof.PoseidonDomain
	err := OpDecode.Apply(key[:], encoded[:], out[:])
	return out, err
}

// EncodeNodes applies OpEncode node-wise over equally sized buffers.
func EncodeNodes(keys, data, out []byte) error {
	return applyNodes(OpEncode, keys, data, out)
}

// DecodeNodes applies OpDecode node-wise over equally sized buffers.
func DecodeNodes(keys, replica, out []byte) error {
	return applyNodes(OpDecode, keys, replica, out)
}

func applyNodes(op CombineOp, keys, in, out []byte) error {
	if len(keys) != len(in) || len(in) != len(out) || len(in)%proof.NODE_SIZE != 0 {
		return xerrors.Errorf("%s: mismatched buffers key=%d in=%d out=%d", op, len(keys), len(in), len(out))
	}

	for off := 0; off < len(in); off += proof.NODE_SIZE {
		end := off + proof.NODE_SIZE
		if err := op.Apply(keys[off:end], in[off:end], out[off:end]); err != nil {
			return xerrors.Errorf("%s node %d: %w", op, off/proof.NODE_SIZE, err)
		}
	}
	return nil
}
