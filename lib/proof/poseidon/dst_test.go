package poseidondst

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"
)

func TestMerkleTreeDST(t *testing.T) {
	for _, tc := range []struct {
		dst  DST
		want uint64
	}{
		{MerkleTreeDST[Arity2]{}, 3},
		{MerkleTreeDST[Arity4]{}, 15},
		{MerkleTreeDST[Arity8]{}, 255},
	} {
		want := fr.NewElement(tc.want)
		require.True(t, want.Equal(tc.dst.DST()), "tag for %d", tc.want)
	}
}

func TestDSTElementSetString(t *testing.T) {
	var e MerkleTree8
	_, err := e.SetString("3")
	require.NoError(t, err)

	want := fr.NewElement(255)
	require.True(t, want.Equal(&e.Element))

	_, err = e.SetString("42")
	require.NoError(t, err)
	want = fr.NewElement(42)
	require.True(t, want.Equal(&e.Element))
}
