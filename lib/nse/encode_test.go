package nse

import (
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/go-nse/lib/proof"
)

func TestCombine(t *testing.T) {
	var key, data proof.PoseidonDomain
	key[0], data[0] = 1, 2

	enc, err := Combine(key, data)
	require.NoError(t, err)
	require.EqualValues(t, 3, enc[0])

	dec, err := InverseCombine(key, enc)
	require.NoError(t, err)
	require.Equal(t, data, dec)
}

func TestCombineWraps(t *testing.T) {
	var minusOne fr.Element
	minusOne.SetOne()
	minusOne.Neg(&minusOne)

	var data proof.PoseidonDomain
	data[0] = 2

	enc, err := Combine(proof.DomainToBytes(&minusOne), data)
	require.NoError(t, err)

	var one proof.PoseidonDomain
	one[0] = 1
	require.Equal(t, one, enc)

	dec, err := InverseCombine(proof.DomainToBytes(&minusOne), enc)
	require.NoError(t, err)
	require.Equal(t, data, dec)
}

func TestCombineRejectsNonCanonical(t *testing.T) {
	var key, bad proof.PoseidonDomain
	for i := range bad {
		bad[i] = 0xff
	}

	_, err := Combine(key, bad)
	var derr *proof.DomainError
	require.True(t, errors.As(err, &derr))

	_, err = InverseCombine(bad, key)
	require.True(t, errors.As(err, &derr))
}

func TestEncodeDecodeNodes(t *testing.T) {
	keys := randomNodes(t, 10, 16*proof.NODE_SIZE)
	data := randomNodes(t, 11, 16*proof.NODE_SIZE)

	enc := make([]byte, len(data))
	require.NoError(t, EncodeNodes(keys, data, enc))
	require.NotEqual(t, data, enc)

	// decoding in place
	require.NoError(t, DecodeNodes(keys, enc, enc))
	require.Equal(t, data, enc)

	require.Error(t, EncodeNodes(keys, data[:proof.NODE_SIZE], enc))
}
