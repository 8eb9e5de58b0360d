package proof

import (
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"
)

func TestTruncateHash(t *testing.T) {
	var node [NODE_SIZE]byte
	for i := range node {
		node[i] = 0xff
	}
	require.False(t, IsDomain(node[:]))

	TruncateHash(node[:])
	require.Equal(t, byte(0x3f), node[NODE_SIZE-1])
	require.Equal(t, byte(0xff), node[0])
	require.True(t, IsDomain(node[:]))
}

func TestDomainRoundtrip(t *testing.T) {
	var e fr.Element
	_, err := e.SetRandom()
	require.NoError(t, err)

	b := DomainToBytes(&e)
	back, err := DomainFromBytes(b[:])
	require.NoError(t, err)
	require.True(t, e.Equal(&back))
}

func TestDomainErrors(t *testing.T) {
	var de *DomainError

	_, err := DomainFromBytes(make([]byte, 31))
	require.True(t, errors.As(err, &de))

	// the modulus itself is not canonical
	mod := fr.Modulus().Bytes()
	var le [NODE_SIZE]byte
	for i := range mod {
		le[len(mod)-1-i] = mod[i]
	}
	_, err = DomainFromBytes(le[:])
	require.True(t, errors.As(err, &de))
}
