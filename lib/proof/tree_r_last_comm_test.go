package proof

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommLayers(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := CommLayers(nil)
		require.Error(t, err)
	})

	t.Run("1", func(t *testing.T) {
		in := []PoseidonDomain{{0x01}}
		got, err := CommLayers(in)
		require.NoError(t, err)
		require.Equal(t, in[0], got)
	})

	t.Run("8", func(t *testing.T) {
		in := make([]PoseidonDomain, 8)
		for i := range in {
			in[i][0] = byte(i + 1)
		}
		want, err := HashNodes(in)
		require.NoError(t, err)

		got, err := CommLayers(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("10_padded_then_folded", func(t *testing.T) {
		in := make([]PoseidonDomain, 10)
		for i := range in {
			in[i][0] = byte(i + 1)
		}

		h0, err := HashNodes(in[:8])
		require.NoError(t, err)
		tail := make([]PoseidonDomain, 8)
		copy(tail, in[8:])
		h1, err := HashNodes(tail)
		require.NoError(t, err)
		want, err := HashNodes([]PoseidonDomain{h0, h1, {}, {}, {}, {}, {}, {}})
		require.NoError(t, err)

		got, err := CommLayers(in)
		require.NoError(t, err)
		require.Equal(t, want, got)

		// input order matters
		in[0], in[1] = in[1], in[0]
		swapped, err := CommLayers(in)
		require.NoError(t, err)
		require.NotEqual(t, got, swapped)
	})
}
