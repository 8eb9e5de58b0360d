package nse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpanderParents(t *testing.T) {
	g := testConfig().ExpanderGraph()

	for node := uint32(0); node < 64; node++ {
		parents := g.Parents(node)
		require.Len(t, parents, 12)
		for _, p := range parents {
			require.Less(t, p, uint32(64))
		}
		require.Equal(t, parents, g.Parents(node))
	}

	require.NotEqual(t, g.Parents(0), g.Parents(1))
}

func TestExpanderParentsWideIndexes(t *testing.T) {
	// 30 bit indexes need more than one digest for a degree of 12
	g := ExpanderGraph{Bits: 30, Degree: 12}
	parents := g.Parents(7)
	for _, p := range parents {
		require.Less(t, p, uint32(1<<30))
	}

	// the second digest must contribute fresh parents
	require.NotEqual(t, parents[:4], parents[8:])
}

func TestLoadBitsLE(t *testing.T) {
	b := []byte{0b1010_1100, 0b0000_0011}

	require.EqualValues(t, 0b1100, loadBitsLE(b, 0, 4))
	require.EqualValues(t, 0b1010, loadBitsLE(b, 4, 4))
	require.EqualValues(t, 0b11_1010_11, loadBitsLE(b, 2, 8))
}

func TestButterflyStrides(t *testing.T) {
	g := testConfig().ButterflyGraph()

	// 64 nodes of degree 4 take 3 stages
	require.EqualValues(t, 3, g.stages())
	require.EqualValues(t, 1, g.Stride(7))
	require.EqualValues(t, 16, g.Stride(8))
	require.EqualValues(t, 4, g.Stride(9))
	require.EqualValues(t, 1, g.Stride(10))

	require.Equal(t, []uint32{5, 21, 37, 53}, g.Parents(5, 8))
	require.Equal(t, []uint32{62, 63, 0, 1}, g.Parents(62, 10))
}

func TestButterflyParentsInRange(t *testing.T) {
	cfg := testConfig()
	g := cfg.ButterflyGraph()

	for layer := uint32(cfg.NumExpanderLayers + 1); int(layer) <= cfg.NumLayers(); layer++ {
		for node := uint32(0); node < g.NumNodes; node++ {
			parents := g.Parents(node, layer)
			require.Len(t, parents, cfg.DegreeButterfly)
			require.Equal(t, node, parents[0])

			seen := map[uint32]bool{}
			for _, p := range parents {
				require.Less(t, p, g.NumNodes)
				require.False(t, seen[p], "duplicate parent %d of node %d layer %d", p, node, layer)
				seen[p] = true
			}
		}
	}
}
