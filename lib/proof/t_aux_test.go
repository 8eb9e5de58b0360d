package proof

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelsAuxRoundtrip(t *testing.T) {
	size := uint64(TreeLen(64, 8))
	base := StoreConfig{Path: "/tmp/cache", RowsToDiscard: DefaultRowsToDiscard(64, 8)}

	aux := LabelsAux{Window: 7}
	for layer := uint32(1); layer <= 3; layer++ {
		aux.Labels = append(aux.Labels, StoreConfigFromConfig(base, CacheKeyLabelLayerWithWindow(layer, 7), &size))
	}
	aux.Labels = append(aux.Labels, StoreConfig{ID: "no-size"})

	var buf bytes.Buffer
	require.NoError(t, EncodeLabelsAux(&buf, aux))

	out, err := DecodeLabelsAux(&buf)
	require.NoError(t, err)
	require.Equal(t, aux, *out)
	require.Equal(t, "layer-2-window-7", out.Labels[1].ID)
	require.Nil(t, out.Labels[3].Size)
}

func TestLabelsAuxBounds(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLE(&buf, uint32(1)))
	require.NoError(t, WriteLE(&buf, uint64(1)))
	require.NoError(t, WriteLE(&buf, uint64(1)<<62)) // path length
	_, err := DecodeLabelsAux(&buf)
	require.ErrorContains(t, err, "exceeds")

	buf.Reset()
	require.NoError(t, WriteLE(&buf, uint32(1)))
	require.NoError(t, WriteLE(&buf, uint64(1)<<40))
	_, err = DecodeLabelsAux(&buf)
	require.ErrorContains(t, err, "at most")

	require.Error(t, WriteString(&buf, string(make([]byte, MaxStringLen+1))))

	buf.Reset()
	require.NoError(t, WriteString(&buf, string(make([]byte, MaxStringLen))))
	s, err := ReadString(&buf)
	require.NoError(t, err)
	require.Len(t, s, MaxStringLen)
}

func TestLabelsAuxFile(t *testing.T) {
	dir := t.TempDir()

	aux := LabelsAux{Window: 3, Labels: []StoreConfig{{Path: dir, ID: CacheKeyLabelLayerWithWindow(1, 3), RowsToDiscard: 1}}}
	require.NoError(t, WriteLabelsAux(dir, aux))

	out, err := ReadLabelsAux(dir, 3)
	require.NoError(t, err)
	require.Equal(t, aux, *out)

	_, err = ReadLabelsAux(dir, 4)
	require.Error(t, err)
}

func TestDefaultRowsToDiscard(t *testing.T) {
	require.EqualValues(t, 0, DefaultRowsToDiscard(8, 8))  // 2 rows
	require.EqualValues(t, 1, DefaultRowsToDiscard(64, 8)) // 3 rows
	require.EqualValues(t, 2, DefaultRowsToDiscard(512, 8))
	require.EqualValues(t, 2, DefaultRowsToDiscard(1<<20, 8))
}

func TestCommAux(t *testing.T) {
	dir := t.TempDir()

	var commLayers, commReplica PoseidonDomain
	commLayers[0], commReplica[31] = 1, 2
	require.NoError(t, WriteCommAux(dir, 9, commLayers, commReplica))

	cl, cr, err := ReadCommAux(dir, 9)
	require.NoError(t, err)
	require.Equal(t, commLayers, cl)
	require.Equal(t, commReplica, cr)

	_, _, err = ReadCommAux(dir, 8)
	require.Error(t, err)
}
