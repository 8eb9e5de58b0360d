package proof

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

func commAuxName(window uint32) string {
	return fmt.Sprintf("comm_aux-%d", window)
}

// ReadCommAux returns the layer commitment and the replica layer root of a window.
func ReadCommAux(cache string, window uint32) (PoseidonDomain, PoseidonDomain, error) {
	commLayersCommReplica, err := os.ReadFile(filepath.Join(cache, commAuxName(window)))
	if err != nil {
		return PoseidonDomain{}, PoseidonDomain{}, err
	}

	if len(commLayersCommReplica) != 2*NODE_SIZE {
		return PoseidonDomain{}, PoseidonDomain{}, xerrors.Errorf("invalid comm aux length %d", len(commLayersCommReplica))
	}

	var commLayers, commReplica PoseidonDomain
	copy(commLayers[:], commLayersCommReplica[:NODE_SIZE])
	copy(commReplica[:], commLayersCommReplica[NODE_SIZE:])

	return commLayers, commReplica, nil
}

func WriteCommAux(cache string, window uint32, commLayers, commReplica PoseidonDomain) error {
	commLayersCommReplica := make([]byte, 2*NODE_SIZE)
	copy(commLayersCommReplica[:NODE_SIZE], commLayers[:])
	copy(commLayersCommReplica[NODE_SIZE:], commReplica[:])

	return os.WriteFile(filepath.Join(cache, commAuxName(window)), commLayersCommReplica, 0644)
}
