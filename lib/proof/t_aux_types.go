package proof

import (
	"fmt"
	"io"

	"golang.org/x/xerrors"
)

type StoreConfig struct {
	// A directory in which data (a merkle tree) can be persisted.
	Path string

	// A unique identifier used to help specify the on-disk store location for this particular data.
	ID string

	// The number of elements in the DiskStore. This field is optional, and unused internally.
	Size *uint64

	// The number of merkle tree rows_to_discard then cache on disk.
	RowsToDiscard uint64
}

// StoreConfigFromConfig derives a per-tree config from a base config, keeping its
// path and row policy.
func StoreConfigFromConfig(base StoreConfig, id string, size *uint64) StoreConfig {
	return StoreConfig{
		Path:          base.Path,
		ID:            id,
		Size:          size,
		RowsToDiscard: base.RowsToDiscard,
	}
}

// CacheKeyLabelLayerWithWindow names the store of one label layer of one window.
func CacheKeyLabelLayerWithWindow(layer, window uint32) string {
	return fmt.Sprintf("layer-%d-window-%d", layer, window)
}

// DefaultRowsToDiscard caches all but the lowest rows of a tree, never discarding
// the row directly below the root.
func DefaultRowsToDiscard(leafs, arity int64) uint64 {
	rows := RowCount(leafs, arity)
	if rows <= 2 {
		return 0
	}
	return uint64(min(rows-2, 2))
}

// maxLabels bounds the layer count read from a labels aux file.
const maxLabels = 1 << 10

// LabelsAux records the store configs of all label layers of a window, in layer order.
type LabelsAux struct {
	Window uint32
	Labels []StoreConfig
}

func DecodeStoreConfig(r io.Reader) (StoreConfig, error) {
	var sc StoreConfig
	var err error

	sc.Path, err = ReadString(r)
	if err != nil {
		return StoreConfig{}, xerrors.Errorf("failed to decode path: %w", err)
	}

	sc.ID, err = ReadString(r)
	if err != nil {
		return StoreConfig{}, xerrors.Errorf("failed to decode ID: %w", err)
	}

	// Size in an option, so prefixed with a 0x01 byte if present or 0x00 if not.
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return StoreConfig{}, xerrors.Errorf("failed to read size present byte: %w", err)
	}
	if b[0] == 0x01 {
		size, err := ReadLE[uint64](r)
		if err != nil {
			return StoreConfig{}, xerrors.Errorf("failed to read size: %w", err)
		}
		sc.Size = &size
	}

	sc.RowsToDiscard, err = ReadLE[uint64](r)
	if err != nil {
		return StoreConfig{}, xerrors.Errorf("failed to read rows to discard: %w", err)
	}

	return sc, nil
}

func EncodeStoreConfig(w io.Writer, sc StoreConfig) error {
	if err := WriteString(w, sc.Path); err != nil {
		return xerrors.Errorf("failed to encode path: %w", err)
	}

	if err := WriteString(w, sc.ID); err != nil {
		return xerrors.Errorf("failed to encode ID: %w", err)
	}

	if sc.Size != nil {
		if _, err := w.Write([]byte{0x01}); err != nil {
			return xerrors.Errorf("failed to write size present byte: %w", err)
		}
		if err := WriteLE(w, *sc.Size); err != nil {
			return xerrors.Errorf("failed to write size: %w", err)
		}
	} else {
		if _, err := w.Write([]byte{0x00}); err != nil {
			return xerrors.Errorf("failed to write size absent byte: %w", err)
		}
	}

	if err := WriteLE(w, sc.RowsToDiscard); err != nil {
		return xerrors.Errorf("failed to write rows to discard: %w", err)
	}

	return nil
}

func EncodeLabelsAux(w io.Writer, aux LabelsAux) error {
	if err := WriteLE(w, aux.Window); err != nil {
		return xerrors.Errorf("failed to write window index: %w", err)
	}

	if err := WriteLE(w, uint64(len(aux.Labels))); err != nil {
		return xerrors.Errorf("failed to write number of labels: %w", err)
	}

	for i, label := range aux.Labels {
		if err := EncodeStoreConfig(w, label); err != nil {
			return xerrors.Errorf("failed to encode label %d: %w", i, err)
		}
	}

	return nil
}

func DecodeLabelsAux(r io.Reader) (*LabelsAux, error) {
	window, err := ReadLE[uint32](r)
	if err != nil {
		return nil, xerrors.Errorf("failed to read window index: %w", err)
	}

	numLabels, err := ReadLE[uint64](r)
	if err != nil {
		return nil, xerrors.Errorf("failed to read number of labels: %w", err)
	}

	if numLabels > maxLabels {
		return nil, xerrors.Errorf("labels aux lists %d layers, at most %d supported", numLabels, maxLabels)
	}

	labels := make([]StoreConfig, numLabels)
	for i := range labels {
		labels[i], err = DecodeStoreConfig(r)
		if err != nil {
			return nil, xerrors.Errorf("failed to decode label %d: %w", i, err)
		}
	}

	return &LabelsAux{Window: window, Labels: labels}, nil
}
