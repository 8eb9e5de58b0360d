package proof

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

func labelsAuxName(window uint32) string {
	return fmt.Sprintf("labels_aux-%d", window)
}

// WriteLabelsAux persists the layer store configs of a window next to its trees.
func WriteLabelsAux(dir string, aux LabelsAux) error {
	var buf bytes.Buffer
	if err := EncodeLabelsAux(&buf, aux); err != nil {
		return xerrors.Errorf("failed to encode labels aux: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, labelsAuxName(aux.Window)), buf.Bytes(), 0644); err != nil {
		return xerrors.Errorf("failed to write labels aux file: %w", err)
	}

	return nil
}

func ReadLabelsAux(dir string, window uint32) (*LabelsAux, error) {
	f, err := os.Open(filepath.Join(dir, labelsAuxName(window)))
	if err != nil {
		return nil, err
	}
	defer f.Close() // nolint:errcheck

	aux, err := DecodeLabelsAux(f)
	if err != nil {
		return nil, xerrors.Errorf("decoding labels aux for window %d: %w", window, err)
	}
	if aux.Window != window {
		return nil, xerrors.Errorf("labels aux window mismatch: file has %d, want %d", aux.Window, window)
	}

	return aux, nil
}
