package proof

import (
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"
)

// Helpers for the rust bincode layout used by merkletree store configs:
// little-endian fixed ints, u64 length prefixed strings.

// MaxStringLen bounds decoded strings; store paths and ids never come close.
const MaxStringLen = 4 << 10

func ReadLE[T any](r io.Reader) (T, error) {
	var out T
	err := binary.Read(r, binary.LittleEndian, &out)
	return out, err
}

func ReadString(r io.Reader) (string, error) {
	l, err := ReadLE[uint64](r)
	if err != nil {
		return "", xerrors.Errorf("failed to read string length: %w", err)
	}
	if l > MaxStringLen {
		return "", xerrors.Errorf("string length %d exceeds %d", l, MaxStringLen)
	}

	buf := make([]byte, l)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", xerrors.Errorf("failed to read string: %w", err)
	}

	return string(buf), nil
}

func WriteLE[T any](w io.Writer, data T) error {
	return binary.Write(w, binary.LittleEndian, data)
}

func WriteString(w io.Writer, s string) error {
	if len(s) > MaxStringLen {
		return xerrors.Errorf("string length %d exceeds %d", len(s), MaxStringLen)
	}
	if err := WriteLE(w, uint64(len(s))); err != nil {
		return xerrors.Errorf("failed to write string length: %w", err)
	}
	if _, err := w.Write([]byte(s)); err != nil {
		return xerrors.Errorf("failed to write string: %w", err)
	}
	return nil
}
