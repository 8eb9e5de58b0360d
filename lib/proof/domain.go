package proof

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/xerrors"
)

// DomainError is returned when a 32 byte buffer is not a canonical little-endian
// Fr element.
type DomainError struct {
	Err error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("invalid domain element: %s", e.Err)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// DomainFromBytes decodes a node into an Fr element without reducing it.
func DomainFromBytes(b []byte) (fr.Element, error) {
	if len(b) != NODE_SIZE {
		return fr.Element{}, &DomainError{Err: xerrors.Errorf("expected %d bytes, got %d", NODE_SIZE, len(b))}
	}

	var buf [NODE_SIZE]byte
	copy(buf[:], b)

	e, err := fr.LittleEndian.Element(&buf)
	if err != nil {
		return fr.Element{}, &DomainError{Err: err}
	}
	return e, nil
}

func DomainToBytes(e *fr.Element) PoseidonDomain {
	var out PoseidonDomain
	fr.LittleEndian.PutElement((*[NODE_SIZE]byte)(&out), *e)
	return out
}

// IsDomain reports whether b holds a canonical Fr element.
func IsDomain(b []byte) bool {
	_, err := DomainFromBytes(b)
	return err == nil
}
