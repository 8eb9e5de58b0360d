package proof

import (
	"golang.org/x/xerrors"
)

// CommLayers folds the roots of all label layer trees of a window into a single
// commitment. Roots are hashed in arity-8 groups, the last group zero padded,
// until one node remains; a single root is returned as is.
func CommLayers(roots []PoseidonDomain) (PoseidonDomain, error) {
	if len(roots) == 0 {
		return PoseidonDomain{}, xerrors.Errorf("no layer roots provided")
	}

	const arity = 8

	level := roots
	for len(level) > 1 {
		next := make([]PoseidonDomain, 0, (len(level)+arity-1)/arity)
		for start := 0; start < len(level); start += arity {
			group := make([]PoseidonDomain, arity)
			copy(group, level[start:min(start+arity, len(level))])

			h, err := HashNodes(group)
			if err != nil {
				return PoseidonDomain{}, xerrors.Errorf("hashing layer roots: %w", err)
			}
			next = append(next, h)
		}
		level = next
	}

	return level[0], nil
}
