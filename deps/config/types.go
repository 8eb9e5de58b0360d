package config

import (
	units "github.com/docker/go-units"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-nse/lib/nse"
	"github.com/filecoin-project/go-nse/lib/proof"
)

func DefaultNSEConfig() *NSEConfig {
	return &NSEConfig{
		Params: Params{
			K:                  8,
			WindowSize:         2 << 10,
			DegreeExpander:     12,
			DegreeButterfly:    4,
			NumExpanderLayers:  6,
			NumButterflyLayers: 4,
		},
		Store: StoreParams{
			Path:          "",
			Hasher:        HasherPoseidon,
			Arity:         8,
			RowsToDiscard: -1,
		},
		Logging: Logging{
			SubsystemLevels: map[string]string{},
		},
	}
}

// NSEConfig is the on-disk configuration of the nse tool.
type NSEConfig struct {
	Params  Params
	Store   StoreParams
	Logging Logging
}

// Params are the labelling parameters of a window.
type Params struct {
	// Number of parent nodes gathered per hash engine update. Does not change labels.
	K uint32
	// Size of a window, accepts human readable sizes such as "2KiB" or "4MiB".
	WindowSize Size

	// Number of parents of an expander node.
	DegreeExpander int
	// Number of parents of a butterfly node, must be even.
	DegreeButterfly int
	// Number of expander layers, the mask layer included.
	NumExpanderLayers int
	// Number of butterfly layers, the encoding layer included.
	NumButterflyLayers int
}

const (
	HasherPoseidon = "poseidon"
	HasherSha254   = "sha254"
)

// StoreParams configures how layer trees are built and where they are persisted.
type StoreParams struct {
	// Directory the layer trees are written to. Trees are kept in memory only when empty.
	Path string
	// Tree hash function: "poseidon" level cache trees or binary "sha254" memtrees.
	Hasher string
	// Arity of the poseidon layer trees: 2, 4 or 8. Sha254 trees are always binary.
	Arity int
	// Number of tree rows above the base regenerated on demand instead of cached.
	// -1 picks a default from the tree height.
	RowsToDiscard int
}

// Logging is the logging system config
type Logging struct {
	// SubsystemLevels specify per-subsystem log levels
	SubsystemLevels map[string]string
}

// Size is a byte size in config files, encoded as a human readable string.
type Size int64

func (s *Size) UnmarshalText(text []byte) error {
	v, err := units.RAMInBytes(string(text))
	if err != nil {
		return xerrors.Errorf("parsing size %q: %w", string(text), err)
	}
	*s = Size(v)
	return nil
}

func (s Size) MarshalText() ([]byte, error) {
	return []byte(units.BytesSize(float64(s))), nil
}

// ToNSE converts the params into a validated labelling config.
func (p Params) ToNSE() (*nse.Config, error) {
	cfg := &nse.Config{
		K:                  p.K,
		N:                  int(p.WindowSize),
		DegreeExpander:     p.DegreeExpander,
		DegreeButterfly:    p.DegreeButterfly,
		NumExpanderLayers:  p.NumExpanderLayers,
		NumButterflyLayers: p.NumButterflyLayers,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TreeBuilder returns the layer tree builder selected by Hasher.
func (s StoreParams) TreeBuilder() (proof.TreeBuilder, error) {
	switch s.Hasher {
	case HasherPoseidon, "":
		tb, err := proof.NewLCTreeBuilder(s.Arity)
		if err != nil {
			return nil, err
		}
		return tb, nil
	case HasherSha254:
		return proof.Sha254TreeBuilder{}, nil
	default:
		return nil, xerrors.Errorf("unknown tree hasher %q", s.Hasher)
	}
}

// StoreConfig returns the base store config for trees over leafs nodes.
func (s StoreParams) StoreConfig(leafs int) (proof.StoreConfig, error) {
	tb, err := s.TreeBuilder()
	if err != nil {
		return proof.StoreConfig{}, err
	}
	if s.Hasher == HasherSha254 {
		// memtrees keep every row
		return proof.StoreConfig{Path: s.Path}, nil
	}

	rows := proof.DefaultRowsToDiscard(int64(leafs), int64(tb.Arity()))
	if s.RowsToDiscard >= 0 {
		rows = uint64(s.RowsToDiscard)
	}

	return proof.StoreConfig{
		Path:          s.Path,
		RowsToDiscard: rows,
	}, nil
}
