package nse

import (
	"fmt"
	"math/bits"

	"github.com/filecoin-project/go-nse/lib/proof"
)

// Config holds the parameters of one window's labelling.
type Config struct {
	// K is the number of parent nodes gathered per hash engine update.
	K uint32
	// N is the window size in bytes.
	N int

	DegreeExpander     int
	DegreeButterfly    int
	NumExpanderLayers  int
	NumButterflyLayers int
}

// ConfigError reports invalid parameters or stage arguments. It is returned before
// any hashing happens.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "nse config: " + e.Reason
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

func (c *Config) NumLayers() int {
	return c.NumExpanderLayers + c.NumButterflyLayers
}

func (c *Config) NumLeafs() int {
	return c.N / proof.NODE_SIZE
}

func (c *Config) Validate() error {
	switch {
	case c.N <= 0 || c.N%proof.NODE_SIZE != 0:
		return configErrorf("window size %d must be a positive multiple of %d", c.N, proof.NODE_SIZE)
	case bits.OnesCount(uint(c.NumLeafs())) != 1:
		return configErrorf("window must hold a power of two number of nodes, got %d", c.NumLeafs())
	case uint64(c.NumLeafs()) > 1<<32:
		return configErrorf("window of %d nodes cannot be addressed with 32 bit indexes", c.NumLeafs())
	case c.K == 0:
		return configErrorf("batching factor k must be positive")
	case c.DegreeExpander <= 0:
		return configErrorf("expander degree must be positive, got %d", c.DegreeExpander)
	case c.DegreeButterfly <= 0 || c.DegreeButterfly%2 != 0:
		return configErrorf("butterfly degree must be positive and even, got %d", c.DegreeButterfly)
	case c.NumExpanderLayers < 1:
		return configErrorf("at least one expander layer (the mask) is required, got %d", c.NumExpanderLayers)
	case c.NumButterflyLayers < 1:
		return configErrorf("at least one butterfly layer (the encoding layer) is required, got %d", c.NumButterflyLayers)
	}
	return nil
}

func (c *Config) ExpanderGraph() ExpanderGraph {
	return ExpanderGraph{
		Bits:   uint32(bits.TrailingZeros(uint(c.NumLeafs()))),
		Degree: c.DegreeExpander,
	}
}

func (c *Config) ButterflyGraph() ButterflyGraph {
	return ButterflyGraph{
		Degree:             c.DegreeButterfly,
		NumNodes:           uint32(c.NumLeafs()),
		NumExpanderLayers:  uint32(c.NumExpanderLayers),
		NumButterflyLayers: uint32(c.NumButterflyLayers),
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("nse(k=%d n=%d expander=%dx%d butterfly=%dx%d)",
		c.K, c.N, c.NumExpanderLayers, c.DegreeExpander, c.NumButterflyLayers, c.DegreeButterfly)
}

// checkBuffer validates a layer buffer length.
func (c *Config) checkBuffer(name string, buf []byte) error {
	if len(buf) != c.N {
		return configErrorf("%s must be of size %d, got %d", name, c.N, len(buf))
	}
	return nil
}
