package nse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	cfg := testConfig()
	require.Equal(t, 10, cfg.NumLayers())
	require.Equal(t, 64, cfg.NumLeafs())
	require.EqualValues(t, 6, cfg.ExpanderGraph().Bits)

	cases := map[string]func(c *Config){
		"zero size":          func(c *Config) { c.N = 0 },
		"partial node":       func(c *Config) { c.N = 2047 },
		"not power of two":   func(c *Config) { c.N = 3 * 32 },
		"zero k":             func(c *Config) { c.K = 0 },
		"zero expander deg":  func(c *Config) { c.DegreeExpander = 0 },
		"odd butterfly deg":  func(c *Config) { c.DegreeButterfly = 3 },
		"zero butterfly deg": func(c *Config) { c.DegreeButterfly = 0 },
		"no mask":            func(c *Config) { c.NumExpanderLayers = 0 },
		"no encoding layer":  func(c *Config) { c.NumButterflyLayers = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := testConfig()
			mutate(c)

			err := c.Validate()
			require.Error(t, err)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
		})
	}
}

func TestCheckBuffer(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.checkBuffer("layer_in", make([]byte, cfg.N)))

	err := cfg.checkBuffer("layer_in", make([]byte, cfg.N-1))
	require.ErrorContains(t, err, "layer_in must be of size 2048, got 2047")
}
