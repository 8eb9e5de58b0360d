package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/go-nse/lib/nse"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultNSEConfig()

	ncfg, err := cfg.Params.ToNSE()
	require.NoError(t, err)
	assert.Equal(t, 2048, ncfg.N)
	assert.Equal(t, 10, ncfg.NumLayers())

	sc, err := cfg.Store.StoreConfig(ncfg.NumLeafs())
	require.NoError(t, err)
	// 64 leafs in an arity 8 tree have 3 rows, the one below the root stays
	assert.EqualValues(t, 1, sc.RowsToDiscard)
}

func TestFromReader(t *testing.T) {
	text := `
[Params]
  K = 4
  WindowSize = "8KiB"

[Store]
  Path = "/tmp/trees"
  Arity = 4
  RowsToDiscard = 2
`
	cfg, err := FromReader(strings.NewReader(text), DefaultNSEConfig())
	require.NoError(t, err)

	assert.EqualValues(t, 4, cfg.Params.K)
	assert.EqualValues(t, 8<<10, cfg.Params.WindowSize)
	assert.Equal(t, 12, cfg.Params.DegreeExpander)
	assert.Equal(t, "/tmp/trees", cfg.Store.Path)

	sc, err := cfg.Store.StoreConfig(256)
	require.NoError(t, err)
	assert.EqualValues(t, 2, sc.RowsToDiscard)
	assert.Equal(t, "/tmp/trees", sc.Path)
}

func TestFromReaderRejects(t *testing.T) {
	_, err := FromReader(strings.NewReader("[Params]\n  Bogus = 1\n"), DefaultNSEConfig())
	require.ErrorContains(t, err, "Params.Bogus")

	_, err = FromReader(strings.NewReader("[Params]\n  WindowSize = \"lots\"\n"), DefaultNSEConfig())
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NSE_PARAMS_K", "2")
	t.Setenv("NSE_PARAMS_WINDOWSIZE", "4KiB")

	cfg, err := FromReader(strings.NewReader(""), DefaultNSEConfig())
	require.NoError(t, err)
	assert.EqualValues(t, 2, cfg.Params.K)
	assert.EqualValues(t, 4<<10, cfg.Params.WindowSize)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := FromFile(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultNSEConfig(), cfg)

	errNoDefault := errors.New("no default")
	_, err = FromFile(filepath.Join(dir, "missing.toml"), SetCanFallbackOnDefault(func() error { return errNoDefault }))
	require.ErrorIs(t, err, errNoDefault)

	path := filepath.Join(dir, "nse.toml")
	require.NoError(t, os.WriteFile(path, []byte("[Params]\n  NumButterflyLayers = 5\n"), 0644))

	// the fallback hook only runs for missing files
	cfg, err = FromFile(path, SetCanFallbackOnDefault(func() error { return errNoDefault }))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Params.NumButterflyLayers)

	require.NoError(t, os.WriteFile(path, []byte("[Params]\n  Unknown = 1\n"), 0644))
	_, err = FromFile(path)
	require.ErrorContains(t, err, "Params.Unknown")
}

func TestInvalidParams(t *testing.T) {
	cfg := DefaultNSEConfig()
	cfg.Params.WindowSize = 3 << 10

	_, err := cfg.Params.ToNSE()
	var cerr *nse.ConfigError
	require.True(t, errors.As(err, &cerr))

	_, err = StoreParams{Arity: 3}.StoreConfig(64)
	require.Error(t, err)
}

func TestConfigUpdateRoundtrip(t *testing.T) {
	cur := DefaultNSEConfig()
	cur.Params.K = 16
	cur.Store.Path = "/var/nse"

	out, err := ConfigUpdate(cur, DefaultNSEConfig(), Commented(true))
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# env var: NSE_PARAMS_K")
	assert.Contains(t, text, "  K = 16")
	assert.Contains(t, text, `#DegreeExpander = 12`)
	assert.Contains(t, text, `#WindowSize = "2KiB"`)

	parsed, err := FromReader(strings.NewReader(text), DefaultNSEConfig())
	require.NoError(t, err)
	assert.Equal(t, cur.Params, parsed.Params)
	assert.Equal(t, cur.Store, parsed.Store)

	out, err = ConfigUpdate(cur, DefaultNSEConfig(), Commented(true), NoEnv())
	require.NoError(t, err)
	assert.NotContains(t, string(out), "# env var:")
	assert.Contains(t, string(out), "  K = 16")
}

func TestConfigComment(t *testing.T) {
	out, err := ConfigComment(DefaultNSEConfig())
	require.NoError(t, err)

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '[' {
			continue
		}
		assert.Equal(t, byte('#'), line[0], line)
	}
}

func TestTreeBuilderSelection(t *testing.T) {
	sp := DefaultNSEConfig().Store

	tb, err := sp.TreeBuilder()
	require.NoError(t, err)
	assert.Equal(t, 8, tb.Arity())

	sp.Hasher = HasherSha254
	tb, err = sp.TreeBuilder()
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Arity())

	sc, err := sp.StoreConfig(64)
	require.NoError(t, err)
	assert.EqualValues(t, 0, sc.RowsToDiscard)

	sp.Hasher = "blake"
	_, err = sp.TreeBuilder()
	require.Error(t, err)
}
