package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/kelseyhightower/envconfig"
	"github.com/samber/lo"
	"golang.org/x/xerrors"
)

// EnvPrefix is the prefix of environment overrides, e.g. NSE_PARAMS_K.
const EnvPrefix = "NSE"

// FromFile loads config from a specified file overriding defaults.
// If file does not exist defaults are assumed.
func FromFile(path string, opts ...LoadCfgOpt) (*NSEConfig, error) {
	loadOpts, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	def := DefaultNSEConfig()

	// check for loadability
	file, err := os.Open(path)
	switch {
	case os.IsNotExist(err):
		if loadOpts.canFallbackOnDefault != nil {
			if err := loadOpts.canFallbackOnDefault(); err != nil {
				return nil, err
			}
		}
		return FromReader(strings.NewReader(""), def)
	case err != nil:
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	return FromReader(file, def)
}

// FromReader decodes TOML on top of def and applies environment overrides.
func FromReader(reader io.Reader, def *NSEConfig) (*NSEConfig, error) {
	cfg := def

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}

	md, err := toml.Decode(buf.String(), cfg)
	if err != nil {
		return nil, err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := lo.Map(undecoded, func(k toml.Key, _ int) string { return k.String() })
		return nil, xerrors.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	err = envconfig.Process(EnvPrefix, cfg)
	if err != nil {
		return nil, fmt.Errorf("processing env vars overrides: %s", err)
	}

	return cfg, nil
}

type cfgLoadOpts struct {
	canFallbackOnDefault func() error
}

type LoadCfgOpt func(opts *cfgLoadOpts) error

func applyOpts(opts ...LoadCfgOpt) (cfgLoadOpts, error) {
	var loadOpts cfgLoadOpts
	var err error
	for _, opt := range opts {
		if err = opt(&loadOpts); err != nil {
			return loadOpts, fmt.Errorf("failed to apply load cfg option: %w", err)
		}
	}
	return loadOpts, nil
}

func SetCanFallbackOnDefault(f func() error) LoadCfgOpt {
	return func(opts *cfgLoadOpts) error {
		opts.canFallbackOnDefault = f
		return nil
	}
}

type cfgUpdateOpts struct {
	comment bool
	noEnv   bool
}

// UpdateCfgOpt is a functional option for updating the config
type UpdateCfgOpt func(opts *cfgUpdateOpts) error

func Commented(commented bool) UpdateCfgOpt {
	return func(opts *cfgUpdateOpts) error {
		opts.comment = commented
		return nil
	}
}

func NoEnv() UpdateCfgOpt {
	return func(opts *cfgUpdateOpts) error {
		opts.noEnv = true
		return nil
	}
}

var sectionRx = regexp.MustCompile(`\[(.+)]`)

// ConfigUpdate takes in a config and a default config and optionally comments out default values
func ConfigUpdate(cfgCur, cfgDef *NSEConfig, opts ...UpdateCfgOpt) ([]byte, error) {
	var updateOpts cfgUpdateOpts
	for _, opt := range opts {
		if err := opt(&updateOpts); err != nil {
			return nil, xerrors.Errorf("failed to apply update cfg option to ConfigUpdate's config: %w", err)
		}
	}

	var nodeStr, defStr string
	if cfgDef != nil {
		buf := new(bytes.Buffer)
		if err := toml.NewEncoder(buf).Encode(cfgDef); err != nil {
			return nil, xerrors.Errorf("encoding default config: %w", err)
		}
		defStr = buf.String()
	}

	{
		buf := new(bytes.Buffer)
		if err := toml.NewEncoder(buf).Encode(cfgCur); err != nil {
			return nil, xerrors.Errorf("encoding config: %w", err)
		}
		nodeStr = buf.String()
	}

	if updateOpts.comment {
		// create a map of default lines, so we can comment those out later
		defaults := map[string]struct{}{}
		currentSection := ""

		for _, l := range strings.Split(defStr, "\n") {
			l = strings.TrimSpace(l)
			if len(l) == 0 || l[0] == '#' {
				continue
			}
			if l[0] == '[' {
				if m := sectionRx.FindStringSubmatch(l); len(m) == 2 {
					currentSection = m[1]
				}
				continue
			}
			defaults[currentSection+"."+l] = struct{}{}
		}

		var outLines []string
		var section string

		for i, line := range strings.Split(nodeStr, "\n") {
			trimmed := strings.TrimSpace(line)
			pad := strings.Repeat(" ", len(line)-len(strings.TrimLeftFunc(line, unicode.IsSpace)))

			if len(trimmed) > 0 && trimmed[0] == '[' {
				m := sectionRx.FindStringSubmatch(trimmed)
				if len(m) != 2 {
					return nil, xerrors.Errorf("section didn't match (line %d)", i)
				}
				section = m[1]

				// never comment sections
				outLines = append(outLines, line, "")
				continue
			}

			if lf := strings.Fields(line); len(lf) > 1 && !updateOpts.noEnv {
				outLines = append(outLines, pad+"# env var: "+EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(section, ".", "_"))+"_"+strings.ToUpper(lf[0]))
			}

			// if there is the same line in the default config, comment it out in output
			if _, found := defaults[section+"."+trimmed]; (cfgDef == nil || found) && len(line) > 0 {
				line = pad + "#" + line[len(pad):]
			}
			outLines = append(outLines, line)
			if len(line) > 0 {
				outLines = append(outLines, "")
			}
		}

		nodeStr = strings.Join(outLines, "\n")
	}

	// sanity-check that the updated config parses the same way as the current one
	if cfgDef != nil {
		defCopy := *cfgDef
		defCopy.Logging.SubsystemLevels = lo.Assign(cfgDef.Logging.SubsystemLevels)

		cfgUpdated, err := decodeOnly(nodeStr, &defCopy)
		if err != nil {
			return nil, xerrors.Errorf("parsing updated config: %w", err)
		}
		if !cmp.Equal(cfgUpdated, cfgCur, cmpopts.EquateEmpty()) {
			return nil, xerrors.Errorf("updated config didn't match current config: %s", cmp.Diff(cfgCur, cfgUpdated, cmpopts.EquateEmpty()))
		}
	}

	return []byte(nodeStr), nil
}

// ConfigComment renders cfg with every value commented out, as a documented template.
func ConfigComment(cfg *NSEConfig) ([]byte, error) {
	return ConfigUpdate(cfg, nil, Commented(true))
}

func decodeOnly(text string, def *NSEConfig) (*NSEConfig, error) {
	if _, err := toml.Decode(text, def); err != nil {
		return nil, err
	}
	return def, nil
}
