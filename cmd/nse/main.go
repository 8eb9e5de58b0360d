package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-nse/build"
	"github.com/filecoin-project/go-nse/deps/config"
	"github.com/filecoin-project/go-nse/lib/nse"
	"github.com/filecoin-project/go-nse/lib/proof"
)

var log = logging.Logger("main")

func SetupLogLevels() {
	if _, set := os.LookupEnv("GOLOG_LOG_LEVEL"); !set {
		_ = logging.SetLogLevel("*", "INFO")
	}
}

func main() {
	SetupLogLevels()

	app := newApp()
	app.Setup()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("ERROR:"), err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var ms *metricsServer

	return &cli.App{
		Name:                 "nse",
		Usage:                "Narrow stacked expander window labelling",
		Version:              build.UserVersion(),
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "color",
				Usage:       "use color in display output",
				DefaultText: "depends on output being a TTY",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a TOML config file",
				EnvVars: []string{"NSE_CONFIG"},
				Value:   "nse.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level of all subsystems",
			},
			&cli.StringFlag{
				Name:  "metrics-listen",
				Usage: "address to serve prometheus metrics on at /debug/metrics, e.g. 127.0.0.1:9310",
			},
		},
		Before: func(cctx *cli.Context) error {
			if cctx.IsSet("color") {
				color.NoColor = !cctx.Bool("color")
			}
			if cctx.IsSet("log-level") {
				if err := logging.SetLogLevel("*", cctx.String("log-level")); err != nil {
					return xerrors.Errorf("setting log level: %w", err)
				}
			}
			if addr := cctx.String("metrics-listen"); addr != "" {
				var err error
				ms, err = startMetricsServer(addr)
				if err != nil {
					return err
				}
			}
			return nil
		},
		After: func(cctx *cli.Context) error {
			if ms != nil {
				return ms.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			encodeCmd,
			decodeCmd,
			proofCmd,
			prefixCmd,
			paramsCmd,
		},
	}
}

// loadConfig reads the config file and applies its logging section.
func loadConfig(cctx *cli.Context) (*config.NSEConfig, *nse.Config, error) {
	path, err := homedir.Expand(cctx.String("config"))
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.FromFile(path, config.SetCanFallbackOnDefault(func() error {
		log.Debugw("config file not found, using defaults", "path", path)
		return nil
	}))
	if err != nil {
		return nil, nil, xerrors.Errorf("loading config: %w", err)
	}

	for sys, lvl := range cfg.Logging.SubsystemLevels {
		if err := logging.SetLogLevel(sys, lvl); err != nil {
			return nil, nil, xerrors.Errorf("setting log level of %s: %w", sys, err)
		}
	}

	ncfg, err := cfg.Params.ToNSE()
	if err != nil {
		return nil, nil, err
	}

	log.Debugw("loaded config", "path", path, "params", ncfg.String())
	return cfg, ncfg, nil
}

func parseReplicaID(s string) (*nse.ReplicaID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, xerrors.Errorf("decoding replica id: %w", err)
	}

	var rid nse.ReplicaID
	if len(b) != len(rid) {
		return nil, xerrors.Errorf("replica id must be %d bytes, got %d", len(rid), len(b))
	}
	copy(rid[:], b)

	if _, err := proof.DomainFromBytes(rid[:]); err != nil {
		return nil, xerrors.Errorf("replica id: %w", err)
	}
	return &rid, nil
}
