package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-nse/deps/config"
	"github.com/filecoin-project/go-nse/lib/proof"
)

var proofCmd = &cli.Command{
	Name:  "proof",
	Usage: "Generate and verify an inclusion proof for a node of a persisted label layer",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "cache",
			Usage: "directory holding the layer trees, overrides Store.Path",
		},
		&cli.Uint64Flag{
			Name:     "window",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:     "layer",
			Usage:    "1 based layer index",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "node",
			Usage: "index of the proven node",
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, ncfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}

		dir := cfg.Store.Path
		if cctx.IsSet("cache") {
			dir = cctx.String("cache")
		}
		if dir == "" {
			return xerrors.Errorf("no tree store directory configured")
		}
		dir, err = homedir.Expand(dir)
		if err != nil {
			return err
		}

		window := uint32(cctx.Uint64("window"))
		aux, err := proof.ReadLabelsAux(dir, window)
		if err != nil {
			return err
		}

		layer := cctx.Uint64("layer")
		if layer == 0 || layer > uint64(len(aux.Labels)) {
			return xerrors.Errorf("layer %d out of range, window %d has %d layers", layer, window, len(aux.Labels))
		}

		sc := aux.Labels[layer-1]
		sc.Path = dir

		node := cctx.Int("node")

		var out any
		switch cfg.Store.Hasher {
		case config.HasherSha254:
			tree, err := proof.OpenSha254Tree(sc, ncfg.NumLeafs())
			if err != nil {
				return err
			}

			p, err := tree.Proof(node)
			if err != nil {
				return err
			}
			if !p.Verify(int64(node)) {
				return xerrors.Errorf("generated proof does not verify")
			}
			out = p
		default:
			tree, err := proof.OpenLCTree(sc, ncfg.NumLeafs(), cfg.Store.Arity)
			if err != nil {
				return err
			}

			mp, err := tree.Proof(node)
			if err != nil {
				return err
			}
			if err := proof.VerifyProof(mp); err != nil {
				return xerrors.Errorf("generated proof does not verify: %w", err)
			}
			out = mp
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(os.Stderr, "proof for window %d layer %d node %d %s\n", window, layer, node, color.GreenString("verified"))

		if commLayers, commReplica, err := proof.ReadCommAux(dir, window); err == nil {
			_, _ = fmt.Fprintf(os.Stderr, "window comm: %s, replica root: %s\n", commLayers, commReplica)
		}
		return nil
	},
}
