package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-nse/deps/config"
	"github.com/filecoin-project/go-nse/lib/nse"
	"github.com/filecoin-project/go-nse/lib/proof"
)

var paramsCmd = &cli.Command{
	Name:  "params",
	Usage: "Print the effective config",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "comment",
			Usage: "comment out values matching the defaults",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "no-env",
			Usage: "omit environment variable hints",
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, ncfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}

		opts := []config.UpdateCfgOpt{config.Commented(cctx.Bool("comment"))}
		if cctx.Bool("no-env") {
			opts = append(opts, config.NoEnv())
		}

		cb, err := config.ConfigUpdate(cfg, config.DefaultNSEConfig(), opts...)
		if err != nil {
			return err
		}
		fmt.Println(string(cb))

		treeLen := proof.TreeLen(int64(ncfg.NumLeafs()), int64(cfg.Store.Arity))
		fmt.Printf("# %s\n", ncfg)
		fmt.Printf("# layers: %d, nodes per layer: %s, tree nodes per layer: %s\n",
			ncfg.NumLayers(), humanize.Comma(int64(ncfg.NumLeafs())), humanize.Comma(treeLen))
		fmt.Printf("# label data per window: %s\n",
			humanize.IBytes(uint64(ncfg.NumLayers())*uint64(ncfg.N)))
		return nil
	},
}

var prefixCmd = &cli.Command{
	Name:      "prefix",
	Usage:     "Print the hash prefix of a node",
	ArgsUsage: "<layer> <node> <window>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 3 {
			return xerrors.Errorf("expected 3 arguments")
		}

		var idx [3]uint32
		for i := range idx {
			v, err := strconv.ParseUint(cctx.Args().Get(i), 10, 32)
			if err != nil {
				return xerrors.Errorf("parsing argument %d: %w", i+1, err)
			}
			idx[i] = uint32(v)
		}

		prefix := nse.HashPrefix(idx[0], idx[1], idx[2])
		fmt.Println(hex.EncodeToString(prefix[:]))
		return nil
	},
}
