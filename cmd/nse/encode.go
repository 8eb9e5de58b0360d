package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	pool "github.com/libp2p/go-buffer-pool"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-nse/lib/asyncwrite"
	"github.com/filecoin-project/go-nse/lib/nse"
	"github.com/filecoin-project/go-nse/lib/proof"
)

var windowFlags = []cli.Flag{
	&cli.Uint64Flag{
		Name:  "window",
		Usage: "index of the first window in the input",
	},
	&cli.StringFlag{
		Name:     "replica-id",
		Usage:    "hex encoded 32 byte replica id",
		Required: true,
	},
	&cli.IntFlag{
		Name:  "parallel",
		Usage: "number of windows processed concurrently",
		Value: 2,
	},
}

var encodeCmd = &cli.Command{
	Name:      "encode",
	Usage:     "Encode data windows into a replica, committing every label layer",
	ArgsUsage: "<data> <replica>",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "cache",
			Usage: "directory to persist layer trees in, overrides Store.Path",
		},
	}, windowFlags...),
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 2 {
			return xerrors.Errorf("expected 2 arguments")
		}

		cfg, ncfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		if cctx.IsSet("cache") {
			cfg.Store.Path = cctx.String("cache")
		}
		if cfg.Store.Path != "" {
			cfg.Store.Path, err = homedir.Expand(cfg.Store.Path)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Store.Path, 0755); err != nil {
				return xerrors.Errorf("creating tree store dir: %w", err)
			}
		}

		tb, err := cfg.Store.TreeBuilder()
		if err != nil {
			return err
		}
		sc, err := cfg.Store.StoreConfig(ncfg.NumLeafs())
		if err != nil {
			return err
		}

		rid, err := parseReplicaID(cctx.String("replica-id"))
		if err != nil {
			return err
		}

		first := uint32(cctx.Uint64("window"))
		var comms []proof.PoseidonDomain
		var roots [][]proof.PoseidonDomain

		size, took, err := processWindows(cctx, ncfg, func(ctx context.Context, i int, span []byte) ([]byte, error) {
			window := first + uint32(i)
			start := time.Now()
			enc, trees, err := nse.EncodeWithTrees(ctx, ncfg, tb, sc, window, rid, span)
			if err != nil {
				return nil, xerrors.Errorf("encoding window %d: %w", window, err)
			}

			aux := proof.LabelsAux{Window: window}
			for _, tree := range trees {
				roots[i] = append(roots[i], proof.PoseidonDomain(tree.Root()))
				aux.Labels = append(aux.Labels, tree.StoreConfig())
				if st, ok := tree.(*proof.Sha254Tree); ok {
					st.Release()
				}
			}

			comms[i], err = proof.CommLayers(roots[i])
			if err != nil {
				pool.Put(enc)
				return nil, xerrors.Errorf("window %d commitment: %w", window, err)
			}

			if cfg.Store.Path != "" {
				if err := proof.WriteLabelsAux(cfg.Store.Path, aux); err != nil {
					pool.Put(enc)
					return nil, err
				}
				if err := proof.WriteCommAux(cfg.Store.Path, window, comms[i], roots[i][len(roots[i])-1]); err != nil {
					pool.Put(enc)
					return nil, xerrors.Errorf("writing comm aux of window %d: %w", window, err)
				}
			}

			log.Infow("window encoded", "window", window, "comm", comms[i], "took", time.Since(start))
			return enc, nil
		}, func(windows int) {
			comms = make([]proof.PoseidonDomain, windows)
			roots = make([][]proof.PoseidonDomain, windows)
		})
		if err != nil {
			return err
		}

		for i := range comms {
			fmt.Printf("Window %s\n", color.CyanString("%d", first+uint32(i)))
			for l, root := range roots[i] {
				fmt.Printf("  layer %2d: %s\n", l+1, root)
			}
			fmt.Printf("  comm: %s\n", color.GreenString(comms[i].String()))
		}

		fmt.Printf("Encoded %s in %s (%s/s)\n",
			humanize.IBytes(uint64(size)), took.Truncate(time.Millisecond),
			humanize.IBytes(uint64(float64(size)/took.Seconds())))
		return nil
	},
}

var decodeCmd = &cli.Command{
	Name:      "decode",
	Usage:     "Decode replica windows back into data",
	ArgsUsage: "<replica> <data>",
	Flags:     windowFlags,
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 2 {
			return xerrors.Errorf("expected 2 arguments")
		}

		_, ncfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}

		rid, err := parseReplicaID(cctx.String("replica-id"))
		if err != nil {
			return err
		}

		first := uint32(cctx.Uint64("window"))

		size, took, err := processWindows(cctx, ncfg, func(ctx context.Context, i int, span []byte) ([]byte, error) {
			window := first + uint32(i)
			start := time.Now()

			dec, err := nse.Decode(ctx, ncfg, window, rid, span)
			if err != nil {
				return nil, xerrors.Errorf("decoding window %d: %w", window, err)
			}

			log.Infow("window decoded", "window", window, "took", time.Since(start))
			return dec, nil
		}, nil)
		if err != nil {
			return err
		}

		fmt.Printf("Decoded %s in %s\n", humanize.IBytes(uint64(size)), took.Truncate(time.Millisecond))
		return nil
	},
}

// windowFunc transforms window i of the input. The returned buffer must come from
// the buffer pool; ownership passes to the output writer.
type windowFunc func(ctx context.Context, i int, span []byte) ([]byte, error)

// processWindows streams the input file through fn, at most --parallel windows at a
// time, writing results to the output file in window order. prepare, when set, is
// called with the window count before any window is processed.
func processWindows(cctx *cli.Context, ncfg *nse.Config, fn windowFunc, prepare func(windows int)) (int64, time.Duration, error) {
	inPath, err := homedir.Expand(cctx.Args().Get(0))
	if err != nil {
		return 0, 0, err
	}
	outPath, err := homedir.Expand(cctx.Args().Get(1))
	if err != nil {
		return 0, 0, err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return 0, 0, xerrors.Errorf("opening input: %w", err)
	}
	defer in.Close() // nolint:errcheck

	st, err := in.Stat()
	if err != nil {
		return 0, 0, err
	}
	size := st.Size()
	if size == 0 || size%int64(ncfg.N) != 0 {
		return 0, 0, xerrors.Errorf("%s holds %s, not a multiple of the %s window size",
			inPath, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(ncfg.N)))
	}
	windows := int(size / int64(ncfg.N))
	if prepare != nil {
		prepare(windows)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, 0, xerrors.Errorf("creating output: %w", err)
	}
	defer out.Close() // nolint:errcheck

	parallel := max(cctx.Int("parallel"), 1)
	ow := asyncwrite.New(bufio.NewWriterSize(out, ncfg.N), parallel)

	start := time.Now()

	eg, ctx := errgroup.WithContext(cctx.Context)
	eg.SetLimit(parallel)
	for i := 0; i < windows; i++ {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			span := pool.Get(ncfg.N)
			defer pool.Put(span)

			if _, err := in.ReadAt(span, int64(i)*int64(ncfg.N)); err != nil {
				return xerrors.Errorf("reading window %d: %w", i, err)
			}

			res, err := fn(ctx, i, span)
			if err != nil {
				return err
			}
			ow.Submit(i, res)
			return nil
		})
	}

	werr := eg.Wait()
	ferr := ow.Finish()
	if werr != nil {
		return 0, 0, werr
	}
	if ferr != nil {
		return 0, 0, xerrors.Errorf("writing output: %w", ferr)
	}
	if err := out.Close(); err != nil {
		return 0, 0, err
	}

	return size, time.Since(start), nil
}
