package nse

import (
	"context"
	"encoding/binary"
	"hash"
	"runtime"
	"time"

	logging "github.com/ipfs/go-log/v2"
	pool "github.com/libp2p/go-buffer-pool"
	"github.com/minio/sha256-simd"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-nse/lib/proof"
)

var log = logging.Logger("nse")

// ReplicaID seeds every label of a replica. It must be a canonical Fr element.
type ReplicaID = proof.PoseidonDomain

// MaskLayerIndex is the index of the first layer; layers are 1 based.
const MaskLayerIndex = 1

const (
	stageMask      = "mask"
	stageExpander  = "expander"
	stageButterfly = "butterfly"
)

const (
	maxWorkers    = 24
	minRangeNodes = 256
)

// HashPrefix constructs the 32 byte prefix hashed in front of every node:
// big-endian layer, node index and window index followed by zero padding.
func HashPrefix(layer, node, window uint32) [32]byte {
	var prefix [32]byte
	binary.BigEndian.PutUint32(prefix[0:4], layer)
	binary.BigEndian.PutUint32(prefix[4:8], node)
	binary.BigEndian.PutUint32(prefix[8:12], window)
	return prefix
}

// startNode resets h and writes prefix ‖ replica id.
func startNode(h hash.Hash, layer, node, window uint32, replicaID *ReplicaID) {
	h.Reset()
	prefix := HashPrefix(layer, node, window)
	_, _ = h.Write(prefix[:])
	_, _ = h.Write(replicaID[:])
}

// forEachNodeRange splits [0, nodes) into disjoint ranges processed in parallel.
func forEachNodeRange(nodes int, fn func(start, end int) error) error {
	workers := min(runtime.NumCPU(), maxWorkers)
	chunk := max((nodes+workers-1)/workers, minRangeNodes)
	if chunk >= nodes {
		return fn(0, nodes)
	}

	var eg errgroup.Group
	for start := 0; start < nodes; start += chunk {
		start, end := start, min(start+chunk, nodes)
		eg.Go(func() error {
			return fn(start, end)
		})
	}
	return eg.Wait()
}

func checkStage(cfg *Config, replicaID *ReplicaID) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := proof.DomainFromBytes(replicaID[:]); err != nil {
		return xerrors.Errorf("replica id: %w", err)
	}
	return nil
}

func checkLayerBuffers(cfg *Config, layerIn, layerOut []byte) error {
	if err := cfg.checkBuffer("layer_in", layerIn); err != nil {
		return err
	}
	return cfg.checkBuffer("layer_out", layerOut)
}

// MaskLayer generates layer 1 of a window: hash(prefix ‖ replica id) per node.
func MaskLayer(cfg *Config, window uint32, replicaID *ReplicaID, layerOut []byte) error {
	if err := checkStage(cfg, replicaID); err != nil {
		return err
	}
	if err := cfg.checkBuffer("layer_out", layerOut); err != nil {
		return err
	}

	return forEachNodeRange(cfg.NumLeafs(), func(start, end int) error {
		h := sha256.New()
		for node := start; node < end; node++ {
			startNode(h, MaskLayerIndex, uint32(node), window, replicaID)

			out := layerOut[node*proof.NODE_SIZE : (node+1)*proof.NODE_SIZE]
			// sum calls append, so we give it a zero len slice at the correct offset
			h.Sum(out[:0])
			proof.TruncateHash(out)
		}
		return nil
	})
}

// ExpanderLayer generates a single expander layer, 1 < layer <= NumExpanderLayers.
func ExpanderLayer(cfg *Config, window uint32, replicaID *ReplicaID, layer uint32, layerIn, layerOut []byte) error {
	if err := checkStage(cfg, replicaID); err != nil {
		return err
	}
	if err := checkLayerBuffers(cfg, layerIn, layerOut); err != nil {
		return err
	}
	if layer <= MaskLayerIndex || int(layer) > cfg.NumExpanderLayers {
		return configErrorf("expander layer index must be in range (1, %d], got %d", cfg.NumExpanderLayers, layer)
	}

	graph := cfg.ExpanderGraph()

	return forEachNodeRange(cfg.NumLeafs(), func(start, end int) error {
		h := sha256.New()
		bh := NewBatchHasher(int(cfg.K))
		parents := make([]uint32, cfg.DegreeExpander)

		for node := start; node < end; node++ {
			graph.ParentsInto(uint32(node), parents)
			startNode(h, layer, uint32(node), window, replicaID)

			label := bh.Hash(cfg.DegreeExpander, h, parents, layerIn)
			copy(layerOut[node*proof.NODE_SIZE:], label[:])
		}
		return nil
	})
}

// butterflyHasher derives butterfly labels; one per worker.
type butterflyHasher struct {
	graph   ButterflyGraph
	h       hash.Hash
	parents []uint32
	pair    [2 * proof.NODE_SIZE]byte
}

func newButterflyHasher(cfg *Config) *butterflyHasher {
	return &butterflyHasher{
		graph:   cfg.ButterflyGraph(),
		h:       sha256.New(),
		parents: make([]uint32, cfg.DegreeButterfly),
	}
}

// label hashes prefix ‖ replica id ‖ (a ‖ b for every parent pair) into out.
func (b *butterflyHasher) label(layer, node, window uint32, replicaID *ReplicaID, layerIn, out []byte) {
	b.graph.ParentsInto(node, layer, b.parents)
	startNode(b.h, layer, node, window, replicaID)

	for i := 0; i+1 < len(b.parents); i += 2 {
		pa := int(b.parents[i]) * proof.NODE_SIZE
		pb := int(b.parents[i+1]) * proof.NODE_SIZE
		copy(b.pair[:proof.NODE_SIZE], layerIn[pa:pa+proof.NODE_SIZE])
		copy(b.pair[proof.NODE_SIZE:], layerIn[pb:pb+proof.NODE_SIZE])
		_, _ = b.h.Write(b.pair[:])
	}

	b.h.Sum(out[:0])
	proof.TruncateHash(out)
}

// ButterflyLayer generates a single butterfly layer, excluding the final
// encoding layer: NumExpanderLayers < layer < NumLayers.
func ButterflyLayer(cfg *Config, window uint32, replicaID *ReplicaID, layer uint32, layerIn, layerOut []byte) error {
	if err := checkStage(cfg, replicaID); err != nil {
		return err
	}
	if err := checkLayerBuffers(cfg, layerIn, layerOut); err != nil {
		return err
	}
	if int(layer) <= cfg.NumExpanderLayers || int(layer) >= cfg.NumLayers() {
		return configErrorf("butterfly layer index must be in range (%d, %d), got %d", cfg.NumExpanderLayers, cfg.NumLayers(), layer)
	}

	return forEachNodeRange(cfg.NumLeafs(), func(start, end int) error {
		bh := newButterflyHasher(cfg)
		for node := start; node < end; node++ {
			out := layerOut[node*proof.NODE_SIZE : (node+1)*proof.NODE_SIZE]
			bh.label(layer, uint32(node), window, replicaID, layerIn, out)
		}
		return nil
	})
}

// ButterflyEncodeLayer generates the last layer, encoding data with the butterfly labels as key.
func ButterflyEncodeLayer(cfg *Config, window uint32, replicaID *ReplicaID, layer uint32, layerIn, data, layerOut []byte) error {
	return butterflyCombineLayer(cfg, window, replicaID, layer, layerIn, data, layerOut, OpEncode)
}

// ButterflyDecodeLayer generates the last layer, decoding an encoded window.
func ButterflyDecodeLayer(cfg *Config, window uint32, replicaID *ReplicaID, layer uint32, layerIn, encoded, layerOut []byte) error {
	return butterflyCombineLayer(cfg, window, replicaID, layer, layerIn, encoded, layerOut, OpDecode)
}

func butterflyCombineLayer(cfg *Config, window uint32, replicaID *ReplicaID, layer uint32, layerIn, data, layerOut []byte, op CombineOp) error {
	if err := checkStage(cfg, replicaID); err != nil {
		return err
	}
	if err := checkLayerBuffers(cfg, layerIn, layerOut); err != nil {
		return err
	}
	if err := cfg.checkBuffer("data", data); err != nil {
		return err
	}
	if int(layer) != cfg.NumLayers() {
		return configErrorf("%s must be on the last layer %d, got %d", op, cfg.NumLayers(), layer)
	}

	return forEachNodeRange(cfg.NumLeafs(), func(start, end int) error {
		bh := newButterflyHasher(cfg)
		var key [proof.NODE_SIZE]byte

		for node := start; node < end; node++ {
			bh.label(layer, uint32(node), window, replicaID, layerIn, key[:])

			off := node * proof.NODE_SIZE
			if err := op.Apply(key[:], data[off:off+proof.NODE_SIZE], layerOut[off:off+proof.NODE_SIZE]); err != nil {
				return xerrors.Errorf("%s node %d: %w", op, node, err)
			}
		}
		return nil
	})
}

// EncodeWithTrees encodes data and commits every layer, mask included, with tb.
// Trees are returned in layer order. The returned replica comes from the buffer
// pool and may be released with pool.Put once the caller is done with it.
func EncodeWithTrees(ctx context.Context, cfg *Config, tb proof.TreeBuilder, sc proof.StoreConfig, window uint32, replicaID *ReplicaID, data []byte) ([]byte, []proof.Tree, error) {
	if tb == nil {
		return nil, nil, xerrors.Errorf("no tree builder provided")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	treeLen := uint64(proof.TreeLen(int64(cfg.NumLeafs()), int64(tb.Arity())))
	commit := func(layer uint32, buf []byte) (proof.Tree, error) {
		lsc := proof.StoreConfigFromConfig(sc, proof.CacheKeyLabelLayerWithWindow(layer, window), &treeLen)
		return tb.BuildTree(buf, lsc)
	}

	return run(ctx, cfg, window, replicaID, data, OpEncode, commit)
}

// Encode encodes data without committing the layers.
func Encode(ctx context.Context, cfg *Config, window uint32, replicaID *ReplicaID, data []byte) ([]byte, error) {
	out, _, err := run(ctx, cfg, window, replicaID, data, OpEncode, nil)
	return out, err
}

// Decode recovers the data of an encoded window.
func Decode(ctx context.Context, cfg *Config, window uint32, replicaID *ReplicaID, encoded []byte) ([]byte, error) {
	out, _, err := run(ctx, cfg, window, replicaID, encoded, OpDecode, nil)
	return out, err
}

type commitFunc func(layer uint32, buf []byte) (proof.Tree, error)

func run(ctx context.Context, cfg *Config, window uint32, replicaID *ReplicaID, data []byte, op CombineOp, commit commitFunc) ([]byte, []proof.Tree, error) {
	if err := checkStage(cfg, replicaID); err != nil {
		return nil, nil, err
	}
	if err := cfg.checkBuffer("data", data); err != nil {
		return nil, nil, err
	}

	defer windowStarted()()

	p := &pipeline{
		cfg:       cfg,
		window:    window,
		replicaID: replicaID,
		commit:    commit,
		bufs:      [2][]byte{pool.Get(cfg.N), pool.Get(cfg.N)},
		cur:       1,
	}
	if commit != nil {
		p.trees = make([]proof.Tree, cfg.NumLayers())
	}

	start := time.Now()
	out, err := p.run(ctx, data, op)
	if err != nil {
		return nil, nil, err
	}

	log.Debugw("window labelled", "window", window, "op", op, "layers", cfg.NumLayers(), "took", time.Since(start))
	return out, p.trees, nil
}

// pipeline computes the layers of one window ping-ponging two buffers. A layer is
// always computed into bufs[cur] from bufs[in].
type pipeline struct {
	cfg       *Config
	window    uint32
	replicaID *ReplicaID
	commit    commitFunc

	bufs    [2][]byte
	in, cur int

	// commits[i] is the in-flight tree build reading bufs[i]
	commits [2]*layerCommit
	trees   []proof.Tree
}

type layerCommit struct {
	done chan struct{}
	err  error
}

func (p *pipeline) startCommit(slot int, layer uint32) {
	if p.commit == nil {
		return
	}

	c := &layerCommit{done: make(chan struct{})}
	p.commits[slot] = c
	buf := p.bufs[slot]

	go func() {
		defer close(c.done)

		tree, err := p.commit(layer, buf)
		if err != nil {
			c.err = xerrors.Errorf("building tree for window %d layer %d: %w", p.window, layer, err)
			return
		}
		p.trees[layer-1] = tree
	}()
}

func (p *pipeline) waitCommit(slot int) error {
	c := p.commits[slot]
	if c == nil {
		return nil
	}
	<-c.done
	p.commits[slot] = nil
	return c.err
}

func (p *pipeline) layer(ctx context.Context, layer uint32, stage string, compute func(in, out []byte) error) error {
	if err := ctx.Err(); err != nil {
		return xerrors.Errorf("window %d aborted before layer %d: %w", p.window, layer, err)
	}

	// the tree of the layer two steps back may still be reading the output buffer
	if err := p.waitCommit(p.cur); err != nil {
		return err
	}

	start := time.Now()
	if err := compute(p.bufs[p.in], p.bufs[p.cur]); err != nil {
		return xerrors.Errorf("failed to construct %s layer %d: %w", stage, layer, err)
	}
	took := time.Since(start)

	recordLayer(stage, took)
	log.Debugw("layer done", "window", p.window, "layer", layer, "stage", stage, "took", took)

	p.startCommit(p.cur, layer)
	p.in, p.cur = p.cur, p.in
	return nil
}

func (p *pipeline) run(ctx context.Context, data []byte, op CombineOp) (out []byte, err error) {
	cfg := p.cfg

	defer func() {
		if werr := multierr.Combine(p.waitCommit(0), p.waitCommit(1)); werr != nil && err == nil {
			err = werr
		}
		if err != nil {
			pool.Put(p.bufs[0])
			pool.Put(p.bufs[1])
			out = nil
			return
		}
		// the last layer was swapped into bufs[in], the other buffer is spare
		out = p.bufs[p.in]
		pool.Put(p.bufs[p.cur])
	}()

	// 1. mask
	err = p.layer(ctx, MaskLayerIndex, stageMask, func(_, layerOut []byte) error {
		return MaskLayer(cfg, p.window, p.replicaID, layerOut)
	})
	if err != nil {
		return nil, err
	}

	// 2. expander layers
	for l := uint32(2); int(l) <= cfg.NumExpanderLayers; l++ {
		err = p.layer(ctx, l, stageExpander, func(layerIn, layerOut []byte) error {
			return ExpanderLayer(cfg, p.window, p.replicaID, l, layerIn, layerOut)
		})
		if err != nil {
			return nil, err
		}
	}

	// 3. butterfly layers
	for l := uint32(cfg.NumExpanderLayers + 1); int(l) < cfg.NumLayers(); l++ {
		err = p.layer(ctx, l, stageButterfly, func(layerIn, layerOut []byte) error {
			return ButterflyLayer(cfg, p.window, p.replicaID, l, layerIn, layerOut)
		})
		if err != nil {
			return nil, err
		}
	}

	// 4. butterfly encoding / decoding layer
	last := uint32(cfg.NumLayers())
	err = p.layer(ctx, last, op.String(), func(layerIn, layerOut []byte) error {
		return butterflyCombineLayer(cfg, p.window, p.replicaID, last, layerIn, data, layerOut, op)
	})
	if err != nil {
		return nil, err
	}

	return nil, nil
}
