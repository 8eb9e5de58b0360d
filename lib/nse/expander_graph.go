package nse

import (
	"encoding/binary"

	"github.com/minio/sha256-simd"
)

// ExpanderGraph is the layer independent parent graph of the expander layers.
// Parents of a node are drawn from a sha256 stream keyed by the node index:
// digest c is sha256(node ‖ c ‖ 0^56), and every parent is the next Bits wide
// little-endian bit slice of the stream. A digest whose remaining bits cannot
// hold a full index is dropped.
type ExpanderGraph struct {
	// Bits is log2 of the number of nodes in the window.
	Bits   uint32
	Degree int
}

// Parents returns the Degree parents of node.
func (g ExpanderGraph) Parents(node uint32) []uint32 {
	out := make([]uint32, g.Degree)
	g.ParentsInto(node, out)
	return out
}

// ParentsInto writes the Degree parents of node into dst.
func (g ExpanderGraph) ParentsInto(node uint32, dst []uint32) {
	var (
		seed    [64]byte
		digest  [32]byte
		counter uint32
		offset  = uint32(len(digest) * 8)
	)

	binary.BigEndian.PutUint32(seed[0:4], node)

	for i := 0; i < g.Degree; i++ {
		if offset+g.Bits > uint32(len(digest)*8) {
			binary.BigEndian.PutUint32(seed[4:8], counter)
			digest = sha256.Sum256(seed[:])
			counter++
			offset = 0
		}
		dst[i] = loadBitsLE(digest[:], offset, g.Bits)
		offset += g.Bits
	}
}

// loadBitsLE reads n <= 32 bits starting at bit off, least significant bit first.
func loadBitsLE(b []byte, off, n uint32) uint32 {
	var w uint64
	start := off / 8
	for i := uint32(0); i < 5 && int(start+i) < len(b); i++ {
		w |= uint64(b[start+i]) << (8 * i)
	}
	return uint32((w >> (off % 8)) & (1<<n - 1))
}
