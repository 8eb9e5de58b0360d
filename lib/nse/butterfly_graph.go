package nse

// ButterflyGraph is the per layer parent graph of the butterfly layers. Butterfly
// layer l (0 based within the butterfly stage) connects node v to
// v + i*Degree^e mod NumNodes for i in [0, Degree), with
// e = (NumButterflyLayers - l - 1) mod stages and stages = ceil(log_Degree NumNodes).
// A run of stages consecutive layers gives every node a path from every node of
// the layer below it.
type ButterflyGraph struct {
	Degree             int
	NumNodes           uint32
	NumExpanderLayers  uint32
	NumButterflyLayers uint32
}

func (g ButterflyGraph) stages() uint32 {
	stages, span := uint32(0), uint64(1)
	for span < uint64(g.NumNodes) {
		span *= uint64(g.Degree)
		stages++
	}
	return max(stages, 1)
}

// Stride is the distance between consecutive parents in the given layer.
func (g ButterflyGraph) Stride(layer uint32) uint64 {
	l := layer - g.NumExpanderLayers - 1
	e := (g.NumButterflyLayers - l - 1) % g.stages()

	stride := uint64(1)
	for i := uint32(0); i < e; i++ {
		stride *= uint64(g.Degree)
	}
	return stride % uint64(g.NumNodes)
}

// Parents returns the Degree parents of node in layer. layer must be a butterfly
// layer, NumExpanderLayers < layer <= NumExpanderLayers+NumButterflyLayers.
func (g ButterflyGraph) Parents(node, layer uint32) []uint32 {
	out := make([]uint32, g.Degree)
	g.ParentsInto(node, layer, out)
	return out
}

func (g ButterflyGraph) ParentsInto(node, layer uint32, dst []uint32) {
	stride := g.Stride(layer)
	for i := 0; i < g.Degree; i++ {
		dst[i] = uint32((uint64(node) + uint64(i)*stride) % uint64(g.NumNodes))
	}
}
