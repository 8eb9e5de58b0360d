package proof

// Tree is a handle to a commitment tree built over one label layer.
type Tree interface {
	Root() [32]byte
	Leafs() int
	StoreConfig() StoreConfig
}

// TreeBuilder commits a layer. Implementations must not retain layer after
// BuildTree returns; the caller reuses the buffer for later layers.
type TreeBuilder interface {
	BuildTree(layer []byte, sc StoreConfig) (Tree, error)
	Arity() int
}
