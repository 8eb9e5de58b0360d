package proof

const NODE_SIZE = 32

// TruncateHash clears the two most significant bits of a little-endian node,
// making every hash output a canonical Fr element (2^254 < r).
func TruncateHash(node []byte) {
	node[NODE_SIZE-1] &= 0x3F
}
