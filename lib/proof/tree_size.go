package proof

func computeTotalNodes(nLeaves, arity int64) (int64, []int64) {
	totalNodes := int64(0)
	levelCounts := []int64{}
	currLevelCount := nLeaves
	for currLevelCount > 0 {
		levelCounts = append(levelCounts, currLevelCount)
		totalNodes += currLevelCount
		if currLevelCount == 1 {
			break
		}
		currLevelCount = (currLevelCount + arity - 1) / arity
	}
	return totalNodes, levelCounts
}

// TreeLen is the number of nodes in a full tree over leaves, the same value
// merkletree's get_merkle_tree_len reports for StoreConfig.Size.
func TreeLen(leaves, arity int64) int64 {
	total, _ := computeTotalNodes(leaves, arity)
	return total
}

// RowCount is the number of rows in a tree, base and root included.
func RowCount(leaves, arity int64) int {
	return NodeLevel(leaves, arity)
}

func NodeLevel(leaves, arity int64) int {
	if leaves == 0 {
		return 0
	}
	level := 0
	for leaves > 1 {
		leaves = (leaves + arity - 1) / arity
		level++
	}
	return level + 1
}

// isFullTree reports whether leaves is a non-zero power of arity.
func isFullTree(leaves, arity int64) bool {
	if leaves < 1 || arity < 2 {
		return false
	}
	for leaves > 1 {
		if leaves%arity != 0 {
			return false
		}
		leaves /= arity
	}
	return true
}
