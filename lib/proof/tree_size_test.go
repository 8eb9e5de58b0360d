package proof

import "testing"

func TestComputeTotalNodes(t *testing.T) {
	tests := []struct {
		leaves     int64
		arity      int64
		wantTotal  int64
		wantLevels int
	}{
		{1, 2, 1, 1},   // Single leaf: no parents needed, 1 level
		{2, 2, 3, 2},   // Two leaves: 1 parent, 2 levels (2+1=3)
		{3, 2, 6, 3},   // Three leaves: rounds up to 2 parents, then 1 root (3+2+1=6)
		{4, 2, 7, 3},   // Power of 2: perfect binary tree depth 3 (4+2+1=7)
		{8, 2, 15, 4},  // Power of 2: perfect binary tree depth 4 (8+4+2+1=15)
		{64, 8, 73, 3}, // Oct tree over a 2KiB window (64+8+1=73)
		{512, 8, 585, 4},
	}

	for _, tt := range tests {
		total, levels := computeTotalNodes(tt.leaves, tt.arity)
		if total != tt.wantTotal {
			t.Errorf("computeTotalNodes(%d, %d): total=%d, want %d", tt.leaves, tt.arity, total, tt.wantTotal)
		}
		if TreeLen(tt.leaves, tt.arity) != tt.wantTotal {
			t.Errorf("TreeLen(%d, %d) = %d, want %d", tt.leaves, tt.arity, TreeLen(tt.leaves, tt.arity), tt.wantTotal)
		}
		if len(levels) != tt.wantLevels {
			t.Errorf("computeTotalNodes(%d, %d): levels=%d, want %d", tt.leaves, tt.arity, len(levels), tt.wantLevels)
		}
		if levels[len(levels)-1] != 1 {
			t.Errorf("computeTotalNodes(%d, %d): root != 1", tt.leaves, tt.arity)
		}
		if RowCount(tt.leaves, tt.arity) != tt.wantLevels {
			t.Errorf("RowCount(%d, %d) = %d, want %d", tt.leaves, tt.arity, RowCount(tt.leaves, tt.arity), tt.wantLevels)
		}
	}
}

func TestIsFullTree(t *testing.T) {
	tests := []struct {
		leaves, arity int64
		want          bool
	}{
		{1, 8, true},
		{8, 8, true},
		{64, 8, true},
		{128, 8, false},
		{128, 2, true},
		{0, 2, false},
		{6, 2, false},
	}
	for _, tt := range tests {
		if got := isFullTree(tt.leaves, tt.arity); got != tt.want {
			t.Errorf("isFullTree(%d, %d) = %v, want %v", tt.leaves, tt.arity, got, tt.want)
		}
	}
}
