package quorum

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// TestMajority_Formula checks majority = floor((N+1)/2) + 1 for a range
// of peer counts, N+1 being the cluster size including the local node.
func TestMajority_Formula(t *testing.T) {
	tests := []struct {
		peers int
		want  int
	}{
		{0, 1},
		{1, 2},
		{2, 2},
		{3, 3},
		{4, 3},
		{5, 4},
		{6, 4},
		{9, 6},
	}

	for _, tt := range tests {
		if got := Majority(tt.peers); got != tt.want {
			t.Errorf("Majority(%d) = %d, want %d", tt.peers, got, tt.want)
		}
	}
}

// TestCommit_SucceedsIffMajorityAcks drives the coordinator with every
// possible ack count for several cluster sizes and checks commit happens
// exactly when self plus acking peers reach the majority threshold.
func TestCommit_SucceedsIffMajorityAcks(t *testing.T) {
	for peerCount := 0; peerCount <= 6; peerCount++ {
		for acking := 0; acking <= peerCount; acking++ {
			name := fmt.Sprintf("peers=%d acking=%d", peerCount, acking)
			t.Run(name, func(t *testing.T) {
				peers := make([]string, peerCount)
				for i := range peers {
					peers[i] = fmt.Sprintf("http://p%d", i)
				}

				writeFn := func(ctx context.Context, peer string) (bool, error) {
					var idx int
					fmt.Sscanf(peer, "http://p%d", &idx)
					return idx < acking, nil
				}

				c := NewCoordinator(time.Second, testLogger())
				result := c.Commit(context.Background(), peers, writeFn)

				required := Majority(peerCount)
				wantCommit := 1+acking >= required

				if result.Committed != wantCommit {
					t.Errorf("Committed = %v, want %v (acks=%d, required=%d)",
						result.Committed, wantCommit, result.Acks, required)
				}
				if !result.Committed && result.Acks != 1+acking {
					t.Errorf("Final tally = %d, want %d", result.Acks, 1+acking)
				}
				if result.Nodes != peerCount+1 {
					t.Errorf("Nodes = %d, want %d", result.Nodes, peerCount+1)
				}
			})
		}
	}
}
