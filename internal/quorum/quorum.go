package quorum

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultPeerTimeout is the default timeout for each peer write call.
	DefaultPeerTimeout = 2 * time.Second
)

// Result represents the outcome of one quorum coordination round.
type Result struct {
	Committed bool
	Acks      int
	Required  int
	Nodes     int
}

// PeerWriteFunc performs the internal write against a single peer.
// It returns true only if the peer acknowledged the write; transport
// errors and non-success statuses are negative votes, never failures
// of the round itself.
type PeerWriteFunc func(ctx context.Context, peer string) (bool, error)

// Coordinator fans a client write out to all peers concurrently and
// decides commit as soon as a strict majority of the cluster (peers
// plus the local node) has acknowledged.
type Coordinator struct {
	timeout time.Duration
	log     *slog.Logger
}

// NewCoordinator creates a coordinator with the given per-peer timeout.
func NewCoordinator(timeout time.Duration, log *slog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultPeerTimeout
	}
	return &Coordinator{
		timeout: timeout,
		log:     log,
	}
}

// Majority returns the strict-majority threshold for a cluster of
// peerCount peers plus the local node: floor((peerCount+1)/2) + 1.
func Majority(peerCount int) int {
	return (peerCount+1)/2 + 1
}

// Commit dispatches the write to every peer concurrently and counts
// acknowledgements as they arrive, in completion order. The local vote
// is pre-counted. It returns as soon as the vote count reaches the
// majority threshold; outstanding peer calls are cancelled best-effort
// and their eventual results discarded. With no peers the quorum is
// trivially satisfied by the local vote.
func (c *Coordinator) Commit(ctx context.Context, peers []string, writeFn PeerWriteFunc) Result {
	nodes := len(peers) + 1
	required := Majority(len(peers))
	votes := 1 // local vote

	if len(peers) == 0 {
		c.log.Info("no peers configured, quorum achieved trivially")
		return Result{Committed: true, Acks: votes, Required: required, Nodes: nodes}
	}

	peerCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	acks := make(chan bool, len(peers))
	for _, peer := range peers {
		go func(peer string) {
			ok, err := writeFn(peerCtx, peer)
			if err != nil {
				c.log.Warn("peer write failed", "peer", peer, "error", err)
				ok = false
			}
			acks <- ok
		}(peer)
	}

	for pending := len(peers); pending > 0; pending-- {
		select {
		case ok := <-acks:
			if ok {
				votes++
			}
			if votes >= required {
				// Majority decided; don't wait on stragglers.
				cancel()
				c.log.Info("quorum achieved",
					"votes", votes, "required", required, "nodes", nodes)
				return Result{Committed: true, Acks: votes, Required: required, Nodes: nodes}
			}
		case <-ctx.Done():
			c.log.Warn("quorum round cancelled",
				"votes", votes, "required", required, "error", ctx.Err())
			return Result{Acks: votes, Required: required, Nodes: nodes}
		}
	}

	c.log.Warn("quorum failed",
		"votes", votes, "required", required, "nodes", nodes)
	return Result{Acks: votes, Required: required, Nodes: nodes}
}
