package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"replog/internal/config"
	"replog/internal/gossip"
	"replog/internal/quorum"
	"replog/internal/storage"
)

// Node wires the store, the replication protocols, and the HTTP surface
// for one process. The gossip synchronizer only runs in eventual mode;
// the quorum coordinator is only exercised in strong mode.
type Node struct {
	cfg        *config.Config
	store      *storage.MemoryLog
	gossip     *gossip.Synchronizer
	httpServer *http.Server
	log        *slog.Logger
}

// NewNode creates a node instance from resolved configuration.
func NewNode(cfg *config.Config, log *slog.Logger) *Node {
	store := storage.NewMemoryLog()
	client := NewPeerClient(cfg.RequestTimeout)
	coordinator := quorum.NewCoordinator(cfg.RequestTimeout, log)
	server := NewServer(cfg, store, coordinator, client, log)

	n := &Node{
		cfg:   cfg,
		store: store,
		httpServer: &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: server.Handler(),
		},
		log: log,
	}

	if cfg.Mode == config.ModeEventual {
		n.gossip = gossip.NewSynchronizer(store, cfg.Peers, client.FetchMessages,
			cfg.GossipMinInterval, cfg.GossipMaxInterval, cfg.RequestTimeout, log)
	}

	return n
}

// Start launches the gossip loop when configured and begins serving.
// It blocks until the listener fails or Stop is called.
func (n *Node) Start() error {
	if n.gossip != nil {
		n.gossip.Start()
	}

	n.log.Info("node listening",
		"addr", n.cfg.ListenAddr, "mode", n.cfg.Mode, "peers", len(n.cfg.Peers))

	if err := n.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop shuts the HTTP server down gracefully and stops the gossip loop.
func (n *Node) Stop(ctx context.Context) error {
	if n.gossip != nil {
		n.gossip.Stop()
	}
	if err := n.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	n.log.Info("node stopped")
	return nil
}
