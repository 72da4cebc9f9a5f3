package gossip

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"replog/internal/message"
	"replog/internal/storage"
)

const (
	// DefaultMinInterval is the lower bound of the sleep between rounds.
	DefaultMinInterval = 2 * time.Second
	// DefaultMaxInterval is the upper bound of the sleep between rounds.
	DefaultMaxInterval = 5 * time.Second
	// DefaultFetchTimeout is the default timeout for a round's peer fetch.
	DefaultFetchTimeout = 2 * time.Second
)

// FetchFunc pulls the full message set from one peer.
type FetchFunc func(ctx context.Context, peer string) ([]message.Message, error)

// Synchronizer runs the background anti-entropy loop. Each round sleeps
// a random duration drawn from [minInterval, maxInterval], picks one
// peer uniformly at random, and merges its message set into the local
// store. Failed rounds are skipped silently; the next round retries.
type Synchronizer struct {
	store storage.Store
	peers []string
	fetch FetchFunc

	minInterval time.Duration
	maxInterval time.Duration
	timeout     time.Duration
	log         *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSynchronizer creates a synchronizer over the given peer set.
// Non-positive intervals and timeout fall back to defaults.
func NewSynchronizer(store storage.Store, peers []string, fetch FetchFunc,
	minInterval, maxInterval, timeout time.Duration, log *slog.Logger) *Synchronizer {

	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	if maxInterval < minInterval {
		maxInterval = minInterval
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Synchronizer{
		store:       store,
		peers:       peers,
		fetch:       fetch,
		minInterval: minInterval,
		maxInterval: maxInterval,
		timeout:     timeout,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the gossip loop on its own goroutine.
func (s *Synchronizer) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()
	s.log.Info("gossip loop started",
		"peers", len(s.peers), "min_interval", s.minInterval, "max_interval", s.maxInterval)
}

// Stop cancels the loop and waits for it to exit.
func (s *Synchronizer) Stop() {
	s.cancel()
	s.wg.Wait()
}

// run is the loop body: sleep, pick a peer, sync. The context is
// checked at every suspension point so shutdown is deterministic.
func (s *Synchronizer) run() {
	timer := time.NewTimer(s.nextInterval())
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		if len(s.peers) > 0 {
			peer := s.peers[rand.Intn(len(s.peers))]
			s.syncRound(peer)
		}

		timer.Reset(s.nextInterval())
	}
}

// syncRound performs one sync against the chosen peer. Failures end the
// round; they never propagate past the synchronizer.
func (s *Synchronizer) syncRound(peer string) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	merged, err := s.syncWithPeer(ctx, peer)
	if err != nil {
		s.log.Debug("gossip round skipped", "peer", peer, "error", err)
		return
	}
	if merged > 0 {
		s.log.Info("gossip merged messages", "peer", peer, "merged", merged)
	}
}

// syncWithPeer pulls the peer's full message set and appends every
// record whose identifier is absent locally. The store's idempotent
// append makes the merge commutative and safe against duplicates
// within the same remote batch. Returns the number of merged records.
func (s *Synchronizer) syncWithPeer(ctx context.Context, peer string) (int, error) {
	remote, err := s.fetch(ctx, peer)
	if err != nil {
		return 0, err
	}

	merged := 0
	for _, msg := range remote {
		if s.store.Append(msg) {
			merged++
		}
	}
	return merged, nil
}

// nextInterval draws the sleep before the next round uniformly from
// [minInterval, maxInterval]. Randomizing decouples the nodes' rounds
// so they don't synchronize into bursts.
func (s *Synchronizer) nextInterval() time.Duration {
	spread := s.maxInterval - s.minInterval
	if spread <= 0 {
		return s.minInterval
	}
	return s.minInterval + time.Duration(rand.Int63n(int64(spread)+1))
}
