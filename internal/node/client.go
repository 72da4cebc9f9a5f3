package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"replog/internal/message"
)

// PeerClient issues internal HTTP calls to peer nodes. A single client
// is shared by the quorum coordinator and the gossip synchronizer; the
// underlying http.Client pools connections per peer.
type PeerClient struct {
	httpClient *http.Client
}

// NewPeerClient creates a peer client with the given per-call timeout.
func NewPeerClient(timeout time.Duration) *PeerClient {
	return &PeerClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PushMessage posts the record to the peer's internal write endpoint
// and reports whether the peer acknowledged it. Any transport error or
// non-200 status is a rejection.
func (c *PeerClient) PushMessage(ctx context.Context, peer string, msg message.Message) (bool, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peer+"/internal/write", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build request for %s: %w", peer, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("push to %s: %w", peer, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK, nil
}

// FetchMessages pulls the peer's full message set. Its signature
// matches gossip.FetchFunc.
func (c *PeerClient) FetchMessages(ctx context.Context, peer string) ([]message.Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, peer+"/messages", nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", peer, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", peer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("peer %s returned status %d", peer, resp.StatusCode)
	}

	var payload MessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode messages from %s: %w", peer, err)
	}
	return payload.Messages, nil
}
