package it

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"replog/internal/config"
	"replog/internal/node"
)

// Cluster is a test harness running replog node processes.
type Cluster struct {
	nodes      []*Node
	logDir     string
	binaryPath string
	httpClient *http.Client
	mu         sync.Mutex
}

// Node is a single node process in the test cluster.
type Node struct {
	ID      string
	BaseURL string
	Port    int
	cmd     *exec.Cmd
	logFile *os.File
}

// NewCluster creates a new test cluster harness.
func NewCluster(binaryPath string) (*Cluster, error) {
	logDir := filepath.Join(".local", "it-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &Cluster{
		logDir:     logDir,
		binaryPath: binaryPath,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}, nil
}

// StartNode starts a single node process listening on port, with the
// given peer base URLs and consistency mode.
func (c *Cluster) StartNode(ctx context.Context, nodeID string, port int, peers []string, mode config.Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	logPath := filepath.Join(c.logDir, fmt.Sprintf("%s.log", nodeID))
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.binaryPath)
	cmd.Env = append(os.Environ(),
		"NODE_ID="+nodeID,
		fmt.Sprintf("LISTEN_ADDR=:%d", port),
		"PEERS="+strings.Join(peers, ","),
		"MODE="+mode.String(),
		"GOSSIP_MIN_INTERVAL=200ms",
		"GOSSIP_MAX_INTERVAL=500ms",
		"REQUEST_TIMEOUT=2s",
		"LOG_LEVEL=debug",
	)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return fmt.Errorf("failed to start node %s: %w", nodeID, err)
	}

	n := &Node{
		ID:      nodeID,
		BaseURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:    port,
		cmd:     cmd,
		logFile: logFile,
	}
	c.nodes = append(c.nodes, n)

	if err := c.waitForReady(ctx, n, 10*time.Second); err != nil {
		n.Stop()
		return fmt.Errorf("node %s failed to become ready: %w", nodeID, err)
	}
	return nil
}

// StartCluster starts a 3-node cluster in the given mode, each node
// configured with the other two as static peers.
func (c *Cluster) StartCluster(ctx context.Context, mode config.Mode) error {
	const basePort = 56001

	urls := make([]string, 3)
	for i := range urls {
		urls[i] = fmt.Sprintf("http://127.0.0.1:%d", basePort+i)
	}

	for i := 0; i < 3; i++ {
		peers := make([]string, 0, 2)
		for j, u := range urls {
			if j != i {
				peers = append(peers, u)
			}
		}
		nodeID := fmt.Sprintf("n%d", i+1)
		if err := c.StartNode(ctx, nodeID, basePort+i, peers, mode); err != nil {
			c.Stop()
			return fmt.Errorf("failed to start node %s: %w", nodeID, err)
		}
	}
	return nil
}

// waitForReady polls the node's health endpoint until it responds.
func (c *Cluster) waitForReady(ctx context.Context, n *Node, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return fmt.Errorf("timeout waiting for node %s to be ready", n.ID)
			}
			resp, err := c.httpClient.Get(n.BaseURL + "/")
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return nil
				}
			}
		}
	}
}

// Stop stops all nodes in the cluster.
func (c *Cluster) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.nodes {
		n.Stop()
	}
	c.nodes = nil
}

// Stop stops a single node process.
func (n *Node) Stop() {
	if n.cmd != nil && n.cmd.Process != nil {
		n.cmd.Process.Kill()
		n.cmd.Wait()
	}
	if n.logFile != nil {
		n.logFile.Close()
	}
}

// GetNode returns a node by ID.
func (c *Cluster) GetNode(nodeID string) *Node {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.nodes {
		if n.ID == nodeID {
			return n
		}
	}
	return nil
}

// KillNode kills a specific node process.
func (c *Cluster) KillNode(nodeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.nodes {
		if n.ID == nodeID {
			n.Stop()
			return nil
		}
	}
	return fmt.Errorf("node %s not found", nodeID)
}

// PostMessage posts a client write to the node and decodes the reply.
func (c *Cluster) PostMessage(n *Node, text string) (int, *node.PostMessageResponse, error) {
	payload, err := json.Marshal(node.PostMessageRequest{Text: text, User: "it"})
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.httpClient.Post(n.BaseURL+"/message", "application/json", bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, nil, nil
	}

	var out node.PostMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, &out, nil
}

// GetMessages fetches the node's full message set.
func (c *Cluster) GetMessages(n *Node) (*node.MessagesResponse, error) {
	resp, err := c.httpClient.Get(n.BaseURL + "/messages")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("node %s returned status %d", n.ID, resp.StatusCode)
	}

	var out node.MessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
