package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"gopkg.in/yaml.v3"
)

// Mode selects the replication strategy for client writes.
type Mode string

const (
	// ModeStrong replicates through synchronous quorum writes.
	ModeStrong Mode = "strong"
	// ModeEventual replicates through asynchronous gossip.
	ModeEventual Mode = "eventual"
)

// String returns the string representation of Mode.
func (m Mode) String() string {
	return string(m)
}

// ParseMode resolves a mode string. An unknown mode is a configuration
// error, fatal at startup.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strong", "quorum":
		return ModeStrong, nil
	case "eventual", "gossip":
		return ModeEventual, nil
	default:
		return "", fmt.Errorf("unknown consistency mode: %q", s)
	}
}

// Config holds the resolved node configuration.
type Config struct {
	NodeID            string
	ListenAddr        string
	Mode              Mode
	Peers             []string
	GossipMinInterval time.Duration
	GossipMaxInterval time.Duration
	RequestTimeout    time.Duration
	LogLevel          slog.Level
}

// environment is the raw env surface; Load resolves it into Config.
type environment struct {
	NodeID            string        `env:"NODE_ID,default=node-1"`
	ListenAddr        string        `env:"LISTEN_ADDR,default=:5000"`
	Mode              string        `env:"MODE,default=strong"`
	Peers             string        `env:"PEERS"`
	ClusterFile       string        `env:"CLUSTER_FILE"`
	GossipMinInterval time.Duration `env:"GOSSIP_MIN_INTERVAL,default=2s"`
	GossipMaxInterval time.Duration `env:"GOSSIP_MAX_INTERVAL,default=5s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT,default=2s"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
}

// clusterFile is the YAML shape of an optional cluster topology file.
type clusterFile struct {
	Peers []string `yaml:"peers"`
}

// Load reads the node configuration from the environment and, when
// CLUSTER_FILE is set, the peer list from a YAML cluster file. A PEERS
// environment value wins over the file's peer list.
func Load() (*Config, error) {
	var e environment
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	mode, err := ParseMode(e.Mode)
	if err != nil {
		return nil, err
	}

	level, err := ParseLogLevel(e.LogLevel)
	if err != nil {
		return nil, err
	}

	peers := ParsePeers(e.Peers)
	if len(peers) == 0 && e.ClusterFile != "" {
		peers, err = loadClusterFile(e.ClusterFile)
		if err != nil {
			return nil, err
		}
	}

	if e.GossipMaxInterval < e.GossipMinInterval {
		return nil, fmt.Errorf("gossip interval window inverted: min=%s max=%s",
			e.GossipMinInterval, e.GossipMaxInterval)
	}
	if e.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %s", e.RequestTimeout)
	}

	return &Config{
		NodeID:            e.NodeID,
		ListenAddr:        e.ListenAddr,
		Mode:              mode,
		Peers:             peers,
		GossipMinInterval: e.GossipMinInterval,
		GossipMaxInterval: e.GossipMaxInterval,
		RequestTimeout:    e.RequestTimeout,
		LogLevel:          level,
	}, nil
}

// ParsePeers parses a comma-separated list of peer addresses. Entries
// may be bare host:port pairs or full base URLs; bare entries get an
// http:// scheme. Empty entries are skipped.
func ParsePeers(peersStr string) []string {
	if strings.TrimSpace(peersStr) == "" {
		return []string{}
	}

	parts := strings.Split(peersStr, ",")
	peers := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		peers = append(peers, normalizePeer(part))
	}
	return peers
}

// ParseLogLevel maps a level name onto a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
}

func loadClusterFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cluster file: %w", err)
	}

	var cf clusterFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("cluster file %s: %w", path, err)
	}

	peers := make([]string, 0, len(cf.Peers))
	for _, p := range cf.Peers {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		peers = append(peers, normalizePeer(p))
	}
	return peers, nil
}

// normalizePeer ensures the address is a usable base URL. In container
// deployments peers are usually bare hostname:port entries.
func normalizePeer(p string) string {
	if !strings.Contains(p, "://") {
		p = "http://" + p
	}
	return strings.TrimRight(p, "/")
}
