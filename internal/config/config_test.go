package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestParsePeers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty string",
			input: "",
			want:  []string{},
		},
		{
			name:  "single bare peer",
			input: "node2:5000",
			want:  []string{"http://node2:5000"},
		},
		{
			name:  "multiple peers",
			input: "node2:5000,node3:5000",
			want:  []string{"http://node2:5000", "http://node3:5000"},
		},
		{
			name:  "explicit scheme kept",
			input: "https://node2:5000,node3:5000",
			want:  []string{"https://node2:5000", "http://node3:5000"},
		},
		{
			name:  "spaces and empty entries",
			input: " node2:5000 , , node3:5000 ",
			want:  []string{"http://node2:5000", "http://node3:5000"},
		},
		{
			name:  "trailing slash stripped",
			input: "http://node2:5000/",
			want:  []string{"http://node2:5000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePeers(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePeers(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"strong", ModeStrong, false},
		{"STRONG", ModeStrong, false},
		{"quorum", ModeStrong, false},
		{"eventual", ModeEventual, false},
		{"gossip", ModeEventual, false},
		{" eventual ", ModeEventual, false},
		{"linearizable", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	if lvl, err := ParseLogLevel("debug"); err != nil || lvl != slog.LevelDebug {
		t.Errorf("ParseLogLevel(debug) = %v, %v", lvl, err)
	}
	if _, err := ParseLogLevel("trace"); err == nil {
		t.Error("Expected error for unknown log level")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("NODE_ID", "n2")
	t.Setenv("LISTEN_ADDR", ":5002")
	t.Setenv("MODE", "eventual")
	t.Setenv("PEERS", "node1:5000,node3:5000")
	t.Setenv("GOSSIP_MIN_INTERVAL", "1s")
	t.Setenv("GOSSIP_MAX_INTERVAL", "3s")
	t.Setenv("REQUEST_TIMEOUT", "500ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.NodeID != "n2" || cfg.ListenAddr != ":5002" {
		t.Errorf("Unexpected identity: %+v", cfg)
	}
	if cfg.Mode != ModeEventual {
		t.Errorf("Mode = %q, want eventual", cfg.Mode)
	}
	if len(cfg.Peers) != 2 || cfg.Peers[0] != "http://node1:5000" {
		t.Errorf("Peers = %v", cfg.Peers)
	}
	if cfg.GossipMinInterval != time.Second || cfg.GossipMaxInterval != 3*time.Second {
		t.Errorf("Gossip window = [%s, %s]", cfg.GossipMinInterval, cfg.GossipMaxInterval)
	}
	if cfg.RequestTimeout != 500*time.Millisecond {
		t.Errorf("RequestTimeout = %s", cfg.RequestTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoad_UnknownModeFails(t *testing.T) {
	t.Setenv("MODE", "paxos")

	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestLoad_InvertedGossipWindowFails(t *testing.T) {
	t.Setenv("GOSSIP_MIN_INTERVAL", "5s")
	t.Setenv("GOSSIP_MAX_INTERVAL", "2s")

	if _, err := Load(); err == nil {
		t.Error("Expected error for inverted gossip interval window")
	}
}

func TestLoad_ClusterFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yaml")
	content := "peers:\n  - node2:5000\n  - http://node3:5000\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PEERS", "")
	t.Setenv("CLUSTER_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := []string{"http://node2:5000", "http://node3:5000"}
	if !reflect.DeepEqual(cfg.Peers, want) {
		t.Errorf("Peers = %v, want %v", cfg.Peers, want)
	}
}

func TestLoad_EnvPeersWinOverClusterFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yaml")
	if err := os.WriteFile(path, []byte("peers:\n  - node9:5000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PEERS", "node2:5000")
	t.Setenv("CLUSTER_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Peers) != 1 || cfg.Peers[0] != "http://node2:5000" {
		t.Errorf("Peers = %v, want env value", cfg.Peers)
	}
}
