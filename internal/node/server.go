package node

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"replog/internal/config"
	"replog/internal/message"
	"replog/internal/quorum"
	"replog/internal/storage"
)

// Server exposes the node's HTTP surface: the client endpoints and the
// internal peer-to-peer endpoints consumed by the replication protocols.
type Server struct {
	nodeID      string
	mode        config.Mode
	peers       []string
	store       storage.Store
	coordinator *quorum.Coordinator
	client      *PeerClient
	validate    *validator.Validate
	log         *slog.Logger
}

// NewServer creates the HTTP server for one node.
func NewServer(cfg *config.Config, store storage.Store, coordinator *quorum.Coordinator,
	client *PeerClient, log *slog.Logger) *Server {

	return &Server{
		nodeID:      cfg.NodeID,
		mode:        cfg.Mode,
		peers:       cfg.Peers,
		store:       store,
		coordinator: coordinator,
		client:      client,
		validate:    validator.New(),
		log:         log,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /messages", s.handleGetMessages)
	mux.HandleFunc("POST /message", s.handlePostMessage)
	mux.HandleFunc("POST /internal/write", s.handleInternalWrite)
	return mux
}

// handleHealth reports node liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "up",
		NodeID: s.nodeID,
		Mode:   s.mode.String(),
	})
}

// handleGetMessages returns the full local message set. Served to both
// clients and gossiping peers.
func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	snapshot := s.store.Snapshot()
	s.writeJSON(w, http.StatusOK, MessagesResponse{
		Messages: snapshot,
		Count:    len(snapshot),
	})
}

// handlePostMessage accepts a client write and replicates it according
// to the configured consistency mode.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payload"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payload", Details: err.Error()})
		return
	}

	msg := message.New(req.Text, req.User, req.Timestamp, s.nodeID)

	switch s.mode {
	case config.ModeStrong:
		s.commitWithQuorum(r.Context(), w, msg)
	case config.ModeEventual:
		// Accept locally right away; gossip propagates in the background.
		s.store.Append(msg)
		s.log.Info("message accepted", "message_id", msg.ID, "mode", "gossip")
		s.writeJSON(w, http.StatusAccepted, PostMessageResponse{
			Status:    "accepted",
			Mode:      "gossip",
			Replicas:  1,
			MessageID: msg.ID,
		})
	}
}

// commitWithQuorum fans the write out to all peers and stores the
// record locally only after the majority confirmed it.
func (s *Server) commitWithQuorum(ctx context.Context, w http.ResponseWriter, msg message.Message) {
	result := s.coordinator.Commit(ctx, s.peers, func(ctx context.Context, peer string) (bool, error) {
		return s.client.PushMessage(ctx, peer, msg)
	})

	if !result.Committed {
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "write quorum failed",
			Details: fmt.Sprintf("Only %d/%d nodes acknowledged the write, required %d for quorum.",
				result.Acks, result.Nodes, result.Required),
		})
		return
	}

	s.store.Append(msg)
	s.log.Info("message committed", "message_id", msg.ID, "replicas", result.Acks)
	s.writeJSON(w, http.StatusOK, PostMessageResponse{
		Status:    "committed",
		Mode:      "quorum",
		Replicas:  result.Acks,
		MessageID: msg.ID,
	})
}

// handleInternalWrite accepts a replicated write from a peer's quorum
// coordinator. A duplicate identifier is a successful no-op.
func (s *Server) handleInternalWrite(w http.ResponseWriter, r *http.Request) {
	var req InternalWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payload"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payload", Details: err.Error()})
		return
	}

	if !s.store.Append(req.toMessage()) {
		s.writeJSON(w, http.StatusOK, AckResponse{Status: "ack", Note: "duplicate ignored"})
		return
	}

	s.log.Debug("replicated write stored", "message_id", req.ID, "origin", req.OriginNode)
	s.writeJSON(w, http.StatusOK, AckResponse{Status: "ack"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("response encode failed", "error", err)
	}
}
