package node

import "replog/internal/message"

// Wire types for the node's JSON surface. The peer client, the
// integration harness, and the benchmark tool decode into these.

// PostMessageRequest is the client write payload.
type PostMessageRequest struct {
	Text      string `json:"text" validate:"required"`
	User      string `json:"user,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// PostMessageResponse is returned on an accepted client write.
type PostMessageResponse struct {
	Status    string `json:"status"`
	Mode      string `json:"mode"`
	Replicas  int    `json:"replicas"`
	MessageID string `json:"message_id"`
}

// InternalWriteRequest is the peer-to-peer replicated write payload: a
// full message record as formed by the origin node.
type InternalWriteRequest struct {
	ID         string `json:"id" validate:"required"`
	Text       string `json:"text"`
	User       string `json:"user"`
	Timestamp  string `json:"timestamp"`
	OriginNode string `json:"origin_node"`
}

func (r InternalWriteRequest) toMessage() message.Message {
	return message.Message{
		ID:         r.ID,
		Text:       r.Text,
		User:       r.User,
		Timestamp:  r.Timestamp,
		OriginNode: r.OriginNode,
	}
}

// AckResponse acknowledges an internal write.
type AckResponse struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// MessagesResponse is the full local message set.
type MessagesResponse struct {
	Messages []message.Message `json:"messages"`
	Count    int               `json:"count"`
}

// HealthResponse reports node liveness.
type HealthResponse struct {
	Status string `json:"status"`
	NodeID string `json:"node_id"`
	Mode   string `json:"mode"`
}

// ErrorResponse is the failure payload for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
