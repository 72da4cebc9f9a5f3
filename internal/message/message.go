package message

import (
	"time"

	"github.com/google/uuid"
)

// DefaultUser is the author label used when a client write omits one.
const DefaultUser = "anonymous"

// Message is a single record in the replicated log.
// The identifier is assigned once by the origin node and is the sole
// deduplication key across the cluster.
type Message struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	User       string `json:"user"`
	Timestamp  string `json:"timestamp"`
	OriginNode string `json:"origin_node"`
}

// New builds a fully-formed record for a client write accepted at
// originNode. Missing user and timestamp fields get defaults; the
// identifier is freshly generated and never changes afterwards.
func New(text, user, timestamp, originNode string) Message {
	if user == "" {
		user = DefaultUser
	}
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return Message{
		ID:         uuid.NewString(),
		Text:       text,
		User:       user,
		Timestamp:  timestamp,
		OriginNode: originNode,
	}
}
