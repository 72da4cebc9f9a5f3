package storage

import (
	"sync"

	"replog/internal/message"
)

// Store defines the interface for the local message log.
type Store interface {
	// Append inserts the record if its identifier is not already present.
	// Returns true if the record was inserted, false on a duplicate.
	Append(msg message.Message) bool
	// Contains reports whether a record with the given identifier is stored.
	Contains(id string) bool
	// Snapshot returns a copy of the log in insertion order.
	Snapshot() []message.Message
	// Len returns the number of stored records.
	Len() int
}

// MemoryLog is an in-memory implementation of Store.
// It's thread-safe: the request-handling path and the gossip loop may
// append and read concurrently against the same instance.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []message.Message
	seen    map[string]struct{}
}

// NewMemoryLog creates a new empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		seen: make(map[string]struct{}),
	}
}

// Append inserts the record unless its identifier is already present.
// The duplicate check and the append happen under a single lock, so two
// concurrent appenders cannot both pass the check and double-insert.
func (l *MemoryLog) Append(msg message.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.seen[msg.ID]; dup {
		return false
	}
	l.seen[msg.ID] = struct{}{}
	l.entries = append(l.entries, msg)
	return true
}

// Contains reports whether a record with the given identifier is stored.
func (l *MemoryLog) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.seen[id]
	return ok
}

// Snapshot returns a copy of the log in insertion order. The copy is
// detached from the log; later appends don't show up in it.
func (l *MemoryLog) Snapshot() []message.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make([]message.Message, len(l.entries))
	copy(snapshot, l.entries)
	return snapshot
}

// Len returns the number of stored records.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}
