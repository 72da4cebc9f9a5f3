package storage

import (
	"fmt"
	"sync"
	"testing"

	"replog/internal/message"
)

func TestMemoryLog_AppendAndSnapshot(t *testing.T) {
	log := NewMemoryLog()

	m1 := message.Message{ID: "m1", Text: "hello", User: "alice", OriginNode: "n1"}
	m2 := message.Message{ID: "m2", Text: "world", User: "bob", OriginNode: "n2"}

	if !log.Append(m1) {
		t.Fatal("Expected first append to insert")
	}
	if !log.Append(m2) {
		t.Fatal("Expected second append to insert")
	}

	snapshot := log.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(snapshot))
	}

	// Insertion order is preserved
	if snapshot[0].ID != "m1" || snapshot[1].ID != "m2" {
		t.Errorf("Expected order [m1 m2], got [%s %s]", snapshot[0].ID, snapshot[1].ID)
	}
}

func TestMemoryLog_AppendIsIdempotent(t *testing.T) {
	log := NewMemoryLog()

	msg := message.Message{ID: "m1", Text: "hello", OriginNode: "n1"}

	if !log.Append(msg) {
		t.Fatal("Expected first append to insert")
	}
	if log.Append(msg) {
		t.Error("Expected repeat append to be a no-op")
	}
	// Same identifier, different payload: still a duplicate
	if log.Append(message.Message{ID: "m1", Text: "other", OriginNode: "n2"}) {
		t.Error("Expected append with duplicate identifier to be rejected")
	}

	if log.Len() != 1 {
		t.Errorf("Expected exactly 1 record, got %d", log.Len())
	}
}

func TestMemoryLog_Contains(t *testing.T) {
	log := NewMemoryLog()
	log.Append(message.Message{ID: "m1"})

	if !log.Contains("m1") {
		t.Error("Expected Contains to report stored identifier")
	}
	if log.Contains("m2") {
		t.Error("Expected Contains to reject unknown identifier")
	}
}

func TestMemoryLog_SnapshotIsDetached(t *testing.T) {
	log := NewMemoryLog()
	log.Append(message.Message{ID: "m1"})

	snapshot := log.Snapshot()
	log.Append(message.Message{ID: "m2"})

	if len(snapshot) != 1 {
		t.Errorf("Expected snapshot to stay at 1 record, got %d", len(snapshot))
	}
	if log.Len() != 2 {
		t.Errorf("Expected log to hold 2 records, got %d", log.Len())
	}
}

// TestMemoryLog_ConcurrentAppend_NoDoubleInsert hammers the same set of
// identifiers from many goroutines and checks no identifier is inserted
// twice and every identifier is inserted exactly once.
func TestMemoryLog_ConcurrentAppend_NoDoubleInsert(t *testing.T) {
	log := NewMemoryLog()

	const ids = 50
	const appenders = 8

	var wg sync.WaitGroup
	inserted := make([]int, appenders)

	for a := 0; a < appenders; a++ {
		wg.Add(1)
		go func(a int) {
			defer wg.Done()
			for i := 0; i < ids; i++ {
				if log.Append(message.Message{ID: fmt.Sprintf("m%d", i)}) {
					inserted[a]++
				}
			}
		}(a)
	}
	wg.Wait()

	total := 0
	for _, n := range inserted {
		total += n
	}
	if total != ids {
		t.Errorf("Expected %d successful inserts across all appenders, got %d", ids, total)
	}
	if log.Len() != ids {
		t.Errorf("Expected %d records, got %d", ids, log.Len())
	}
}
