// Package storage provides the local message log interface and
// in-memory implementation. The log is append-only, keeps insertion
// order, and rejects records whose identifier is already present, so
// both replication protocols can merge through it idempotently.
package storage
