// Package message defines the record type replicated by both
// consistency protocols. Records are immutable once created and are
// deduplicated by their identifier.
package message
