// Package quorum provides the coordination logic for majority writes.
// It handles fanout to peers, timeout management, and early exit once a
// strict majority of the cluster has acknowledged.
package quorum
