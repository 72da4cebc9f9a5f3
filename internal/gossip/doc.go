// Package gossip implements the anti-entropy synchronizer for eventual
// consistency. At randomized intervals it pulls one random peer's full
// message set and merges any records not yet present locally.
//
// Limitations (kept deliberately simple):
// - Full-set transfer every round; no digest or delta exchange
// - No Merkle-tree diffing or version-vector causality tracking
// - Convergence is best-effort, not bounded
package gossip
