// Package statestore houses concrete implementations of core.StateStore. The
// persisted aggregate ({rules, stats, settings}) is small, so every store
// writes it as one document with overwrite semantics; there is no incremental
// diffing. Data read back from durable storage passes through the security
// sanitizer before it reaches live state, since stored rules are
// attacker-reachable input.
//
// Add additional backends (Redis, S3, SQL, etc.) alongside without changing
// any calling code; only the wiring layer decides which implementation to
// instantiate.
package statestore
