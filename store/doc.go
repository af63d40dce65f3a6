// Package store provides SnapshotStore implementations for persisting
// registry snapshots: a volatile in-memory store, a file store writing one
// JSON envelope per snapshot, and (in the sqlite sub-package) a durable
// SQLite backend.
//
// The file and sqlite stores serialize snapshots inside a shared envelope:
// a versioned record with a compression flag, the (optionally gzipped)
// value and an optional expiry.
//
// Persistence is structural: entry payloads round-trip through JSON, so
// func-valued options (validators, matchers) do not survive a reload and
// must be re-attached by the owning engine.
package store
