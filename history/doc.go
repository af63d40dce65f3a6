// Package history implements the capped operation log shared by all
// engines: an append-only ring of core.HistoryEntry values with
// oldest-first eviction, linear-scan filtering and per-key timing stats.
package history
