// Package engine implements the registry pattern shared by every engine in
// the mesh: a keyed entry registry with lifecycle hooks, a capped operation
// history, and snapshot based transactions with undo/redo.
//
// There is no ambient global instance; an engine is a value you construct
// and own:
//
//	eng := engine.New("state",
//	    engine.WithLogger(logger),
//	    engine.WithHistoryCap(500))
//
//	unregister, err := eng.Register(ctx, "a", map[string]any{"x": 1}, core.EntryOptions{})
//
// # Registry
//
// Entries are keyed records with options (priority, tags, validator,
// matcher) and an active flag. Duplicate registration is rejected with
// DUPLICATE_KEY unless the engine was built WithOverwrite(true), in which
// case overwrite semantics are documented and the replaced entry remains
// recoverable through transactions. Unregister is an idempotent no-op for
// absent keys.
//
// # Hooks
//
// Every mutating operation fires before/after/error hook phases. Global
// hooks fire before per-key hooks; within a scope callbacks run in priority
// order (higher first), then registration order. A failing callback is
// logged and surfaced through the error phase but never aborts the
// remaining callbacks or the operation.
//
// # Transactions
//
// Begin/Commit/Rollback are snapshot and restore, not ACID: Begin copies
// the registry, Rollback restores that copy, Commit records the before and
// after snapshots on the undo stack. There is no isolation; concurrent
// writers during an open transaction are the caller's responsibility.
// Undo and Redo restore the before and after snapshots of committed
// transactions, which makes redo complete for update operations as well.
package engine
