package engine

import (
	"context"

	"github.com/lumafield/enginemesh/core"
)

// txnRecord pairs the registry snapshots taken at Begin and Commit time.
// Keeping both sides makes undo and redo complete for every operation kind,
// including in-place updates.
type txnRecord struct {
	id     string
	before core.Snapshot
	after  core.Snapshot
}

// Begin opens a snapshot transaction by copying the current registry.
// Nested transactions are not supported: a second Begin fails with
// TRANSACTION_ACTIVE and leaves the open transaction untouched.
//
// This is snapshot/restore, not ACID. There is no isolation: mutations from
// other goroutines during an open transaction land in the registry and are
// discarded by Rollback along with the caller's own.
func (e *Engine) Begin(ctx context.Context) error {
	return e.run(ctx, "begin", "", nil, func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.open != nil {
			return core.NewError(core.CodeTransactionActive, "transaction %s already open", e.open.id)
		}
		e.open = &txnRecord{id: core.NewID(), before: e.entries.Clone()}
		return nil
	})
}

// Commit closes the open transaction, recording its before/after snapshot
// pair on the undo stack and clearing the redo stack.
func (e *Engine) Commit(ctx context.Context) error {
	return e.run(ctx, "commit", "", nil, func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.open == nil {
			return core.NewError(core.CodeNoTransaction, "no open transaction")
		}
		e.open.after = e.entries.Clone()
		e.undo = append(e.undo, *e.open)
		e.redo = nil
		e.open = nil
		return nil
	})
}

// Rollback discards the open transaction and restores the registry to the
// exact key set and payload values captured at Begin time.
func (e *Engine) Rollback(ctx context.Context) error {
	return e.run(ctx, "rollback", "", nil, func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.open == nil {
			return core.NewError(core.CodeNoTransaction, "no open transaction")
		}
		e.entries = e.open.before.Clone()
		e.open = nil
		return nil
	})
}

// Undo reverts the most recently committed transaction by restoring its
// begin snapshot. The transaction moves to the redo stack. Fails with
// NOTHING_TO_UNDO when the undo stack is empty and with TRANSACTION_ACTIVE
// while a transaction is open.
func (e *Engine) Undo(ctx context.Context) error {
	return e.run(ctx, "undo", "", nil, func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.open != nil {
			return core.NewError(core.CodeTransactionActive, "cannot undo with an open transaction")
		}
		if len(e.undo) == 0 {
			return core.NewError(core.CodeNothingToUndo, "undo stack is empty")
		}
		rec := e.undo[len(e.undo)-1]
		e.undo = e.undo[:len(e.undo)-1]
		e.entries = rec.before.Clone()
		e.redo = append(e.redo, rec)
		return nil
	})
}

// Redo re-applies the most recently undone transaction by restoring its
// commit snapshot. Update operations redo exactly like any other, since the
// snapshot pair captures the full registry on both sides.
func (e *Engine) Redo(ctx context.Context) error {
	return e.run(ctx, "redo", "", nil, func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.open != nil {
			return core.NewError(core.CodeTransactionActive, "cannot redo with an open transaction")
		}
		if len(e.redo) == 0 {
			return core.NewError(core.CodeNothingToRedo, "redo stack is empty")
		}
		rec := e.redo[len(e.redo)-1]
		e.redo = e.redo[:len(e.redo)-1]
		e.entries = rec.after.Clone()
		e.undo = append(e.undo, rec)
		return nil
	})
}

// InTransaction reports whether a transaction is currently open.
func (e *Engine) InTransaction() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.open != nil
}

// UndoDepth returns the number of committed transactions available to Undo.
func (e *Engine) UndoDepth() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.undo)
}

// RedoDepth returns the number of undone transactions available to Redo.
func (e *Engine) RedoDepth() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.redo)
}
