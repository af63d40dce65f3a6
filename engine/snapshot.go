package engine

import (
	"context"

	"github.com/lumafield/enginemesh/core"
)

// Snapshot returns a copy of the current registry contents.
func (e *Engine) Snapshot() core.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.entries.Clone()
}

// Restore replaces the registry contents with the given snapshot. The undo
// and redo stacks are cleared since their snapshots no longer describe
// reachable states. Fails with TRANSACTION_ACTIVE while a transaction is
// open.
func (e *Engine) Restore(ctx context.Context, snap core.Snapshot) error {
	return e.run(ctx, "restore", "", nil, func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.open != nil {
			return core.NewError(core.CodeTransactionActive, "cannot restore with an open transaction")
		}
		e.entries = snap.Clone()
		e.undo = nil
		e.redo = nil
		return nil
	})
}

// SaveSnapshot persists the current registry under the given name using the
// store attached via WithStore.
func (e *Engine) SaveSnapshot(ctx context.Context, name string) error {
	return e.SaveSnapshotTo(ctx, e.store, name)
}

// SaveSnapshotTo persists the current registry to an explicit store.
func (e *Engine) SaveSnapshotTo(ctx context.Context, store core.SnapshotStore, name string) error {
	return e.run(ctx, "save_snapshot", name, nil, func() error {
		if store == nil {
			return core.NewError(core.CodeSnapshotNotFound, "no snapshot store configured")
		}
		return store.Save(name, e.Snapshot())
	})
}

// LoadSnapshot restores the registry from the named snapshot in the store
// attached via WithStore.
func (e *Engine) LoadSnapshot(ctx context.Context, name string) error {
	return e.LoadSnapshotFrom(ctx, e.store, name)
}

// LoadSnapshotFrom restores the registry from an explicit store.
func (e *Engine) LoadSnapshotFrom(ctx context.Context, store core.SnapshotStore, name string) error {
	return e.run(ctx, "load_snapshot", name, nil, func() error {
		if store == nil {
			return core.NewError(core.CodeSnapshotNotFound, "no snapshot store configured")
		}
		snap, err := store.Load(name)
		if err != nil {
			return err
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.open != nil {
			return core.NewError(core.CodeTransactionActive, "cannot load a snapshot with an open transaction")
		}
		e.entries = snap.Clone()
		e.undo = nil
		e.redo = nil
		return nil
	})
}
