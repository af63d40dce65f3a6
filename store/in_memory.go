package store

import (
	"sync"

	"github.com/lumafield/enginemesh/core"
)

// InMemoryStore is a volatile SnapshotStore keeping snapshots in a process
// local map. It is safe for concurrent access and best suited for tests or
// single-process setups. Snapshots are cloned on save and load to prevent
// external mutation of internal state.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]core.Snapshot
}

// NewInMemoryStore constructs an empty in-memory snapshot store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[string]core.Snapshot)}
}

// Save stores (or overwrites) a clone of the snapshot under the name.
func (s *InMemoryStore) Save(name string, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[name] = snap.Clone()
	return nil
}

// Load returns a clone of the stored snapshot or ErrSnapshotNotFound.
func (s *InMemoryStore) Load(name string) (core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[name]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap.Clone(), nil
}

// Delete removes the snapshot if present or returns ErrSnapshotNotFound.
func (s *InMemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[name]; !ok {
		return ErrSnapshotNotFound
	}
	delete(s.snapshots, name)
	return nil
}

// List returns the stored snapshot names. The slice is a snapshot and safe
// for caller mutation.
func (s *InMemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.snapshots))
	for name := range s.snapshots {
		names = append(names, name)
	}
	return names, nil
}
