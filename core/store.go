package core

// SnapshotStore persists named registry snapshots. Implementations live in
// the store package (in-memory, file, sqlite); engines only see this
// contract.
type SnapshotStore interface {
	// Save stores (or overwrites) a snapshot under the given name.
	Save(name string, snap Snapshot) error

	// Load returns the snapshot stored under the name, or an error with
	// code SNAPSHOT_NOT_FOUND when absent or expired.
	Load(name string) (Snapshot, error)

	// Delete removes a stored snapshot. Absent names return the
	// SNAPSHOT_NOT_FOUND error.
	Delete(name string) error

	// List returns the stored snapshot names. The slice is a copy.
	List() ([]string, error)
}
