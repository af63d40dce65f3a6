package store

import "github.com/lumafield/enginemesh/core"

// ErrSnapshotNotFound is returned when a snapshot for the given name does
// not exist (or has expired) in the underlying store. Compare with
// errors.Is; matching is by error code.
var ErrSnapshotNotFound = core.NewError(core.CodeSnapshotNotFound, "snapshot not found")
