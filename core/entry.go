package core

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh unique identifier. Used for hook registrations,
// history records and transaction ids.
func NewID() string {
	return uuid.NewString()
}

// EntryOptions carries the optional behavior attached to a registry entry.
// All fields are optional; the zero value is a valid, inert option set.
type EntryOptions struct {
	// Priority orders entries when several match the same request.
	// Higher values sort first.
	Priority int `json:"priority,omitempty"`

	// Tags enable FilterByTag lookups. Tags are matched exactly.
	Tags []string `json:"tags,omitempty"`

	// Active sets the initial visibility flag. Nil means active.
	Active *bool `json:"active,omitempty"`

	// Validator, when non-nil, runs against the payload before the entry
	// is inserted or updated. A non-nil return rejects the operation.
	Validator func(payload any) error `json:"-"`

	// Matcher, when non-nil, is consulted by Match to decide whether the
	// entry applies to a given probe payload.
	Matcher func(probe any) bool `json:"-"`
}

// Entry is a single registry record. Keys are unique within one engine
// instance; there is no cross-engine uniqueness. Entries handed out by the
// registry are copies, so callers cannot mutate internal state through them.
type Entry struct {
	Key          string       `json:"key"`
	Payload      any          `json:"payload"`
	Options      EntryOptions `json:"options"`
	Active       bool         `json:"active"`
	RegisteredAt time.Time    `json:"registered_at"`
}

// HasTag reports whether the entry carries the given tag.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Options.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Snapshot is a point-in-time copy of a registry, keyed by entry key. It is
// the unit of transaction rollback and of persistence via SnapshotStore.
type Snapshot map[string]Entry

// Clone returns an independent copy of the snapshot. Entry payloads are
// shared by reference; the snapshot contract treats payloads as immutable
// once registered.
func (s Snapshot) Clone() Snapshot {
	cp := make(Snapshot, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// Keys returns the key set of the snapshot in unspecified order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}
