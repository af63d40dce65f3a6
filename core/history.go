package core

import "time"

// HistoryEntry records one registry operation. Entries are immutable once
// appended to a history log; consumers receive copies.
type HistoryEntry struct {
	ID        string        `json:"id"`
	Operation string        `json:"operation"`
	Key       string        `json:"key,omitempty"`
	Time      time.Time     `json:"time"`
	Err       string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Failed reports whether the recorded operation ended in an error.
func (h HistoryEntry) Failed() bool {
	return h.Err != ""
}

// HistoryFilter selects history entries on a linear scan. Zero fields do
// not constrain the scan.
type HistoryFilter struct {
	// Operation restricts to entries with this operation name.
	Operation string

	// Key restricts to entries touching this registry key.
	Key string

	// Since restricts to entries recorded at or after this instant.
	Since time.Time

	// FailedOnly restricts to entries whose operation errored.
	FailedOnly bool
}

// Matches reports whether the entry passes the filter.
func (f HistoryFilter) Matches(h HistoryEntry) bool {
	if f.Operation != "" && h.Operation != f.Operation {
		return false
	}
	if f.Key != "" && h.Key != f.Key {
		return false
	}
	if !f.Since.IsZero() && h.Time.Before(f.Since) {
		return false
	}
	if f.FailedOnly && !h.Failed() {
		return false
	}
	return true
}
