package history

import (
	"sync"
	"time"

	"github.com/lumafield/enginemesh/core"
)

// DefaultCap is the history capacity used when none is configured.
const DefaultCap = 200

// KeyStats holds the running operation count and mean duration for one
// registry key. The mean is maintained incrementally; no per-operation
// samples are retained beyond the ring itself.
type KeyStats struct {
	Count        int
	MeanDuration time.Duration
}

// Log is a capped, append-only record of engine operations. It is safe for
// concurrent use. Entries are immutable once appended; reads return copies.
//
// Eviction is oldest-first: once the cap is exceeded the front of the log
// is dropped. A cap of zero keeps the log permanently empty while still
// maintaining per-key stats.
type Log struct {
	mu      sync.RWMutex
	cap     int
	entries []core.HistoryEntry
	stats   map[string]KeyStats
}

// NewLog constructs a Log with the given capacity. Negative capacities are
// treated as DefaultCap.
func NewLog(capacity int) *Log {
	if capacity < 0 {
		capacity = DefaultCap
	}
	return &Log{cap: capacity, stats: make(map[string]KeyStats)}
}

// Append records an operation. The entry receives an id and timestamp if
// the caller left them empty.
func (l *Log) Append(entry core.HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ID == "" {
		entry.ID = core.NewID()
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}

	l.recordStatsLocked(entry)

	if l.cap == 0 {
		return
	}
	l.entries = append(l.entries, entry)
	if excess := len(l.entries) - l.cap; excess > 0 {
		l.entries = append([]core.HistoryEntry(nil), l.entries[excess:]...)
	}
}

func (l *Log) recordStatsLocked(entry core.HistoryEntry) {
	if entry.Key == "" {
		return
	}
	s := l.stats[entry.Key]
	s.Count++
	// incremental mean: m' = m + (x - m) / n
	s.MeanDuration += (entry.Duration - s.MeanDuration) / time.Duration(s.Count)
	l.stats[entry.Key] = s
}

// Entries returns a copy of the current log, oldest first.
func (l *Log) Entries() []core.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.HistoryEntry(nil), l.entries...)
}

// Filter returns the entries matching the filter, oldest first.
func (l *Log) Filter(f core.HistoryFilter) []core.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.HistoryEntry, 0)
	for _, e := range l.entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the current number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Cap returns the configured capacity.
func (l *Log) Cap() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cap
}

// SetCap changes the capacity, truncating oldest entries immediately if the
// log currently exceeds it.
func (l *Log) SetCap(n int) {
	if n < 0 {
		n = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cap = n
	if len(l.entries) > n {
		l.entries = append([]core.HistoryEntry(nil), l.entries[len(l.entries)-n:]...)
	}
}

// Stats returns the running count and mean duration for a key. The zero
// value is returned for keys that never appeared.
func (l *Log) Stats(key string) KeyStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats[key]
}

// Clear drops all entries and stats.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.stats = make(map[string]KeyStats)
}
