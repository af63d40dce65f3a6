package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/lumafield/enginemesh/core"
)

// Entry builds a registry entry with sensible defaults for tests.
func Entry(key string, payload any) core.Entry {
	return core.Entry{
		Key:          key,
		Payload:      payload,
		Active:       true,
		RegisteredAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Snapshot builds a snapshot from alternating key/payload pairs.
func Snapshot(pairs ...any) core.Snapshot {
	if len(pairs)%2 != 0 {
		panic("testutil.Snapshot: odd number of arguments")
	}
	snap := make(core.Snapshot, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key := pairs[i].(string)
		snap[key] = Entry(key, pairs[i+1])
	}
	return snap
}

// HistoryEntry builds a history record for tests.
func HistoryEntry(op, key string, d time.Duration) core.HistoryEntry {
	return core.HistoryEntry{
		ID:        core.NewID(),
		Operation: op,
		Key:       key,
		Time:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Duration:  d,
	}
}

// CapturingLogger records formatted log lines per level for assertions.
type CapturingLogger struct {
	mu    sync.Mutex
	Lines map[string][]string
}

// NewCapturingLogger constructs an empty capturing logger.
func NewCapturingLogger() *CapturingLogger {
	return &CapturingLogger{Lines: make(map[string][]string)}
}

func (l *CapturingLogger) record(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.Lines[level] = append(l.Lines[level], msg)
}

// Debug records a debug line.
func (l *CapturingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }

// Info records an info line.
func (l *CapturingLogger) Info(msg string, args ...any) { l.record("info", msg, args...) }

// Warn records a warn line.
func (l *CapturingLogger) Warn(msg string, args ...any) { l.record("warn", msg, args...) }

// Error records an error line.
func (l *CapturingLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }

// Count returns how many lines were recorded at the level.
func (l *CapturingLogger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Lines[level])
}
