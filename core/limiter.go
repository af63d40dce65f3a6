package core

import "sync"

// OpLimiter enforces a maximum number of allowed operations per run. Batch
// runners use it to bound total admitted work across several Run calls.
type OpLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewOpLimiter creates a new limiter with a max number of operations.
// If max == 0, unlimited operations are allowed.
func NewOpLimiter(max int) *OpLimiter {
	return &OpLimiter{max: max}
}

// Increment increases the counter and returns an error if the limit is exceeded.
func (l *OpLimiter) Increment() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.max > 0 && l.count > l.max {
		return NewError("OP_LIMIT_EXCEEDED", "exceeded max operations: %d", l.max)
	}

	return nil
}

// Count returns the current number of operations admitted.
func (l *OpLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Remaining returns how many operations are left before hitting the limit.
func (l *OpLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max == 0 {
		return -1 // unlimited
	}

	return l.max - l.count
}
