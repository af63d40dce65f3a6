package batch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/logging"
)

// DefaultConcurrency is the worker slot count used when none is configured.
const DefaultConcurrency = 4

// Result reports the outcome of one batch item, aligned with the input
// slice by Index.
type Result[R any] struct {
	Index    int
	Value    R
	Err      error
	Duration time.Duration
}

// Failed reports whether the item ended in an error.
func (r Result[R]) Failed() bool { return r.Err != nil }

// Options configures a batch run.
type Options struct {
	// Concurrency is the number of items processed at once. Values below 1
	// fall back to DefaultConcurrency.
	Concurrency int

	// Limiter, when set, bounds total admitted items across runs. Items
	// rejected by the limiter report its error.
	Limiter *core.OpLimiter

	// Logger receives per-run diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// WithConcurrency sets the worker slot count.
func WithConcurrency(n int) func(o *Options) {
	return func(o *Options) { o.Concurrency = n }
}

// WithLimiter bounds total admitted items.
func WithLimiter(l *core.OpLimiter) func(o *Options) {
	return func(o *Options) { o.Limiter = l }
}

// WithLogger sets the run logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Run processes items with at most Concurrency in flight and returns one
// Result per item, aligned by index. Per-item errors are recorded in the
// result slice; Run itself only fails through the results.
//
// With Concurrency 1 items run sequentially in input order. Once ctx is
// cancelled no further items are admitted; items already running finish
// normally and every unstarted item reports ctx.Err().
func Run[T, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error), optFns ...func(o *Options)) []Result[R] {
	opts := Options{
		Concurrency: DefaultConcurrency,
		Logger:      logging.NoOpLogger{},
	}

	for _, optFn := range optFns {
		optFn(&opts)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}

	results := make([]Result[R], len(items))
	sem := semaphore.NewWeighted(int64(opts.Concurrency))

	var wg sync.WaitGroup
	start := time.Now()

	for i, item := range items {
		results[i].Index = i

		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		if opts.Limiter != nil {
			if err := opts.Limiter.Increment(); err != nil {
				results[i].Err = err
				continue
			}
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i].Err = err
			continue
		}

		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			defer sem.Release(1)

			itemStart := time.Now()
			value, err := fn(ctx, item)
			results[i].Value = value
			results[i].Err = err
			results[i].Duration = time.Since(itemStart)
		}(i, item)
	}

	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	opts.Logger.Debug("batch completed items=%d failed=%d concurrency=%d duration=%s",
		len(items), failed, opts.Concurrency, time.Since(start))

	return results
}
