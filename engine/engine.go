package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/history"
	"github.com/lumafield/enginemesh/logging"
)

// Engine is one instance of the registry/hook/history/transaction pattern.
//
// All public methods are safe for concurrent use. The registry map is
// guarded by an RWMutex; hooks are guarded separately so hook registration
// never contends with registry reads. Hook callbacks run outside the
// registry lock, so callbacks may call back into the engine.
type Engine struct {
	name   string
	config Config
	logger logging.Logger
	clock  func() time.Time

	// registry and transaction state share a lock so snapshots observe a
	// consistent view
	mu      sync.RWMutex
	entries core.Snapshot
	open    *txnRecord
	undo    []txnRecord
	redo    []txnRecord

	hooksMu sync.RWMutex
	global  map[core.HookPhase][]core.HookRegistration
	keyed   map[string]map[core.HookPhase][]core.HookRegistration

	log   *history.Log
	store core.SnapshotStore
}

// New creates an Engine with the given instance name. The name appears in
// hook contexts and log attributes; it does not need to be globally unique.
func New(name string, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		name:    name,
		config:  opts.Config,
		logger:  opts.Logger,
		clock:   opts.Clock,
		entries: make(core.Snapshot),
		global:  make(map[core.HookPhase][]core.HookRegistration),
		keyed:   make(map[string]map[core.HookPhase][]core.HookRegistration),
		log:     history.NewLog(opts.Config.HistoryCap),
		store:   opts.Store,
	}
}

// Name returns the engine instance name.
func (e *Engine) Name() string { return e.name }

// Register inserts an entry under the given key and returns an unregister
// closure alongside any error.
//
// Duplicate keys are rejected with DUPLICATE_KEY unless the engine was
// configured WithOverwrite(true), in which case the existing entry is
// replaced; hooks registered for the key are unaffected either way. If the
// options carry a Validator it runs against the payload first and a failure
// rejects the registration with VALIDATION_FAILED.
func (e *Engine) Register(ctx context.Context, key string, payload any, opts core.EntryOptions) (func(), error) {
	err := e.run(ctx, "register", key, payload, func() error {
		if opts.Validator != nil {
			if verr := opts.Validator(payload); verr != nil {
				return core.NewError(core.CodeValidationFailed, "payload for %q rejected: %v", key, verr)
			}
		}

		e.mu.Lock()
		defer e.mu.Unlock()

		if _, exists := e.entries[key]; exists && !e.config.Overwrite {
			return core.NewError(core.CodeDuplicateKey, "key %q already registered", key).
				WithDetail("engine", e.name)
		}

		active := true
		if opts.Active != nil {
			active = *opts.Active
		}

		e.entries[key] = core.Entry{
			Key:          key,
			Payload:      payload,
			Options:      opts,
			Active:       active,
			RegisteredAt: e.clock().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// the closure may run long after ctx expired; unregister hooks get a
	// fresh context
	return func() { e.Unregister(context.Background(), key) }, nil
}

// Update replaces the payload of an existing entry in place. The entry's
// validator, if any, runs against the new payload first. Absent keys return
// KEY_NOT_FOUND.
func (e *Engine) Update(ctx context.Context, key string, payload any) error {
	return e.run(ctx, "update", key, payload, func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		entry, exists := e.entries[key]
		if !exists {
			return core.NewError(core.CodeKeyNotFound, "key %q not registered", key)
		}
		if entry.Options.Validator != nil {
			if verr := entry.Options.Validator(payload); verr != nil {
				return core.NewError(core.CodeValidationFailed, "payload for %q rejected: %v", key, verr)
			}
		}
		entry.Payload = payload
		e.entries[key] = entry
		return nil
	})
}

// Unregister removes an entry. It is an idempotent no-op for absent keys;
// the return value reports whether an entry was actually removed.
func (e *Engine) Unregister(ctx context.Context, key string) bool {
	removed := false
	_ = e.run(ctx, "unregister", key, nil, func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, exists := e.entries[key]; exists {
			delete(e.entries, key)
			removed = true
		}
		return nil
	})
	return removed
}

// SetActive toggles the visibility flag consulted by Match. Absent keys
// return KEY_NOT_FOUND.
func (e *Engine) SetActive(ctx context.Context, key string, active bool) error {
	return e.run(ctx, "set_active", key, active, func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		entry, exists := e.entries[key]
		if !exists {
			return core.NewError(core.CodeKeyNotFound, "key %q not registered", key)
		}
		entry.Active = active
		e.entries[key] = entry
		return nil
	})
}

// Get returns a copy of the entry for the key.
func (e *Engine) Get(key string) (core.Entry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.entries[key]
	return entry, ok
}

// List returns all entries ordered by priority (higher first), ties broken
// by key for determinism.
func (e *Engine) List() []core.Entry {
	e.mu.RLock()
	out := make([]core.Entry, 0, len(e.entries))
	for _, entry := range e.entries {
		out = append(out, entry)
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Options.Priority != out[j].Options.Priority {
			return out[i].Options.Priority > out[j].Options.Priority
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// FilterByTag returns the entries carrying the given tag, in List order.
func (e *Engine) FilterByTag(tag string) []core.Entry {
	all := e.List()
	out := make([]core.Entry, 0)
	for _, entry := range all {
		if entry.HasTag(tag) {
			out = append(out, entry)
		}
	}
	return out
}

// Match returns the active entries whose matcher accepts the probe, in
// List order. Entries without a matcher never match.
func (e *Engine) Match(probe any) []core.Entry {
	all := e.List()
	out := make([]core.Entry, 0)
	for _, entry := range all {
		if !entry.Active || entry.Options.Matcher == nil {
			continue
		}
		if entry.Options.Matcher(probe) {
			out = append(out, entry)
		}
	}
	return out
}

// Len returns the number of registered entries.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.entries)
}

// Keys returns the registered keys in unspecified order.
func (e *Engine) Keys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.entries.Keys()
}

// History returns the operation history entries matching the filter,
// oldest first.
func (e *Engine) History(f core.HistoryFilter) []core.HistoryEntry {
	return e.log.Filter(f)
}

// SetHistoryCap changes the history capacity, truncating oldest entries
// immediately when the log exceeds the new cap.
func (e *Engine) SetHistoryCap(n int) {
	e.log.SetCap(n)
}

// Stats returns the running operation count and mean duration for a key.
func (e *Engine) Stats(key string) history.KeyStats {
	return e.log.Stats(key)
}

// run wraps a registry mutation with hook phases and a history record.
// Hook failures never abort the operation; the operation's own error is
// surfaced through the error phase and returned.
func (e *Engine) run(ctx context.Context, op, key string, payload any, fn func() error) error {
	start := e.clock()
	hc := &core.HookContext{Engine: e.name, Operation: op, Key: key, Payload: payload}

	e.Fire(ctx, key, core.PhaseBefore, hc)

	err := fn()
	if err != nil {
		hc.Err = err
		e.Fire(ctx, key, core.PhaseError, hc)
	} else {
		e.Fire(ctx, key, core.PhaseAfter, hc)
	}

	rec := core.HistoryEntry{Operation: op, Key: key, Time: start.UTC(), Duration: e.clock().Sub(start)}
	if err != nil {
		rec.Err = err.Error()
	}
	e.log.Append(rec)

	return err
}
