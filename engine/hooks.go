package engine

import (
	"context"
	"sort"

	"github.com/lumafield/enginemesh/core"
)

// AddHook registers a callback for a specific key and phase. Higher
// priorities fire first; equal priorities fire in registration order. The
// returned closure removes the registration and is safe to call more than
// once.
func (e *Engine) AddHook(key string, phase core.HookPhase, priority int, cb core.HookFunc) func() {
	reg := core.HookRegistration{ID: core.NewID(), Phase: phase, Priority: priority, Callback: cb}

	e.hooksMu.Lock()
	if e.keyed[key] == nil {
		e.keyed[key] = make(map[core.HookPhase][]core.HookRegistration)
	}
	e.keyed[key][phase] = append(e.keyed[key][phase], reg)
	e.hooksMu.Unlock()

	return func() { e.removeKeyedHook(key, phase, reg.ID) }
}

// AddGlobalHook registers a callback fired for every key on the given
// phase. Global hooks always fire before per-key hooks.
func (e *Engine) AddGlobalHook(phase core.HookPhase, priority int, cb core.HookFunc) func() {
	reg := core.HookRegistration{ID: core.NewID(), Phase: phase, Priority: priority, Callback: cb}

	e.hooksMu.Lock()
	e.global[phase] = append(e.global[phase], reg)
	e.hooksMu.Unlock()

	return func() { e.removeGlobalHook(phase, reg.ID) }
}

func (e *Engine) removeKeyedHook(key string, phase core.HookPhase, id string) {
	e.hooksMu.Lock()
	defer e.hooksMu.Unlock()
	if phases, ok := e.keyed[key]; ok {
		phases[phase] = withoutHook(phases[phase], id)
	}
}

func (e *Engine) removeGlobalHook(phase core.HookPhase, id string) {
	e.hooksMu.Lock()
	defer e.hooksMu.Unlock()
	e.global[phase] = withoutHook(e.global[phase], id)
}

func withoutHook(regs []core.HookRegistration, id string) []core.HookRegistration {
	out := regs[:0]
	for _, r := range regs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

// Fire invokes the global hooks for the phase, then the per-key hooks, each
// scope ordered by priority (higher first) then registration order, each
// callback awaited sequentially.
//
// A failing callback is logged, forwarded once through the error phase and
// never aborts the remaining callbacks. The firing itself never returns an
// error; failure containment is the point of the hook bus.
func (e *Engine) Fire(ctx context.Context, key string, phase core.HookPhase, hc *core.HookContext) {
	regs := e.collect(key, phase)
	for _, reg := range regs {
		e.invoke(ctx, key, phase, reg, hc)
	}
}

func (e *Engine) collect(key string, phase core.HookPhase) []core.HookRegistration {
	e.hooksMu.RLock()
	global := append([]core.HookRegistration(nil), e.global[phase]...)
	var keyed []core.HookRegistration
	if key != "" {
		if phases, ok := e.keyed[key]; ok {
			keyed = append([]core.HookRegistration(nil), phases[phase]...)
		}
	}
	e.hooksMu.RUnlock()

	sortHooks(global)
	sortHooks(keyed)
	return append(global, keyed...)
}

func sortHooks(regs []core.HookRegistration) {
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].Priority > regs[j].Priority
	})
}

func (e *Engine) invoke(ctx context.Context, key string, phase core.HookPhase, reg core.HookRegistration, hc *core.HookContext) {
	if e.config.HookTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.HookTimeout)
		defer cancel()
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = core.NewError("HOOK_PANIC", "hook %s panicked: %v", reg.ID, r)
			}
		}()
		return reg.Callback(ctx, hc)
	}()

	if err == nil {
		return
	}

	e.logger.Warn("hook failed engine=%s phase=%s key=%s hook=%s err=%v",
		e.name, phase, key, reg.ID, err)

	// surface through the error phase, but never recurse out of it
	if phase != core.PhaseError {
		errCtx := *hc
		errCtx.Err = err
		e.Fire(ctx, key, core.PhaseError, &errCtx)
	}
}
