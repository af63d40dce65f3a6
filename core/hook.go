package core

import "context"

// HookPhase names a point in an operation's lifecycle where registered
// callbacks are invoked.
type HookPhase string

const (
	// PhaseBefore fires ahead of the operation. Use for validation,
	// instrumentation or payload inspection.
	PhaseBefore HookPhase = "before"

	// PhaseAfter fires once the operation has been applied.
	PhaseAfter HookPhase = "after"

	// PhaseError fires when the operation, or one of its hooks, failed.
	PhaseError HookPhase = "error"

	// PhaseMeta fires for auxiliary signals that are neither part of the
	// operation nor an error (cross-engine notifications, link triggers).
	PhaseMeta HookPhase = "meta"
)

// HookContext is the payload handed to every hook callback. Fields are
// populated by the engine that fires the hook; Err is only set for the
// error phase.
type HookContext struct {
	// Engine is the name of the engine instance firing the hook.
	Engine string

	// Operation is the registry operation in flight (register, update,
	// unregister, set_active, rollback, ...).
	Operation string

	// Key is the registry key the operation targets. Empty for
	// engine-wide operations such as rollback.
	Key string

	// Payload is the operation payload, if any.
	Payload any

	// Err carries the failure that triggered an error-phase firing.
	Err error

	// Metadata is free-form context for callers and hooks. May be nil.
	Metadata map[string]any
}

// HookFunc is the callback shape for all hook phases. Returning an error
// never aborts the remaining callbacks of a firing; the failure is logged
// and surfaced through the error phase instead.
type HookFunc func(ctx context.Context, hc *HookContext) error

// HookRegistration ties a callback to a phase with an ordering priority.
// Registrations are removable by identity via the closure returned at
// registration time.
type HookRegistration struct {
	ID       string
	Phase    HookPhase
	Priority int
	Callback HookFunc
}
