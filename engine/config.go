package engine

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/history"
	"github.com/lumafield/enginemesh/logging"
)

// Config defines tuning parameters for an Engine instance.
type Config struct {
	// HistoryCap bounds the operation history. Oldest entries are evicted
	// first. Zero disables history retention entirely.
	HistoryCap int `env:"HISTORY_CAP"`

	// Overwrite selects the duplicate registration policy. False rejects
	// duplicates with DUPLICATE_KEY; true replaces the existing entry.
	Overwrite bool `env:"OVERWRITE"`

	// HookTimeout bounds each individual hook callback. Zero means no
	// timeout beyond the caller's context.
	HookTimeout time.Duration `env:"HOOK_TIMEOUT"`
}

// DefaultConfig provides the baseline configuration: bounded history,
// duplicates rejected, hooks unbounded.
var DefaultConfig = Config{
	HistoryCap:  history.DefaultCap,
	Overwrite:   false,
	HookTimeout: 0,
}

// ConfigFromEnv returns DefaultConfig overridden by ENGINEMESH_* environment
// variables (ENGINEMESH_HISTORY_CAP, ENGINEMESH_OVERWRITE,
// ENGINEMESH_HOOK_TIMEOUT).
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "ENGINEMESH_"}); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger

	// Clock supplies timestamps; overridable for tests.
	Clock func() time.Time

	// Store, when set, enables SaveSnapshot/LoadSnapshot without passing a
	// store explicitly.
	Store core.SnapshotStore
}

// WithConfig replaces the full configuration.
func WithConfig(cfg Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithHistoryCap sets the history capacity.
func WithHistoryCap(n int) func(o *Options) {
	return func(o *Options) { o.Config.HistoryCap = n }
}

// WithOverwrite selects the duplicate registration policy.
func WithOverwrite(overwrite bool) func(o *Options) {
	return func(o *Options) { o.Config.Overwrite = overwrite }
}

// WithHookTimeout bounds each hook callback.
func WithHookTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.Config.HookTimeout = d }
}

// WithClock overrides the time source (test seam).
func WithClock(clock func() time.Time) func(o *Options) {
	return func(o *Options) { o.Clock = clock }
}

// WithStore attaches a default snapshot store.
func WithStore(s core.SnapshotStore) func(o *Options) {
	return func(o *Options) { o.Store = s }
}
