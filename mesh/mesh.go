package mesh

import (
	"context"
	"sync"

	"github.com/lumafield/enginemesh/bus"
	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/engine"
	"github.com/lumafield/enginemesh/logging"
)

// Notifier is the capability engines use to announce changes to the rest of
// the mesh. *bus.Bus satisfies it.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload any)
}

// Options configures a Mesh.
type Options struct {
	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger

	// Bus carries cross-engine notifications. A fresh bus is created when
	// nil.
	Bus *bus.Bus

	// Store, when set, is attached to every engine created through the
	// mesh so snapshots can be saved and loaded by name.
	Store core.SnapshotStore

	// EngineConfig is the base configuration for engines created through
	// the mesh. Defaults to engine.DefaultConfig.
	EngineConfig engine.Config
}

// WithLogger sets the mesh logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithBus supplies a shared bus instance.
func WithBus(b *bus.Bus) func(o *Options) {
	return func(o *Options) { o.Bus = b }
}

// WithStore attaches a snapshot store to every engine in the mesh.
func WithStore(s core.SnapshotStore) func(o *Options) {
	return func(o *Options) { o.Store = s }
}

// WithEngineConfig sets the base configuration for mesh-created engines.
func WithEngineConfig(cfg engine.Config) func(o *Options) {
	return func(o *Options) { o.EngineConfig = cfg }
}

// Mesh owns a set of named engines, their shared bus and the synergy links
// between them. Construct one per logical scene or application; there is no
// ambient global instance.
type Mesh struct {
	opts   Options
	logger logging.Logger
	bus    *bus.Bus

	mu      sync.RWMutex
	engines map[string]*engine.Engine
	links   []LinkSpec
}

// New creates an empty Mesh.
func New(optFns ...func(o *Options)) *Mesh {
	opts := Options{
		Logger:       logging.NoOpLogger{},
		EngineConfig: engine.DefaultConfig,
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Bus == nil {
		opts.Bus = bus.New(opts.Logger)
	}

	return &Mesh{
		opts:    opts,
		logger:  opts.Logger,
		bus:     opts.Bus,
		engines: make(map[string]*engine.Engine),
	}
}

// Bus returns the shared notification bus.
func (m *Mesh) Bus() *bus.Bus { return m.bus }

// AddEngine creates and registers a new engine under the given name,
// inheriting the mesh logger, store and base configuration. Duplicate names
// fail with DUPLICATE_KEY.
func (m *Mesh) AddEngine(name string, optFns ...func(o *engine.Options)) (*engine.Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.engines[name]; exists {
		return nil, core.NewError(core.CodeDuplicateKey, "engine %q already in mesh", name)
	}

	base := []func(o *engine.Options){
		engine.WithConfig(m.opts.EngineConfig),
		engine.WithLogger(m.logger),
		engine.WithStore(m.opts.Store),
	}
	eng := engine.New(name, append(base, optFns...)...)
	m.engines[name] = eng
	return eng, nil
}

// Engine returns a registered engine by name.
func (m *Mesh) Engine(name string) (*engine.Engine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eng, ok := m.engines[name]
	return eng, ok
}

// EngineNames returns the registered engine names in unspecified order.
func (m *Mesh) EngineNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.engines))
	for name := range m.engines {
		names = append(names, name)
	}
	return names
}

// SaveAll persists every engine's registry to the mesh store under the
// engine's own name. The first failure aborts the walk.
func (m *Mesh) SaveAll(ctx context.Context) error {
	m.mu.RLock()
	engines := make([]*engine.Engine, 0, len(m.engines))
	for _, eng := range m.engines {
		engines = append(engines, eng)
	}
	m.mu.RUnlock()

	for _, eng := range engines {
		if err := eng.SaveSnapshot(ctx, eng.Name()); err != nil {
			return err
		}
	}
	return nil
}
