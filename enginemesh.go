// Package enginemesh provides a high-level façade over the mesh, engine and
// store packages enabling quick assembly of a cooperating engine set. Most
// applications interact with this package by:
//  1. Creating a Site via New() (optionally overriding the default in-memory
//     snapshot store and NoOp logger)
//  2. Adding typed engines (state, memory, narrative, archetype, symbol,
//     gesture) or generic ones
//  3. Wiring synergy links and content loaders, then triggering the mesh
//
// The façade delegates to mesh.Mesh while keeping setup ergonomics concise.
// All defaults are safe for local development and testing; durable setups
// supply a file or sqlite snapshot store and a structured logger.
package enginemesh

import (
	"context"

	"github.com/lumafield/enginemesh/bus"
	"github.com/lumafield/enginemesh/content"
	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/engine"
	"github.com/lumafield/enginemesh/logging"
	"github.com/lumafield/enginemesh/mesh"
	"github.com/lumafield/enginemesh/store"
)

// Options configures a Site.
type Options struct {
	// EngineConfig is the base configuration for engines created through
	// the site. Defaults to engine.DefaultConfig.
	EngineConfig engine.Config

	// Store persists engine snapshots. Defaults to an in-memory store.
	Store core.SnapshotStore

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger
}

// WithEngineConfig sets the base engine configuration.
func WithEngineConfig(cfg engine.Config) func(o *Options) {
	return func(o *Options) { o.EngineConfig = cfg }
}

// WithStore sets the snapshot store.
func WithStore(s core.SnapshotStore) func(o *Options) {
	return func(o *Options) { o.Store = s }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Site is the high-level façade aggregating the mesh, its bus and the
// content loaders for one site or scene.
type Site struct {
	opts    Options
	mesh    *mesh.Mesh
	loaders map[string]*content.Loader
}

// New creates a Site with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Site {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Store:        store.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	m := mesh.New(
		mesh.WithEngineConfig(opts.EngineConfig),
		mesh.WithStore(opts.Store),
		mesh.WithLogger(opts.Logger),
	)

	return &Site{opts: opts, mesh: m, loaders: make(map[string]*content.Loader)}
}

// Mesh returns the underlying mesh for direct engine and link access.
func (s *Site) Mesh() *mesh.Mesh { return s.mesh }

// Bus returns the shared notification bus.
func (s *Site) Bus() *bus.Bus { return s.mesh.Bus() }

// Engine returns a registered engine by name.
func (s *Site) Engine(name string) (*engine.Engine, bool) {
	return s.mesh.Engine(name)
}

// AddContent registers a content loader for a named section.
func (s *Site) AddContent(name string, source content.Source) *content.Loader {
	loader := content.NewLoader(name, source, content.WithLoaderLogger(s.opts.Logger))
	s.loaders[name] = loader
	return loader
}

// Content returns the loader for a section name.
func (s *Site) Content(name string) (*content.Loader, bool) {
	loader, ok := s.loaders[name]
	return loader, ok
}

// Trigger executes the mesh's synergy links in dependency order.
func (s *Site) Trigger(ctx context.Context) error {
	return s.mesh.Trigger(ctx)
}

// Save persists every engine's registry to the configured store.
func (s *Site) Save(ctx context.Context) error {
	return s.mesh.SaveAll(ctx)
}
