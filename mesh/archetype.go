package mesh

import (
	"context"

	"github.com/lumafield/enginemesh/batch"
	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/engine"
)

// Behavior is the executable body of an archetype: a named bundle of
// behavior applied contextually to a probe value.
type Behavior func(ctx context.Context, probe any) (any, error)

// Archetype is the payload stored by an ArchetypeEngine entry.
type Archetype struct {
	Name     string
	Behavior Behavior
}

// Applied reports one archetype application from Apply.
type Applied struct {
	Archetype string
	Value     any
	Err       error
}

// ArchetypeEngine registers archetypes with matchers and applies every
// matching archetype to a probe. Application runs through the batch runner
// so a slow behavior does not serialize the rest.
type ArchetypeEngine struct {
	*engine.Engine
	concurrency int
}

// NewArchetypeEngine creates and registers an archetype engine in the mesh.
func (m *Mesh) NewArchetypeEngine(name string, optFns ...func(o *engine.Options)) (*ArchetypeEngine, error) {
	eng, err := m.AddEngine(name, optFns...)
	if err != nil {
		return nil, err
	}
	return &ArchetypeEngine{Engine: eng, concurrency: batch.DefaultConcurrency}, nil
}

// SetApplyConcurrency bounds how many behaviors run at once during Apply.
func (a *ArchetypeEngine) SetApplyConcurrency(n int) {
	if n >= 1 {
		a.concurrency = n
	}
}

// Define registers an archetype with a matcher deciding when it applies.
// Priority orders application; higher priorities apply first.
func (a *ArchetypeEngine) Define(ctx context.Context, name string, behavior Behavior, matcher func(probe any) bool, priority int) (func(), error) {
	return a.Register(ctx, name, Archetype{Name: name, Behavior: behavior}, core.EntryOptions{
		Priority: priority,
		Matcher:  matcher,
	})
}

// Apply runs every matching active archetype against the probe and returns
// one Applied per match, in priority order. Behavior failures are collected
// per archetype, never aborting the rest.
func (a *ArchetypeEngine) Apply(ctx context.Context, probe any) []Applied {
	matches := a.Match(probe)

	results := batch.Run(ctx, matches, func(ctx context.Context, entry core.Entry) (any, error) {
		arch, ok := entry.Payload.(Archetype)
		if !ok || arch.Behavior == nil {
			return nil, core.NewError(core.CodeValidationFailed, "entry %q holds no behavior", entry.Key)
		}
		return arch.Behavior(ctx, probe)
	}, batch.WithConcurrency(a.concurrency))

	out := make([]Applied, len(results))
	for i, res := range results {
		out[i] = Applied{Archetype: matches[i].Key, Value: res.Value, Err: res.Err}
	}
	return out
}
