package mesh

import (
	"context"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/engine"
)

// Symbol is the payload stored by a SymbolEngine entry.
type Symbol struct {
	Name    string `json:"name"`
	Meaning string `json:"meaning"`
}

// SymbolEngine maps symbolic names to meanings, grouped by tags.
type SymbolEngine struct {
	*engine.Engine
}

// NewSymbolEngine creates and registers a symbol engine in the mesh.
func (m *Mesh) NewSymbolEngine(name string, optFns ...func(o *engine.Options)) (*SymbolEngine, error) {
	eng, err := m.AddEngine(name, optFns...)
	if err != nil {
		return nil, err
	}
	return &SymbolEngine{Engine: eng}, nil
}

// Define registers a symbol with its meaning and tags.
func (s *SymbolEngine) Define(ctx context.Context, name, meaning string, tags ...string) (func(), error) {
	return s.Register(ctx, name, Symbol{Name: name, Meaning: meaning}, core.EntryOptions{Tags: tags})
}

// Meaning returns the meaning of an active symbol.
func (s *SymbolEngine) Meaning(name string) (string, bool) {
	entry, ok := s.Get(name)
	if !ok || !entry.Active {
		return "", false
	}
	sym, ok := entry.Payload.(Symbol)
	if !ok {
		return "", false
	}
	return sym.Meaning, true
}

// ByTag returns the symbols carrying the tag, in List order.
func (s *SymbolEngine) ByTag(tag string) []Symbol {
	entries := s.FilterByTag(tag)
	out := make([]Symbol, 0, len(entries))
	for _, entry := range entries {
		if sym, ok := entry.Payload.(Symbol); ok {
			out = append(out, sym)
		}
	}
	return out
}
