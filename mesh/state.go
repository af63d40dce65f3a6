package mesh

import (
	"context"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/engine"
)

// TopicStateChanged is published on every state mutation.
const TopicStateChanged = "state:changed"

// StateChange is the payload published on TopicStateChanged.
type StateChange struct {
	Engine string
	Key    string
	Value  any
}

// StateEngine is a validated key/value state registry that announces every
// change on the mesh bus. Set is upsert; the duplicate policy of the
// underlying engine does not apply.
type StateEngine struct {
	*engine.Engine
	notifier Notifier
}

// NewStateEngine creates and registers a state engine in the mesh.
func (m *Mesh) NewStateEngine(name string, optFns ...func(o *engine.Options)) (*StateEngine, error) {
	eng, err := m.AddEngine(name, optFns...)
	if err != nil {
		return nil, err
	}
	return &StateEngine{Engine: eng, notifier: m.bus}, nil
}

// Set stores a value under the key, registering it on first use and
// updating in place afterwards, then publishes the change.
func (s *StateEngine) Set(ctx context.Context, key string, value any) error {
	var err error
	if _, exists := s.Get(key); exists {
		err = s.Update(ctx, key, value)
	} else {
		_, err = s.Register(ctx, key, value, core.EntryOptions{})
		if core.HasCode(err, core.CodeDuplicateKey) {
			// lost a concurrent first-set race; the key exists now
			err = s.Update(ctx, key, value)
		}
	}
	if err != nil {
		return err
	}

	s.notifier.Publish(ctx, TopicStateChanged, StateChange{Engine: s.Name(), Key: key, Value: value})
	return nil
}

// Value returns the stored value for the key.
func (s *StateEngine) Value(key string) (any, bool) {
	entry, ok := s.Get(key)
	if !ok {
		return nil, false
	}
	return entry.Payload, true
}

// Delete removes the key and publishes the change with a nil value.
func (s *StateEngine) Delete(ctx context.Context, key string) bool {
	removed := s.Unregister(ctx, key)
	if removed {
		s.notifier.Publish(ctx, TopicStateChanged, StateChange{Engine: s.Name(), Key: key})
	}
	return removed
}
