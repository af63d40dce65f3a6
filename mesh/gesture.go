package mesh

import (
	"context"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/engine"
)

// TopicGestureRecognized is published when Recognize finds a match.
const TopicGestureRecognized = "gesture:recognized"

// Gesture is the payload stored by a GestureEngine entry: a named token
// pattern, e.g. ["down", "right", "up"].
type Gesture struct {
	Name    string   `json:"name"`
	Pattern []string `json:"pattern"`
}

// GestureEngine matches observed token sequences against registered
// gesture patterns. More specific (longer) patterns win over shorter ones;
// ties fall back to entry priority.
type GestureEngine struct {
	*engine.Engine
	notifier Notifier
}

// NewGestureEngine creates and registers a gesture engine in the mesh.
func (m *Mesh) NewGestureEngine(name string, optFns ...func(o *engine.Options)) (*GestureEngine, error) {
	eng, err := m.AddEngine(name, optFns...)
	if err != nil {
		return nil, err
	}
	return &GestureEngine{Engine: eng, notifier: m.bus}, nil
}

// DefinePattern registers a gesture pattern. Empty patterns are rejected.
func (g *GestureEngine) DefinePattern(ctx context.Context, name string, pattern []string, priority int) (func(), error) {
	return g.Register(ctx, name, Gesture{Name: name, Pattern: pattern}, core.EntryOptions{
		Priority: priority,
		Validator: func(payload any) error {
			gesture, ok := payload.(Gesture)
			if !ok || len(gesture.Pattern) == 0 {
				return core.NewError(core.CodeValidationFailed, "gesture pattern must not be empty")
			}
			return nil
		},
	})
}

// Recognize matches the observed sequence against every active pattern and
// returns the best match: the longest pattern appearing as a contiguous
// subsequence, ties resolved by priority order. A hit is published on the
// bus.
func (g *GestureEngine) Recognize(ctx context.Context, sequence []string) (Gesture, bool) {
	var best Gesture
	found := false

	for _, entry := range g.List() {
		if !entry.Active {
			continue
		}
		gesture, ok := entry.Payload.(Gesture)
		if !ok {
			continue
		}
		if !containsSubsequence(sequence, gesture.Pattern) {
			continue
		}
		if !found || len(gesture.Pattern) > len(best.Pattern) {
			best = gesture
			found = true
		}
	}

	if found {
		g.notifier.Publish(ctx, TopicGestureRecognized, best)
	}
	return best, found
}

// containsSubsequence reports whether pattern appears contiguously in seq.
func containsSubsequence(seq, pattern []string) bool {
	if len(pattern) == 0 || len(pattern) > len(seq) {
		return false
	}
	for i := 0; i+len(pattern) <= len(seq); i++ {
		match := true
		for j, token := range pattern {
			if seq[i+j] != token {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
