package mesh

import (
	"context"
	"sync"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/engine"
)

// TopicNarrativeAdvanced is published each time the narrative moves to a
// new beat.
const TopicNarrativeAdvanced = "narrative:advanced"

// Beat is one step of a narrative sequence.
type Beat struct {
	Key  string
	Text string
}

// NarrativeEngine holds an ordered sequence of beats and a cursor over
// them. Beat order follows registration priority (higher first), ties by
// key; inactive beats are skipped when advancing.
type NarrativeEngine struct {
	*engine.Engine
	notifier Notifier

	mu     sync.Mutex
	cursor int
}

// NewNarrativeEngine creates and registers a narrative engine in the mesh.
func (m *Mesh) NewNarrativeEngine(name string, optFns ...func(o *engine.Options)) (*NarrativeEngine, error) {
	eng, err := m.AddEngine(name, optFns...)
	if err != nil {
		return nil, err
	}
	return &NarrativeEngine{Engine: eng, notifier: m.bus, cursor: -1}, nil
}

// AddBeat registers a beat. Order is the beat's position weight: higher
// order values come first, matching entry priority semantics.
func (n *NarrativeEngine) AddBeat(ctx context.Context, key, text string, order int) error {
	_, err := n.Register(ctx, key, Beat{Key: key, Text: text}, core.EntryOptions{Priority: order})
	return err
}

// beats returns the active beats in narrative order.
func (n *NarrativeEngine) beats() []Beat {
	entries := n.List()
	out := make([]Beat, 0, len(entries))
	for _, entry := range entries {
		if !entry.Active {
			continue
		}
		if beat, ok := entry.Payload.(Beat); ok {
			out = append(out, beat)
		}
	}
	return out
}

// Advance moves the cursor to the next active beat and publishes it.
// Returns KEY_NOT_FOUND once the sequence is exhausted; the cursor stays at
// the end so a later Reset is required to replay.
func (n *NarrativeEngine) Advance(ctx context.Context) (Beat, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	beats := n.beats()
	next := n.cursor + 1
	if next >= len(beats) {
		return Beat{}, core.NewError(core.CodeKeyNotFound, "narrative %q exhausted after %d beats", n.Name(), len(beats))
	}
	n.cursor = next

	beat := beats[next]
	n.notifier.Publish(ctx, TopicNarrativeAdvanced, beat)
	return beat, nil
}

// Current returns the beat at the cursor, if the narrative has started.
func (n *NarrativeEngine) Current() (Beat, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	beats := n.beats()
	if n.cursor < 0 || n.cursor >= len(beats) {
		return Beat{}, false
	}
	return beats[n.cursor], true
}

// Reset rewinds the narrative to before the first beat.
func (n *NarrativeEngine) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cursor = -1
}

// Remaining returns how many active beats are left after the cursor.
func (n *NarrativeEngine) Remaining() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	left := len(n.beats()) - (n.cursor + 1)
	if left < 0 {
		return 0
	}
	return left
}
