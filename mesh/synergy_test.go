package mesh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumafield/enginemesh/bus"
	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/engine"
	"github.com/lumafield/enginemesh/internal/testutil"
)

func meshWithEngines(t *testing.T, names ...string) *Mesh {
	t.Helper()
	m := New()
	for _, name := range names {
		_, err := m.AddEngine(name)
		require.NoError(t, err)
	}
	return m
}

func recordingRule(order *[]string, name string) Rule {
	return func(context.Context, *engine.Engine, *engine.Engine) error {
		*order = append(*order, name)
		return nil
	}
}

func TestAddLink_UnknownEngines(t *testing.T) {
	m := meshWithEngines(t, "a")

	err := m.AddLink(LinkSpec{Name: "l", Source: "ghost", Target: "a"})
	assert.True(t, core.HasCode(err, core.CodeLinkNotFound))

	err = m.AddLink(LinkSpec{Name: "l", Source: "a", Target: "ghost"})
	assert.True(t, core.HasCode(err, core.CodeLinkNotFound))
}

func TestAddLink_RejectsCycle(t *testing.T) {
	m := meshWithEngines(t, "a", "b", "c")

	require.NoError(t, m.AddLink(LinkSpec{Name: "ab", Source: "a", Target: "b"}))
	require.NoError(t, m.AddLink(LinkSpec{Name: "bc", Source: "b", Target: "c"}))

	err := m.AddLink(LinkSpec{Name: "ca", Source: "c", Target: "a"})
	assert.True(t, core.HasCode(err, core.CodeLinkCycle))

	// the rejected link left no trace
	assert.Len(t, m.Links(), 2)
}

func TestTrigger_RunsLinksInDependencyOrder(t *testing.T) {
	m := meshWithEngines(t, "a", "b", "c")
	var order []string

	// register downstream first so dependency order, not registration
	// order, decides
	require.NoError(t, m.AddLink(LinkSpec{Name: "bc", Source: "b", Target: "c", Rule: recordingRule(&order, "bc")}))
	require.NoError(t, m.AddLink(LinkSpec{Name: "ab", Source: "a", Target: "b", Rule: recordingRule(&order, "ab")}))

	require.NoError(t, m.Trigger(context.Background()))
	assert.Equal(t, []string{"ab", "bc"}, order)
}

func TestTrigger_FailuresAreContainedAndJoined(t *testing.T) {
	logger := testutil.NewCapturingLogger()
	m := New(WithLogger(logger))
	for _, name := range []string{"a", "b", "c"} {
		_, err := m.AddEngine(name)
		require.NoError(t, err)
	}

	var order []string
	require.NoError(t, m.AddLink(LinkSpec{
		Name: "ab", Source: "a", Target: "b",
		Rule: func(context.Context, *engine.Engine, *engine.Engine) error {
			order = append(order, "ab")
			return assert.AnError
		},
	}))
	require.NoError(t, m.AddLink(LinkSpec{Name: "bc", Source: "b", Target: "c", Rule: recordingRule(&order, "bc")}))

	err := m.Trigger(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"ab", "bc"}, order, "a failing link never blocks later links")
	assert.Equal(t, 1, logger.Count("warn"))
}

func TestTriggerFrom_RunsOnlyReachableLinks(t *testing.T) {
	m := meshWithEngines(t, "a", "b", "c", "x", "y")
	var order []string

	require.NoError(t, m.AddLink(LinkSpec{Name: "ab", Source: "a", Target: "b", Rule: recordingRule(&order, "ab")}))
	require.NoError(t, m.AddLink(LinkSpec{Name: "bc", Source: "b", Target: "c", Rule: recordingRule(&order, "bc")}))
	require.NoError(t, m.AddLink(LinkSpec{Name: "xy", Source: "x", Target: "y", Rule: recordingRule(&order, "xy")}))

	require.NoError(t, m.TriggerFrom(context.Background(), "b"))
	assert.Equal(t, []string{"bc"}, order)

	order = nil
	require.NoError(t, m.TriggerFrom(context.Background(), "a"))
	assert.Equal(t, []string{"ab", "bc"}, order, "reachability is transitive through targets")
}

func TestRunLink_NilRulePublishesNotification(t *testing.T) {
	m := meshWithEngines(t, "a", "b")

	var got bus.Message
	m.Bus().Subscribe("synergy:notify", func(_ context.Context, msg bus.Message) { got = msg })

	require.NoError(t, m.AddLink(LinkSpec{Name: "notify", Source: "a", Target: "b"}))
	require.NoError(t, m.Trigger(context.Background()))

	payload, ok := got.Payload.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "a", payload["source"])
	assert.Equal(t, "b", payload["target"])
}

func TestRunLink_TimeoutBoundsRule(t *testing.T) {
	m := meshWithEngines(t, "a", "b")

	require.NoError(t, m.AddLink(LinkSpec{
		Name: "slow", Source: "a", Target: "b", Timeout: 10 * time.Millisecond,
		Rule: func(ctx context.Context, _, _ *engine.Engine) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
				return nil
			}
		},
	}))

	err := m.Trigger(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTrigger_CancelledContextStopsExecution(t *testing.T) {
	m := meshWithEngines(t, "a", "b", "c")
	var order []string

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.AddLink(LinkSpec{
		Name: "ab", Source: "a", Target: "b",
		Rule: func(context.Context, *engine.Engine, *engine.Engine) error {
			order = append(order, "ab")
			cancel()
			return nil
		},
	}))
	require.NoError(t, m.AddLink(LinkSpec{Name: "bc", Source: "b", Target: "c", Rule: recordingRule(&order, "bc")}))

	err := m.Trigger(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"ab"}, order)
}

func TestRule_CanMoveStateBetweenEngines(t *testing.T) {
	m := meshWithEngines(t, "source", "mirror")
	ctx := context.Background()

	src, _ := m.Engine("source")
	_, err := src.Register(ctx, "color", "teal", core.EntryOptions{})
	require.NoError(t, err)

	require.NoError(t, m.AddLink(LinkSpec{
		Name: "mirror-color", Source: "source", Target: "mirror",
		Rule: func(ctx context.Context, source, target *engine.Engine) error {
			entry, ok := source.Get("color")
			if !ok {
				return nil
			}
			_, err := target.Register(ctx, entry.Key, entry.Payload, core.EntryOptions{})
			return err
		},
	}))

	require.NoError(t, m.Trigger(ctx))

	mirror, _ := m.Engine("mirror")
	entry, ok := mirror.Get("color")
	require.True(t, ok)
	assert.Equal(t, "teal", entry.Payload)
}
