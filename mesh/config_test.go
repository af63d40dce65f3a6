package mesh

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/engine"
)

const sampleConfig = `
engines:
  - name: state
    history_cap: 50
  - name: memory
    overwrite: true
links:
  - name: state-to-memory
    source: state
    target: memory
    rule: mirror
    timeout: 250ms
  - name: notify-only
    source: memory
    target: state
content:
  - name: case studies
    path: content/case-studies.json
`

func TestLoadConfig_ParsesAllSections(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	require.Len(t, cfg.Engines, 2)
	assert.Equal(t, "state", cfg.Engines[0].Name)
	require.NotNil(t, cfg.Engines[0].HistoryCap)
	assert.Equal(t, 50, *cfg.Engines[0].HistoryCap)
	require.NotNil(t, cfg.Engines[1].Overwrite)
	assert.True(t, *cfg.Engines[1].Overwrite)

	require.Len(t, cfg.Links, 2)
	assert.Equal(t, "mirror", cfg.Links[0].Rule)
	assert.Equal(t, "250ms", cfg.Links[0].Timeout)
	assert.Empty(t, cfg.Links[1].Rule)

	require.Len(t, cfg.Content, 1)
	assert.Equal(t, "case studies", cfg.Content[0].Name)
	assert.Equal(t, "content/case-studies.json", cfg.Content[0].Path)
}

func TestLoadConfig_RejectsMalformedYAML(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("engines: [unclosed"))
	assert.Error(t, err)
}

func TestFromConfig_BuildsMesh(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	// drop the second link: state->memory->state would close a cycle
	cfg.Links = cfg.Links[:1]

	rules := map[string]Rule{
		"mirror": func(context.Context, *engine.Engine, *engine.Engine) error { return nil },
	}

	m, err := FromConfig(cfg, rules)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"state", "memory"}, m.EngineNames())

	links := m.Links()
	require.Len(t, links, 1)
	assert.Equal(t, 250*time.Millisecond, links[0].Timeout)
	assert.NotNil(t, links[0].Rule)
}

func TestFromConfig_LinkCycleRejected(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	rules := map[string]Rule{
		"mirror": func(context.Context, *engine.Engine, *engine.Engine) error { return nil },
	}

	_, err = FromConfig(cfg, rules)
	assert.True(t, core.HasCode(err, core.CodeLinkCycle))
}

func TestFromConfig_UnknownRule(t *testing.T) {
	cfg := &Config{
		Engines: []EngineSpec{{Name: "a"}, {Name: "b"}},
		Links:   []LinkConfig{{Name: "l", Source: "a", Target: "b", Rule: "nonexistent"}},
	}

	_, err := FromConfig(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rule")
}

func TestFromConfig_InvalidTimeout(t *testing.T) {
	cfg := &Config{
		Engines: []EngineSpec{{Name: "a"}, {Name: "b"}},
		Links:   []LinkConfig{{Name: "l", Source: "a", Target: "b", Timeout: "soon"}},
	}

	_, err := FromConfig(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}

func TestFromConfig_EmptyEngineName(t *testing.T) {
	cfg := &Config{Engines: []EngineSpec{{Name: ""}}}
	_, err := FromConfig(cfg, nil)
	assert.Error(t, err)
}

func TestFromConfig_EngineOverrides(t *testing.T) {
	histCap := 3
	cfg := &Config{Engines: []EngineSpec{{Name: "tiny", HistoryCap: &histCap}}}

	m, err := FromConfig(cfg, nil)
	require.NoError(t, err)

	eng, ok := m.Engine("tiny")
	require.True(t, ok)

	ctx := context.Background()
	for _, key := range []string{"a", "b", "c", "d"} {
		_, _ = eng.Register(ctx, key, 1, core.EntryOptions{})
	}
	assert.Len(t, eng.History(core.HistoryFilter{}), 3)
}
