package mesh

import (
	"context"
	"errors"
	"time"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/engine"
)

// Rule is the executable body of a synergy link. It receives the resolved
// source and target engines and may read or mutate either.
type Rule func(ctx context.Context, source, target *engine.Engine) error

// LinkSpec declares a synergy link: a rule connecting two engines, executed
// when the mesh is triggered. Links run in dependency order: a link whose
// source engine is the target of another link runs after it.
type LinkSpec struct {
	// Name identifies the link in logs and errors.
	Name string

	// Source and Target are engine names registered in the mesh.
	Source string
	Target string

	// Timeout bounds the rule execution. Zero inherits the caller's
	// context deadline.
	Timeout time.Duration

	// Rule is the link body.
	Rule Rule
}

// AddLink registers a synergy link. Both engines must already exist in the
// mesh; unknown names fail with LINK_NOT_FOUND. Adding a link that would
// close a dependency cycle fails with LINK_CYCLE.
func (m *Mesh) AddLink(spec LinkSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.engines[spec.Source]; !ok {
		return core.NewError(core.CodeLinkNotFound, "link %q: source engine %q not in mesh", spec.Name, spec.Source)
	}
	if _, ok := m.engines[spec.Target]; !ok {
		return core.NewError(core.CodeLinkNotFound, "link %q: target engine %q not in mesh", spec.Name, spec.Target)
	}

	candidate := append(append([]LinkSpec(nil), m.links...), spec)
	if _, err := orderLinks(candidate); err != nil {
		return err
	}

	m.links = candidate
	return nil
}

// Links returns a copy of the registered link specs in registration order.
func (m *Mesh) Links() []LinkSpec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]LinkSpec(nil), m.links...)
}

// Trigger executes every registered link in dependency order. Failing rules
// are logged and collected; later links still run (the mesh failure policy
// is contain-and-continue). The joined error of all failures is returned.
func (m *Mesh) Trigger(ctx context.Context) error {
	m.mu.RLock()
	links := append([]LinkSpec(nil), m.links...)
	m.mu.RUnlock()

	ordered, err := orderLinks(links)
	if err != nil {
		return err
	}
	return m.runLinks(ctx, ordered)
}

// TriggerFrom executes the links reachable from the named source engine, in
// dependency order: links whose source is the engine, then links whose
// source is a target of an executed link, transitively.
func (m *Mesh) TriggerFrom(ctx context.Context, source string) error {
	m.mu.RLock()
	links := append([]LinkSpec(nil), m.links...)
	m.mu.RUnlock()

	ordered, err := orderLinks(links)
	if err != nil {
		return err
	}

	reachable := map[string]bool{source: true}
	selected := make([]LinkSpec, 0, len(ordered))
	for _, link := range ordered {
		if reachable[link.Source] {
			reachable[link.Target] = true
			selected = append(selected, link)
		}
	}
	return m.runLinks(ctx, selected)
}

func (m *Mesh) runLinks(ctx context.Context, links []LinkSpec) error {
	var failures []error
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}
		if err := m.runLink(ctx, link); err != nil {
			m.logger.Warn("synergy link failed link=%s source=%s target=%s err=%v",
				link.Name, link.Source, link.Target, err)
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (m *Mesh) runLink(ctx context.Context, link LinkSpec) error {
	source, ok := m.Engine(link.Source)
	if !ok {
		return core.NewError(core.CodeLinkNotFound, "link %q: source engine %q not in mesh", link.Name, link.Source)
	}
	target, ok := m.Engine(link.Target)
	if !ok {
		return core.NewError(core.CodeLinkNotFound, "link %q: target engine %q not in mesh", link.Name, link.Target)
	}

	if link.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, link.Timeout)
		defer cancel()
	}

	if link.Rule == nil {
		m.bus.Publish(ctx, "synergy:"+link.Name, map[string]string{"source": link.Source, "target": link.Target})
		return nil
	}
	return link.Rule(ctx, source, target)
}

// orderLinks sorts links so that every link runs after the links producing
// its source engine. Kahn's algorithm over the engine dependency graph;
// a cycle fails with LINK_CYCLE. Ties keep registration order.
func orderLinks(links []LinkSpec) ([]LinkSpec, error) {
	// indegree per engine counts links targeting it
	indegree := make(map[string]int)
	nodes := make(map[string]bool)
	for _, link := range links {
		nodes[link.Source] = true
		nodes[link.Target] = true
		indegree[link.Target]++
	}

	ready := make(map[string]bool)
	for node := range nodes {
		if indegree[node] == 0 {
			ready[node] = true
		}
	}

	ordered := make([]LinkSpec, 0, len(links))
	remaining := append([]LinkSpec(nil), links...)
	for len(remaining) > 0 {
		progressed := false
		rest := remaining[:0]
		for _, link := range remaining {
			if !ready[link.Source] {
				rest = append(rest, link)
				continue
			}
			ordered = append(ordered, link)
			indegree[link.Target]--
			if indegree[link.Target] == 0 {
				ready[link.Target] = true
			}
			progressed = true
		}
		remaining = rest
		if !progressed {
			names := make([]string, 0, len(remaining))
			for _, link := range remaining {
				names = append(names, link.Name)
			}
			return nil, core.NewError(core.CodeLinkCycle, "synergy links form a cycle: %v", names)
		}
	}
	return ordered, nil
}
