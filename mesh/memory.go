package mesh

import (
	"context"
	"strings"
	"time"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/engine"
)

// Memory is the payload stored by a MemoryEngine entry.
type Memory struct {
	Content  string     `json:"content"`
	StoredAt time.Time  `json:"stored_at"`
	Expires  *time.Time `json:"expires,omitempty"`
}

// Expired reports whether the memory carries an expiry in the past.
func (m Memory) Expired(now time.Time) bool {
	return m.Expires != nil && now.After(*m.Expires)
}

// MemoryEngine stores free-text memories with optional expiry and substring
// recall. Recall is a linear scan; expired memories are skipped on read and
// removed by PruneExpired.
type MemoryEngine struct {
	*engine.Engine
	clock func() time.Time
}

// NewMemoryEngine creates and registers a memory engine in the mesh.
func (m *Mesh) NewMemoryEngine(name string, optFns ...func(o *engine.Options)) (*MemoryEngine, error) {
	eng, err := m.AddEngine(name, optFns...)
	if err != nil {
		return nil, err
	}
	return &MemoryEngine{Engine: eng, clock: time.Now}, nil
}

// Remember stores content under the key. A zero ttl keeps the memory until
// forgotten. Tags become entry tags and are matchable via FilterByTag.
func (me *MemoryEngine) Remember(ctx context.Context, key, content string, tags []string, ttl time.Duration) error {
	mem := Memory{Content: content, StoredAt: me.clock().UTC()}
	if ttl > 0 {
		expires := me.clock().Add(ttl).UTC()
		mem.Expires = &expires
	}

	if _, exists := me.Get(key); exists {
		return me.Update(ctx, key, mem)
	}
	_, err := me.Register(ctx, key, mem, core.EntryOptions{Tags: tags})
	return err
}

// Recall returns the non-expired memories whose content contains the query
// (every memory for an empty query), up to limit. Limit <= 0 means no limit.
func (me *MemoryEngine) Recall(query string, limit int) []Memory {
	now := me.clock()
	out := make([]Memory, 0)
	for _, entry := range me.List() {
		mem, ok := entry.Payload.(Memory)
		if !ok || mem.Expired(now) {
			continue
		}
		if query != "" && !strings.Contains(mem.Content, query) {
			continue
		}
		out = append(out, mem)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Forget removes a memory. Idempotent for absent keys.
func (me *MemoryEngine) Forget(ctx context.Context, key string) bool {
	return me.Unregister(ctx, key)
}

// PruneExpired removes every expired memory and returns how many were
// dropped.
func (me *MemoryEngine) PruneExpired(ctx context.Context) int {
	now := me.clock()
	pruned := 0
	for _, entry := range me.List() {
		mem, ok := entry.Payload.(Memory)
		if ok && mem.Expired(now) && me.Unregister(ctx, entry.Key) {
			pruned++
		}
	}
	return pruned
}
