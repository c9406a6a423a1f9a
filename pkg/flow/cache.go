package flow

import (
	"context"
	"sync"
	"time"

	"github.com/enderxdxd/botflow/pkg/domain"
	"github.com/enderxdxd/botflow/pkg/ports"
)

// Cache memoizes compiled graphs keyed by (flow ID, UpdatedAt), so the
// interpreter never recompiles an unchanged definition and never acts on a
// stale snapshot after the editor saves a new version.
type Cache struct {
	repo ports.FlowRepository

	mu    sync.RWMutex
	items map[string]cacheEntry
}

type cacheEntry struct {
	updatedAt time.Time
	graph     *Graph
}

// NewCache creates a compiled-graph cache over a flow repository.
func NewCache(repo ports.FlowRepository) *Cache {
	return &Cache{
		repo:  repo,
		items: make(map[string]cacheEntry),
	}
}

// Graph loads a flow by ID and returns its compiled graph, recompiling only
// when the stored definition is newer than the cached snapshot.
func (c *Cache) Graph(ctx context.Context, flowID string) (*Graph, error) {
	def, err := c.repo.GetFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	entry, ok := c.items[flowID]
	c.mu.RUnlock()
	if ok && entry.updatedAt.Equal(def.UpdatedAt) {
		return entry.graph, nil
	}

	g, err := Compile(def)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items[flowID] = cacheEntry{updatedAt: def.UpdatedAt, graph: g}
	c.mu.Unlock()
	return g, nil
}

// Snapshot returns the compiled graph for a definition already in hand,
// reusing the cached compilation when the version matches. Used by trigger
// matching, which iterates the active-flow list without refetching each one.
func (c *Cache) Snapshot(def *domain.FlowDefinition) (*Graph, error) {
	c.mu.RLock()
	entry, ok := c.items[def.ID]
	c.mu.RUnlock()
	if ok && entry.updatedAt.Equal(def.UpdatedAt) {
		return entry.graph, nil
	}

	g, err := Compile(def)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items[def.ID] = cacheEntry{updatedAt: def.UpdatedAt, graph: g}
	c.mu.Unlock()
	return g, nil
}

// Invalidate drops the cached snapshot for a flow. Called on editor saves.
func (c *Cache) Invalidate(flowID string) {
	c.mu.Lock()
	delete(c.items, flowID)
	c.mu.Unlock()
}
