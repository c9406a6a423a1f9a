// Package memory provides in-memory implementations of the engine's ports.
// Used by tests, the simulate command and single-instance deployments.
package memory

import (
	"context"
	"sync"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// FlowRepository implements ports.FlowRepository in memory.
// Safe for concurrent use.
type FlowRepository struct {
	mu    sync.RWMutex
	flows map[string]*domain.FlowDefinition
}

// NewFlowRepository creates an empty in-memory flow repository.
func NewFlowRepository(flows ...*domain.FlowDefinition) *FlowRepository {
	r := &FlowRepository{flows: make(map[string]*domain.FlowDefinition)}
	for _, f := range flows {
		r.flows[f.ID] = f
	}
	return r
}

// Put stores or replaces a flow definition. Mirrors an editor save.
func (r *FlowRepository) Put(def *domain.FlowDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[def.ID] = def
}

// GetFlow retrieves a flow by ID.
func (r *FlowRepository) GetFlow(ctx context.Context, id string) (*domain.FlowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.flows[id]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return def, nil
}

// ActiveFlows returns every flow with IsActive set.
func (r *FlowRepository) ActiveFlows(ctx context.Context) ([]*domain.FlowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active := make([]*domain.FlowDefinition, 0, len(r.flows))
	for _, def := range r.flows {
		if def.IsActive {
			active = append(active, def)
		}
	}
	return active, nil
}
