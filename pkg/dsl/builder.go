// Package dsl provides a fluent builder for flow definitions, mainly for
// tests and embedded flows. Production flows come from the visual editor as
// JSON/YAML; the builder produces the same schema.
package dsl

import (
	"fmt"
	"time"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// Builder assembles a FlowDefinition node by node.
type Builder struct {
	def     domain.FlowDefinition
	edgeSeq int
}

// New starts a flow with an any-type trigger. Use Keyword to narrow it.
func New(id, name string) *Builder {
	return &Builder{
		def: domain.FlowDefinition{
			ID:        id,
			Name:      name,
			IsActive:  true,
			Trigger:   domain.Trigger{Type: domain.TriggerAny},
			UpdatedAt: time.Now().UTC(),
		},
	}
}

// Keyword sets a keyword trigger for the flow.
func (b *Builder) Keyword(value string) *Builder {
	b.def.Trigger = domain.Trigger{Type: domain.TriggerKeyword, Value: value}
	return b
}

// Inactive marks the flow inactive.
func (b *Builder) Inactive() *Builder {
	b.def.IsActive = false
	return b
}

// UpdatedAt overrides the definition timestamp (matters for matcher ordering).
func (b *Builder) UpdatedAt(t time.Time) *Builder {
	b.def.UpdatedAt = t
	return b
}

func (b *Builder) add(id, nodeType string, data map[string]any) *Builder {
	b.def.Nodes = append(b.def.Nodes, domain.Node{ID: id, Type: nodeType, Data: data})
	return b
}

// Trigger adds the entry node.
func (b *Builder) Trigger(id, label string) *Builder {
	return b.add(id, domain.NodeTypeTrigger, map[string]any{"label": label})
}

// Message adds a message node.
func (b *Builder) Message(id, label string) *Builder {
	return b.add(id, domain.NodeTypeMessage, map[string]any{"label": label})
}

// Condition adds a condition node with its accepted options.
func (b *Builder) Condition(id, label string, options ...string) *Builder {
	return b.add(id, domain.NodeTypeCondition, map[string]any{"label": label, "options": options})
}

// Input adds an input-capture node.
func (b *Builder) Input(id, label, validation string) *Builder {
	return b.add(id, domain.NodeTypeInput, map[string]any{"label": label, "validation": validation})
}

// Transfer adds a transfer node targeting a department.
func (b *Builder) Transfer(id, label, department string) *Builder {
	return b.add(id, domain.NodeTypeTransfer, map[string]any{"label": label, "department": department})
}

// End adds a terminal node. An empty label sends no closing message.
func (b *Builder) End(id, label string) *Builder {
	return b.add(id, domain.NodeTypeEnd, map[string]any{"label": label})
}

// Edge connects two nodes.
func (b *Builder) Edge(source, target string) *Builder {
	return b.LabeledEdge(source, target, "")
}

// LabeledEdge connects two nodes with a branch label (for condition fan-out).
func (b *Builder) LabeledEdge(source, target, label string) *Builder {
	b.edgeSeq++
	b.def.Edges = append(b.def.Edges, domain.Edge{
		ID:     fmt.Sprintf("e%d", b.edgeSeq),
		Source: source,
		Target: target,
		Label:  label,
	})
	return b
}

// Definition returns the assembled flow.
func (b *Builder) Definition() *domain.FlowDefinition {
	def := b.def
	return &def
}
