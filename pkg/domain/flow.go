package domain

import "time"

// Trigger type constants define how a flow is activated for a fresh conversation.
const (
	// TriggerKeyword matches case-insensitively via substring containment.
	TriggerKeyword = "keyword"
	// TriggerIntent is reserved for NLP classification. No classifier exists today,
	// so it degrades to keyword matching.
	TriggerIntent = "intent"
	// TriggerAny matches every inbound message, but only after keyword-class
	// triggers have had their chance.
	TriggerAny = "any"
)

// Trigger is the condition that activates a flow when no session exists.
type Trigger struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// NodeType constants define the control flow behavior of each node.
const (
	// NodeTypeTrigger is the single entry node of a flow.
	NodeTypeTrigger = "trigger"
	// NodeTypeMessage sends text and continues immediately (soft step).
	NodeTypeMessage = "message"
	// NodeTypeCondition branches on the next inbound text against edge labels.
	NodeTypeCondition = "condition"
	// NodeTypeInput captures and validates a reply into a session variable (hard step).
	NodeTypeInput = "input"
	// NodeTypeTransfer hands the conversation to a human operator.
	NodeTypeTransfer = "transfer"
	// NodeTypeEnd terminates the flow and destroys the session.
	NodeTypeEnd = "end"
)

// Input validation kinds accepted by input nodes.
const (
	ValidationText       = "text"
	ValidationEmail      = "email"
	ValidationPhone      = "phone"
	ValidationNumber     = "number"
	ValidationDocumentID = "document-id"
)

// Node is one unit of the flow graph as stored by the visual editor.
//
// Data is a loosely-typed bag whose shape depends on Type. The engine never
// interprets it directly; pkg/flow decodes it into a closed typed union at
// load time and rejects malformed payloads there.
type Node struct {
	ID   string         `json:"id" yaml:"id"`
	Type string         `json:"type" yaml:"type"`
	Data map[string]any `json:"data" yaml:"data"`
}

// Edge is a directed transition between two nodes. A condition node's
// outgoing edges carry a Label matching one of its accepted options.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}

// FlowDefinition is a user-authored bot flow. It is created and edited by the
// external editor; the engine treats it as read-only and reloads by ID.
//
// The JSON shape of this struct (and of Node/Edge) is shared with the visual
// editor. Changing a field name here is a breaking schema change.
type FlowDefinition struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	IsActive  bool      `json:"isActive" yaml:"isActive"`
	Trigger   Trigger   `json:"trigger" yaml:"trigger"`
	Nodes     []Node    `json:"nodes" yaml:"nodes"`
	Edges     []Edge    `json:"edges" yaml:"edges"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}
