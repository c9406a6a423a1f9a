package flow

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// MessageData is the payload of a message node.
type MessageData struct {
	Label    string `mapstructure:"label"`
	DelayMs  int    `mapstructure:"delayMs"`
	HasMedia bool   `mapstructure:"hasMedia"`
}

// ConditionData is the payload of a condition node. Options are the accepted
// branch labels; outgoing edges carry a matching label.
type ConditionData struct {
	Label   string   `mapstructure:"label"`
	Options []string `mapstructure:"options"`
}

// InputData is the payload of an input-capture node. Key overrides the
// variable name the captured value is stored under; it defaults to the node ID.
type InputData struct {
	Label      string `mapstructure:"label"`
	Validation string `mapstructure:"validation"`
	Key        string `mapstructure:"key"`
}

// TransferData is the payload of a transfer node.
type TransferData struct {
	Label      string `mapstructure:"label"`
	Department string `mapstructure:"department"`
}

// TriggerData is the payload of the flow's entry node. Keywords participate
// in matching when the flow-level trigger value is empty.
type TriggerData struct {
	Label       string   `mapstructure:"label"`
	TriggerType string   `mapstructure:"triggerType"`
	Keywords    []string `mapstructure:"keywords"`
}

// EndData is the payload of a terminal node. Label, when set, is sent as the
// closing message before the session is destroyed.
type EndData struct {
	Label string `mapstructure:"label"`
}

// Node is a compiled flow node: the editor's loose data bag decoded into
// exactly one typed payload according to Type.
type Node struct {
	ID   string
	Type string

	Message   *MessageData
	Condition *ConditionData
	Input     *InputData
	Transfer  *TransferData
	Trigger   *TriggerData
	End       *EndData
}

// Graph is an immutable compiled view of one FlowDefinition. All structural
// invariants are checked at Compile time so the interpreter can walk it
// without defensive checks mid-session.
type Graph struct {
	def       *domain.FlowDefinition
	nodes     map[string]*Node
	out       map[string][]domain.Edge
	triggerID string
}

// Compile validates a flow definition and builds its executable graph.
// Violations are reported as *domain.MalformedFlowError.
func Compile(def *domain.FlowDefinition) (*Graph, error) {
	if def == nil {
		return nil, &domain.MalformedFlowError{Reason: "nil definition"}
	}
	malformed := func(format string, args ...any) error {
		return &domain.MalformedFlowError{FlowID: def.ID, Reason: fmt.Sprintf(format, args...)}
	}

	if len(def.Nodes) == 0 {
		return nil, malformed("flow has no nodes")
	}

	g := &Graph{
		def:   def,
		nodes: make(map[string]*Node, len(def.Nodes)),
		out:   make(map[string][]domain.Edge),
	}

	for _, raw := range def.Nodes {
		if raw.ID == "" {
			return nil, malformed("node with empty id")
		}
		if _, dup := g.nodes[raw.ID]; dup {
			return nil, malformed("duplicate node id %q", raw.ID)
		}
		node, err := compileNode(raw)
		if err != nil {
			return nil, malformed("node %q: %v", raw.ID, err)
		}
		g.nodes[raw.ID] = node
	}

	incoming := make(map[string]int, len(def.Nodes))
	for _, e := range def.Edges {
		if _, ok := g.nodes[e.Source]; !ok {
			return nil, malformed("edge %q references unknown source %q", e.ID, e.Source)
		}
		if _, ok := g.nodes[e.Target]; !ok {
			return nil, malformed("edge %q references unknown target %q", e.ID, e.Target)
		}
		g.out[e.Source] = append(g.out[e.Source], e)
		incoming[e.Target]++
	}

	for id, node := range g.nodes {
		switch node.Type {
		case domain.NodeTypeTrigger:
			if incoming[id] > 0 {
				return nil, malformed("trigger node %q has incoming edges", id)
			}
			if g.triggerID != "" {
				return nil, malformed("multiple trigger nodes (%q and %q)", g.triggerID, id)
			}
			g.triggerID = id
			if len(g.out[id]) != 1 {
				return nil, malformed("trigger node %q must have exactly one outgoing edge", id)
			}
		case domain.NodeTypeMessage, domain.NodeTypeInput:
			if len(g.out[id]) != 1 {
				return nil, malformed("%s node %q must have exactly one outgoing edge", node.Type, id)
			}
		case domain.NodeTypeCondition:
			if len(g.out[id]) == 0 {
				return nil, malformed("condition node %q has no outgoing edges", id)
			}
			allowed := make(map[string]bool, len(node.Condition.Options))
			for _, opt := range node.Condition.Options {
				allowed[opt] = true
			}
			for _, e := range g.out[id] {
				if e.Label == "" {
					return nil, malformed("condition node %q has an unlabeled outgoing edge %q", id, e.ID)
				}
				if !allowed[e.Label] {
					return nil, malformed("condition node %q edge label %q is not among its options", id, e.Label)
				}
			}
		case domain.NodeTypeTransfer, domain.NodeTypeEnd:
			// Terminal for the session; outgoing edges are ignored if present.
		}
	}

	if g.triggerID == "" {
		return nil, malformed("flow has no trigger node")
	}

	return g, nil
}

func compileNode(raw domain.Node) (*Node, error) {
	node := &Node{ID: raw.ID, Type: raw.Type}

	decode := func(target any) error {
		if raw.Data == nil {
			return nil
		}
		// The editor stores extra presentation keys (position, styling) in the
		// same bag; unknown keys are ignored, wrong shapes are rejected.
		if err := mapstructure.Decode(raw.Data, target); err != nil {
			return fmt.Errorf("invalid %s payload: %w", raw.Type, err)
		}
		return nil
	}

	switch raw.Type {
	case domain.NodeTypeMessage:
		node.Message = &MessageData{}
		if err := decode(node.Message); err != nil {
			return nil, err
		}
		if node.Message.Label == "" {
			return nil, fmt.Errorf("message node missing label")
		}
	case domain.NodeTypeCondition:
		node.Condition = &ConditionData{}
		if err := decode(node.Condition); err != nil {
			return nil, err
		}
		if len(node.Condition.Options) == 0 {
			return nil, fmt.Errorf("condition node has no options")
		}
	case domain.NodeTypeInput:
		node.Input = &InputData{}
		if err := decode(node.Input); err != nil {
			return nil, err
		}
		if node.Input.Validation == "" {
			node.Input.Validation = domain.ValidationText
		}
		switch node.Input.Validation {
		case domain.ValidationText, domain.ValidationEmail, domain.ValidationPhone,
			domain.ValidationNumber, domain.ValidationDocumentID:
		default:
			return nil, fmt.Errorf("unknown validation kind %q", node.Input.Validation)
		}
	case domain.NodeTypeTransfer:
		node.Transfer = &TransferData{}
		if err := decode(node.Transfer); err != nil {
			return nil, err
		}
	case domain.NodeTypeTrigger:
		node.Trigger = &TriggerData{}
		if err := decode(node.Trigger); err != nil {
			return nil, err
		}
	case domain.NodeTypeEnd:
		node.End = &EndData{}
		if err := decode(node.End); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown node type %q", raw.Type)
	}

	return node, nil
}

// Definition returns the source flow definition.
func (g *Graph) Definition() *domain.FlowDefinition { return g.def }

// ID returns the flow's ID.
func (g *Graph) ID() string { return g.def.ID }

// NodeByID looks up a compiled node.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// EdgesFrom returns the outgoing edges of a node, in definition order.
func (g *Graph) EdgesFrom(nodeID string) []domain.Edge {
	return g.out[nodeID]
}

// TriggerNode returns the flow's single entry node.
func (g *Graph) TriggerNode() *Node {
	return g.nodes[g.triggerID]
}

// SingleTarget returns the target of a node's only outgoing edge. Compile
// guarantees exactly one edge for trigger, message and input nodes.
func (g *Graph) SingleTarget(nodeID string) string {
	edges := g.out[nodeID]
	if len(edges) == 0 {
		return ""
	}
	return edges[0].Target
}
