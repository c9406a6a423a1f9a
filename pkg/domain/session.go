package domain

import "time"

// Session is the per-conversation execution cursor within a flow.
//
// It is created on the first trigger match, mutated on every inbound event,
// and deleted when an end node is reached, when the flow transfers to a human,
// or when the auto-close subsystem tears it down after inactivity.
type Session struct {
	ConversationID string            `json:"conversationId"`
	FlowID         string            `json:"flowId"`
	CurrentNodeID  string            `json:"currentNodeId"`
	Variables      map[string]string `json:"variables"`
	AwaitingInput  bool              `json:"awaitingInput"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// NewSession creates a fresh session positioned at startNodeID.
func NewSession(conversationID, flowID, startNodeID string, now time.Time) *Session {
	return &Session{
		ConversationID: conversationID,
		FlowID:         flowID,
		CurrentNodeID:  startNodeID,
		Variables:      make(map[string]string),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a copy with its own Variables map, safe for independent mutation.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Variables = make(map[string]string, len(s.Variables))
	for k, v := range s.Variables {
		next.Variables[k] = v
	}
	return &next
}
