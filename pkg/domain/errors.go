package domain

import (
	"errors"
	"fmt"
)

// ErrFlowNotFound is returned when a flow ID cannot be resolved by the repository.
var ErrFlowNotFound = errors.New("flow not found")

// ErrSessionNotFound is returned when a conversation has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// MalformedFlowError reports a flow definition that violates a structural
// invariant. It is raised at load/compile time, never mid-session.
type MalformedFlowError struct {
	FlowID string
	Reason string
}

func (e *MalformedFlowError) Error() string {
	return fmt.Sprintf("malformed flow %q: %s", e.FlowID, e.Reason)
}

// ExecutionLimitError reports a handle() call that exceeded the synchronous
// step bound, the guard against cyclic graphs chaining forever in one turn.
// The session is left at its last stable node.
type ExecutionLimitError struct {
	ConversationID string
	FlowID         string
	Steps          int
}

func (e *ExecutionLimitError) Error() string {
	return fmt.Sprintf("flow %q exceeded the execution step limit (%d) for conversation %q",
		e.FlowID, e.Steps, e.ConversationID)
}
