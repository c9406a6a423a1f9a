package ports

import (
	"context"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// FlowRepository defines how the engine retrieves flow definitions.
// Flows are authored in the external editor; the engine only reads them.
type FlowRepository interface {
	// GetFlow retrieves a single flow definition by ID.
	// Returns domain.ErrFlowNotFound if the ID does not resolve.
	GetFlow(ctx context.Context, id string) (*domain.FlowDefinition, error)

	// ActiveFlows returns every flow with IsActive set, in no particular order.
	// The trigger matcher imposes its own deterministic ordering.
	ActiveFlows(ctx context.Context) ([]*domain.FlowDefinition, error)
}

// SessionStore persists per-conversation execution state.
type SessionStore interface {
	// Get retrieves the session for a conversation.
	// Returns domain.ErrSessionNotFound if the conversation has none.
	Get(ctx context.Context, conversationID string) (*domain.Session, error)

	// Save persists the session atomically, keyed by its ConversationID.
	Save(ctx context.Context, session *domain.Session) error

	// Delete removes the session. Deleting an absent session is not an error.
	Delete(ctx context.Context, conversationID string) error
}
