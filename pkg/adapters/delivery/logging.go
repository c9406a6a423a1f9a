// Package delivery provides gateway implementations for the engine's
// outbound actions. The real WhatsApp/Instagram senders live in the
// surrounding system; the log gateway stands in for them in development
// deployments and the simulate command.
package delivery

import (
	"context"
	"log/slog"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// LogGateway implements ports.DeliveryGateway by logging each action.
type LogGateway struct {
	logger *slog.Logger
}

// NewLogGateway creates a gateway that records actions on the given logger.
func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

// Send logs the action. Fire-and-forget per the gateway contract.
func (g *LogGateway) Send(ctx context.Context, conversationID string, action domain.OutboundAction) {
	g.logger.Info("outbound action",
		"conversation_id", conversationID,
		"type", action.Type,
		"payload", action.Payload,
	)
}
