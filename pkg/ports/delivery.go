package ports

import (
	"context"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// DeliveryGateway sends the interpreter's batched actions out to the channel
// (WhatsApp, Instagram, ...). Implementations are fire-and-forget: errors are
// logged by the gateway and never block or fail the interpreter.
type DeliveryGateway interface {
	Send(ctx context.Context, conversationID string, action domain.OutboundAction)
}
