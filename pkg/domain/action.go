package domain

// InboundEvent is a message arriving from a conversation channel.
type InboundEvent struct {
	ConversationID string       `json:"conversationId"`
	Text           string       `json:"text"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Attachment is channel media referenced by an inbound or outbound message.
type Attachment struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
}

// Standard action types emitted by the interpreter.
const (
	// ActionSendMessage requests the delivery gateway to send text to the conversation.
	// Payload: SendMessage
	ActionSendMessage = "SEND_MESSAGE"

	// ActionTransferConversation hands the conversation to a human operator.
	// Payload: TransferConversation
	ActionTransferConversation = "TRANSFER_CONVERSATION"

	// ActionQueueConversation parks the conversation in a department queue
	// because no operator was available. Payload: QueueConversation
	ActionQueueConversation = "QUEUE_CONVERSATION"
)

// OutboundAction is a side-effect the engine requests the host to perform.
// The interpreter batches actions and never performs them itself.
type OutboundAction struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// SendMessage carries the rendered text of a message node (or a retry /
// unexpected-response template). DelayMs is a scheduling hint for the
// delivery gateway, not a sleep inside the engine.
type SendMessage struct {
	Text     string `json:"text"`
	DelayMs  int    `json:"delayMs,omitempty"`
	HasMedia bool   `json:"hasMedia,omitempty"`
}

// TransferConversation assigns the conversation to a chosen operator.
type TransferConversation struct {
	ConversationID string `json:"conversationId"`
	OperatorID     string `json:"operatorId"`
	Department     string `json:"department"`
}

// QueueConversation places the conversation in a waiting queue for a
// department with no available operator.
type QueueConversation struct {
	TicketID       string `json:"ticketId"`
	ConversationID string `json:"conversationId"`
	Department     string `json:"department"`
}

// ExecutionResult is the outcome of handling one inbound event.
// SessionAfter is nil when no session remains (flow ended, transferred,
// or never started).
type ExecutionResult struct {
	Actions      []OutboundAction `json:"actions"`
	SessionAfter *Session         `json:"sessionAfter,omitempty"`
}
