package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/enderxdxd/botflow/internal/logging"
	"github.com/enderxdxd/botflow/pkg/distribute"
	"github.com/enderxdxd/botflow/pkg/domain"
	"github.com/enderxdxd/botflow/pkg/flow"
	"github.com/enderxdxd/botflow/pkg/observability"
	"github.com/enderxdxd/botflow/pkg/ports"
	"github.com/enderxdxd/botflow/pkg/trigger"
	"github.com/enderxdxd/botflow/pkg/validate"
)

// DefaultMaxSteps bounds how many nodes one inbound event may execute
// synchronously. Flows legally contain cycles ("back to menu"); the bound
// keeps a message-only cycle from chaining forever within one Handle call.
const DefaultMaxSteps = 50

// Interpreter is the conversational state machine. One Handle call processes
// one inbound event: it loads (or creates) the session, walks the flow graph
// until a node that must await input or external action, and returns the
// batched outbound actions plus the session after the step.
//
// Side effects are returned, never performed here. The caller must guarantee
// at most one Handle in flight per conversation (see pkg/session).
type Interpreter struct {
	repo      ports.FlowRepository
	flows     *flow.Cache
	sessions  ports.SessionStore
	directory ports.OperatorDirectory
	picker    *distribute.Picker

	logger    *slog.Logger
	metrics   *observability.Metrics
	templates Templates
	maxSteps  int

	now      func() time.Time
	ticketID func() string
}

// Option configures the Interpreter.
type Option func(*Interpreter)

// WithLogger sets the interpreter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(i *Interpreter) { i.metrics = m }
}

// WithMaxSteps overrides the synchronous step bound.
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxSteps = n
		}
	}
}

// WithTemplates overrides the engine message templates.
func WithTemplates(t Templates) Option {
	return func(i *Interpreter) { i.templates = t.withDefaults() }
}

// WithClock fixes the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(i *Interpreter) { i.now = now }
}

// WithTicketIDs fixes the queue-ticket ID generator, for deterministic tests.
func WithTicketIDs(gen func() string) Option {
	return func(i *Interpreter) { i.ticketID = gen }
}

// New creates an Interpreter over the given collaborators.
func New(
	repo ports.FlowRepository,
	sessions ports.SessionStore,
	directory ports.OperatorDirectory,
	picker *distribute.Picker,
	opts ...Option,
) *Interpreter {
	i := &Interpreter{
		repo:      repo,
		flows:     flow.NewCache(repo),
		sessions:  sessions,
		directory: directory,
		picker:    picker,
		logger:    logging.NewNop(),
		templates: DefaultTemplates(),
		maxSteps:  DefaultMaxSteps,
		now:       time.Now,
		ticketID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Handle processes one inbound event and returns the batched actions plus the
// session that remains (nil when the flow ended, transferred, or never
// started). The session is persisted atomically after the whole step loop,
// never node by node.
func (i *Interpreter) Handle(ctx context.Context, event domain.InboundEvent) (*domain.ExecutionResult, error) {
	start := i.now()
	result, err := i.handle(ctx, event)
	elapsed := i.now().Sub(start).Seconds()

	switch {
	case err != nil:
		i.metrics.ObserveEvent(observability.OutcomeError, elapsed)
	case result.SessionAfter != nil:
		i.metrics.ObserveEvent(observability.OutcomeAdvanced, elapsed)
	case len(result.Actions) > 0:
		i.metrics.ObserveEvent(observability.OutcomeCompleted, elapsed)
	default:
		i.metrics.ObserveEvent(observability.OutcomeNoMatch, elapsed)
	}
	if result != nil {
		for _, a := range result.Actions {
			i.metrics.ObserveAction(a.Type)
		}
	}
	return result, err
}

func (i *Interpreter) handle(ctx context.Context, event domain.InboundEvent) (*domain.ExecutionResult, error) {
	now := i.now().UTC()

	stored, err := i.sessions.Get(ctx, event.ConversationID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("loading session for conversation %q: %w", event.ConversationID, err)
	}

	var (
		sess *domain.Session
		g    *flow.Graph
	)

	if stored == nil {
		g, sess = i.startSession(ctx, event, now)
		if sess == nil {
			// No trigger matched. Not an error: the caller handles fallback
			// or offline messaging.
			return &domain.ExecutionResult{}, nil
		}
		return i.advance(ctx, g, stored, sess, nil)
	}

	g, err = i.flows.Graph(ctx, stored.FlowID)
	if err != nil {
		// FlowNotFound and MalformedFlow are the hard failures of the engine.
		return nil, fmt.Errorf("loading flow %q for conversation %q: %w", stored.FlowID, event.ConversationID, err)
	}

	sess = stored.Clone()
	sess.UpdatedAt = now

	node, ok := g.NodeByID(sess.CurrentNodeID)
	if !ok {
		// The editor removed the node under a live session. Reset so the next
		// message restarts trigger matching.
		i.logger.Warn("session points at a node that no longer exists, resetting",
			"conversation_id", sess.ConversationID, "flow_id", sess.FlowID, "node_id", sess.CurrentNodeID)
		if err := i.sessions.Delete(ctx, sess.ConversationID); err != nil {
			return nil, fmt.Errorf("resetting orphaned session: %w", err)
		}
		return &domain.ExecutionResult{}, nil
	}

	var actions []domain.OutboundAction

	if sess.AwaitingInput && node.Type == domain.NodeTypeInput {
		value, verr := validate.Validate(node.Input.Validation, event.Text)
		if verr != nil {
			// Rejected input never advances the session; the contact is asked
			// to try again.
			i.metrics.ObserveValidationFailure()
			actions = append(actions, sendMessage(i.render(i.templates.Retry, sess), 0, false))
			return i.finish(ctx, sess, actions)
		}
		key := node.Input.Key
		if key == "" {
			key = node.ID
		}
		sess.Variables[key] = value
		sess.AwaitingInput = false
		sess.CurrentNodeID = g.SingleTarget(node.ID)
		return i.advance(ctx, g, stored, sess, actions)
	}

	if node.Type == domain.NodeTypeCondition {
		target, matched := matchBranch(event.Text, g.EdgesFrom(node.ID))
		if !matched {
			// Designed self-loop: stay on the condition node and nudge the
			// contact, instead of falling back to global trigger matching.
			actions = append(actions, sendMessage(i.render(i.templates.Unexpected, sess), 0, false))
			return i.finish(ctx, sess, actions)
		}
		sess.CurrentNodeID = target
		return i.advance(ctx, g, stored, sess, actions)
	}

	// A resting session should only sit on an input or condition node. If we
	// get here the stored state predates a flow edit; re-execute in place.
	i.logger.Warn("session resting on a non-interactive node",
		"conversation_id", sess.ConversationID, "flow_id", sess.FlowID,
		"node_id", sess.CurrentNodeID, "node_type", node.Type)
	sess.AwaitingInput = false
	return i.advance(ctx, g, stored, sess, actions)
}

// startSession runs trigger matching for a conversation without a session.
// Returns a nil session when no active flow matches.
func (i *Interpreter) startSession(ctx context.Context, event domain.InboundEvent, now time.Time) (*flow.Graph, *domain.Session) {
	defs, err := i.repo.ActiveFlows(ctx)
	if err != nil {
		i.logger.Error("listing active flows", "error", err)
		return nil, nil
	}

	candidates := make([]*flow.Graph, 0, len(defs))
	for _, def := range defs {
		g, err := i.flows.Snapshot(def)
		if err != nil {
			// A malformed flow must not take matching down with it.
			i.logger.Warn("skipping malformed flow", "flow_id", def.ID, "error", err)
			continue
		}
		candidates = append(candidates, g)
	}

	g := trigger.Match(event.Text, candidates)
	if g == nil {
		return nil, nil
	}

	sess := domain.NewSession(event.ConversationID, g.ID(), g.TriggerNode().ID, now)
	i.logger.Info("flow triggered",
		"conversation_id", event.ConversationID, "flow_id", g.ID(), "flow_name", g.Definition().Name)
	return g, sess
}

// advance executes nodes starting at the session's current node until one
// requires further input or terminates the flow, then persists the outcome.
func (i *Interpreter) advance(
	ctx context.Context,
	g *flow.Graph,
	stored *domain.Session, // state persisted before this event, nil for fresh sessions
	sess *domain.Session,
	actions []domain.OutboundAction,
) (*domain.ExecutionResult, error) {
	for steps := 0; ; steps++ {
		if steps >= i.maxSteps {
			return i.abortStepLimit(ctx, g, stored, sess)
		}

		node, ok := g.NodeByID(sess.CurrentNodeID)
		if !ok {
			// Compile guarantees edge targets exist, so this is unreachable
			// unless the graph changed mid-walk.
			return nil, &domain.MalformedFlowError{FlowID: g.ID(), Reason: fmt.Sprintf("missing node %q", sess.CurrentNodeID)}
		}

		switch node.Type {
		case domain.NodeTypeTrigger:
			sess.CurrentNodeID = g.SingleTarget(node.ID)

		case domain.NodeTypeMessage:
			actions = append(actions, sendMessage(
				i.render(node.Message.Label, sess),
				node.Message.DelayMs,
				node.Message.HasMedia,
			))
			sess.CurrentNodeID = g.SingleTarget(node.ID)

		case domain.NodeTypeCondition:
			// Await the next inbound text as the branch selector.
			return i.finish(ctx, sess, actions)

		case domain.NodeTypeInput:
			sess.AwaitingInput = true
			actions = append(actions, sendMessage(i.render(node.Input.Label, sess), 0, false))
			return i.finish(ctx, sess, actions)

		case domain.NodeTypeTransfer:
			action := i.transfer(ctx, sess, node.Transfer)
			actions = append(actions, action)
			if err := i.sessions.Delete(ctx, sess.ConversationID); err != nil {
				return nil, fmt.Errorf("closing session after transfer: %w", err)
			}
			return &domain.ExecutionResult{Actions: actions}, nil

		case domain.NodeTypeEnd:
			if node.End.Label != "" {
				actions = append(actions, sendMessage(i.render(node.End.Label, sess), 0, false))
			}
			if err := i.sessions.Delete(ctx, sess.ConversationID); err != nil {
				return nil, fmt.Errorf("closing session at end node: %w", err)
			}
			i.logger.Info("flow completed", "conversation_id", sess.ConversationID, "flow_id", sess.FlowID)
			return &domain.ExecutionResult{Actions: actions}, nil
		}
	}
}

// transfer picks an operator for the node's department, falling back to
// queueing when none is available or the directory fails.
func (i *Interpreter) transfer(ctx context.Context, sess *domain.Session, data *flow.TransferData) domain.OutboundAction {
	departmentID := data.Department
	strategy := domain.StrategyBalanced
	if dep, err := i.directory.Department(ctx, departmentID); err == nil && dep.Strategy != "" {
		strategy = dep.Strategy
	}

	operators, err := i.directory.ListAvailable(ctx, departmentID)
	if err != nil {
		i.logger.Error("listing available operators", "department", departmentID, "error", err)
		operators = nil
	}

	operatorID := ""
	if len(operators) > 0 {
		operatorID, err = i.picker.Pick(ctx, departmentID, operators, strategy)
		if err != nil {
			i.logger.Error("picking operator", "department", departmentID, "strategy", strategy, "error", err)
			operatorID = ""
		}
	}

	if operatorID == "" {
		i.logger.Info("no operator available, queueing conversation",
			"conversation_id", sess.ConversationID, "department", departmentID)
		return domain.OutboundAction{
			Type: domain.ActionQueueConversation,
			Payload: domain.QueueConversation{
				TicketID:       i.ticketID(),
				ConversationID: sess.ConversationID,
				Department:     departmentID,
			},
		}
	}

	i.logger.Info("transferring conversation",
		"conversation_id", sess.ConversationID, "department", departmentID,
		"operator_id", operatorID, "strategy", strategy)
	return domain.OutboundAction{
		Type: domain.ActionTransferConversation,
		Payload: domain.TransferConversation{
			ConversationID: sess.ConversationID,
			OperatorID:     operatorID,
			Department:     departmentID,
		},
	}
}

// abortStepLimit absorbs a runaway graph: the fallback message is emitted and
// the session stays at the state persisted before this event, so a later
// message resumes from stable ground.
func (i *Interpreter) abortStepLimit(ctx context.Context, g *flow.Graph, stored, sess *domain.Session) (*domain.ExecutionResult, error) {
	limitErr := &domain.ExecutionLimitError{
		ConversationID: sess.ConversationID,
		FlowID:         g.ID(),
		Steps:          i.maxSteps,
	}
	i.logger.Error("aborting flow execution", "error", limitErr)
	i.metrics.ObserveStepLimitAbort()

	actions := []domain.OutboundAction{sendMessage(i.render(i.templates.Fallback, sess), 0, false)}
	if stored == nil {
		// The runaway happened before any stable state existed; drop the
		// half-built session entirely.
		if err := i.sessions.Delete(ctx, sess.ConversationID); err != nil {
			return nil, fmt.Errorf("discarding session after step-limit abort: %w", err)
		}
		return &domain.ExecutionResult{Actions: actions}, nil
	}
	return &domain.ExecutionResult{Actions: actions, SessionAfter: stored.Clone()}, nil
}

// finish persists the session and returns the batched result.
func (i *Interpreter) finish(ctx context.Context, sess *domain.Session, actions []domain.OutboundAction) (*domain.ExecutionResult, error) {
	if err := i.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session for conversation %q: %w", sess.ConversationID, err)
	}
	return &domain.ExecutionResult{Actions: actions, SessionAfter: sess}, nil
}

// EndSession tears down a conversation's session without running the flow.
// Called by the auto-close subsystem on inactivity timeouts.
func (i *Interpreter) EndSession(ctx context.Context, conversationID string) error {
	return i.sessions.Delete(ctx, conversationID)
}

func sendMessage(text string, delayMs int, hasMedia bool) domain.OutboundAction {
	return domain.OutboundAction{
		Type:    domain.ActionSendMessage,
		Payload: domain.SendMessage{Text: text, DelayMs: delayMs, HasMedia: hasMedia},
	}
}
