// Package botflow is the conversational bot-flow engine behind the support
// desk: a directed-graph state machine that walks each inbound chat message
// through user-authored flows, capturing input, branching on replies and
// handing conversations off to human operators.
//
// The Engine facade wires the interpreter core to its collaborators (flow
// repository, session store, operator directory) and serializes handling per
// conversation. Adapters for memory, Redis, files and HTTP live under
// pkg/adapters.
package botflow

import (
	"context"
	"log/slog"

	"github.com/enderxdxd/botflow/internal/logging"
	"github.com/enderxdxd/botflow/internal/runtime"
	"github.com/enderxdxd/botflow/pkg/adapters/memory"
	"github.com/enderxdxd/botflow/pkg/distribute"
	"github.com/enderxdxd/botflow/pkg/domain"
	"github.com/enderxdxd/botflow/pkg/observability"
	"github.com/enderxdxd/botflow/pkg/ports"
	"github.com/enderxdxd/botflow/pkg/session"
)

// Templates are the engine's own message texts (retry, unexpected response,
// fallback). Zero-valued fields keep their defaults.
type Templates = runtime.Templates

// Engine is the high-level entry point: one instance per deployment,
// safe for concurrent use across conversations.
type Engine struct {
	interp   *runtime.Interpreter
	sessions *session.Manager
	delivery ports.DeliveryGateway
	logger   *slog.Logger

	// assembly-time state consumed by New
	cursor    ports.CursorStore
	locker    ports.DistributedLocker
	metrics   *observability.Metrics
	templates Templates
	maxSteps  int
	seed      *uint64
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics wires Prometheus instrumentation into the interpreter.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTemplates overrides the engine message templates.
func WithTemplates(t Templates) Option {
	return func(e *Engine) { e.templates = t }
}

// WithMaxSteps overrides the synchronous step bound per inbound event.
func WithMaxSteps(n int) Option {
	return func(e *Engine) { e.maxSteps = n }
}

// WithCursorStore sets the persisted cursor used by sequential distribution.
// Defaults to an in-process counter.
func WithCursorStore(c ports.CursorStore) Option {
	return func(e *Engine) { e.cursor = c }
}

// WithLocker adds a distributed conversation lock for multi-replica deployments.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithDelivery sets the gateway that receives the batched actions after each
// handled event. Without one, actions are only returned to the caller.
func WithDelivery(g ports.DeliveryGateway) Option {
	return func(e *Engine) { e.delivery = g }
}

// WithSeed fixes the random distribution source, for deterministic tests.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seed = &seed }
}

// New assembles an Engine over the given collaborators.
func New(
	flows ports.FlowRepository,
	sessions ports.SessionStore,
	directory ports.OperatorDirectory,
	opts ...Option,
) *Engine {
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	if e.cursor == nil {
		e.cursor = memory.NewCursorStore()
	}

	var pickerOpts []distribute.Option
	if e.seed != nil {
		pickerOpts = append(pickerOpts, distribute.WithSeed(*e.seed))
	}
	picker := distribute.NewPicker(e.cursor, pickerOpts...)

	interpOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithTemplates(e.templates),
	}
	if e.metrics != nil {
		interpOpts = append(interpOpts, runtime.WithMetrics(e.metrics))
	}
	if e.maxSteps > 0 {
		interpOpts = append(interpOpts, runtime.WithMaxSteps(e.maxSteps))
	}
	e.interp = runtime.New(flows, sessions, directory, picker, interpOpts...)

	managerOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(managerOpts...)

	return e
}

// HandleMessage processes one inbound event under the conversation's lock
// and forwards the batched actions to the delivery gateway, if any.
func (e *Engine) HandleMessage(ctx context.Context, event domain.InboundEvent) (*domain.ExecutionResult, error) {
	var result *domain.ExecutionResult
	err := e.sessions.WithLock(ctx, event.ConversationID, func(ctx context.Context) error {
		var err error
		result, err = e.interp.Handle(ctx, event)
		return err
	})
	if err != nil {
		return nil, err
	}

	if e.delivery != nil {
		for _, action := range result.Actions {
			e.delivery.Send(ctx, event.ConversationID, action)
		}
	}
	return result, nil
}

// EndSession tears down a conversation's session. Called by the auto-close
// subsystem after inactivity, or by an operator closing the chat.
func (e *Engine) EndSession(ctx context.Context, conversationID string) error {
	return e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		return e.interp.EndSession(ctx, conversationID)
	})
}
