package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enderxdxd/botflow/pkg/adapters/memory"
	"github.com/enderxdxd/botflow/pkg/distribute"
	"github.com/enderxdxd/botflow/pkg/domain"
	"github.com/enderxdxd/botflow/pkg/dsl"
)

var testClock = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// supportFlow is the canonical fixture: keyword trigger, welcome message,
// a 1/2 menu, an email capture leading to an end node, and a transfer branch.
func supportFlow() *domain.FlowDefinition {
	return dsl.New("support", "Atendimento").
		Keyword("oi").
		UpdatedAt(testClock.Add(-time.Hour)).
		Trigger("start", "Início").
		Message("welcome", "Olá! Bem-vindo ao atendimento.").
		Message("menu", "Digite 1 para cadastro ou 2 para falar com vendas.").
		Condition("choice", "Menu principal", "1", "2").
		Input("email", "Qual o seu e-mail?", domain.ValidationEmail).
		Message("thanks", "Recebido: {email}").
		End("bye", "Até logo!").
		Transfer("sales", "Vendas", "vendas").
		Edge("start", "welcome").
		Edge("welcome", "menu").
		Edge("menu", "choice").
		LabeledEdge("choice", "email", "1").
		LabeledEdge("choice", "sales", "2").
		Edge("email", "thanks").
		Edge("thanks", "bye").
		Definition()
}

type testEngine struct {
	interp    *Interpreter
	repo      *memory.FlowRepository
	sessions  *memory.SessionStore
	directory *memory.OperatorDirectory
}

func newTestEngine(t *testing.T, flows []*domain.FlowDefinition, opts ...Option) *testEngine {
	t.Helper()

	repo := memory.NewFlowRepository(flows...)
	sessions := memory.NewSessionStore()
	directory := memory.NewOperatorDirectory()
	picker := distribute.NewPicker(memory.NewCursorStore(), distribute.WithSeed(1))

	opts = append([]Option{
		WithClock(func() time.Time { return testClock }),
		WithTicketIDs(func() string { return "ticket-1" }),
	}, opts...)

	return &testEngine{
		interp:    New(repo, sessions, directory, picker, opts...),
		repo:      repo,
		sessions:  sessions,
		directory: directory,
	}
}

func texts(t *testing.T, actions []domain.OutboundAction) []string {
	t.Helper()
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		require.Equal(t, domain.ActionSendMessage, a.Type)
		msg, ok := a.Payload.(domain.SendMessage)
		require.True(t, ok, "payload should be a SendMessage")
		out = append(out, msg.Text)
	}
	return out
}

func TestHandleTriggerMatching(t *testing.T) {
	ctx := context.Background()

	t.Run("No Match Yields Empty Result", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "bom dia"})
		require.NoError(t, err)
		assert.Empty(t, res.Actions)
		assert.Nil(t, res.SessionAfter)

		_, err = e.sessions.Get(ctx, "c1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Keyword Match Walks To First Resting Node", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "Oi, tudo bem?"})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"Olá! Bem-vindo ao atendimento.",
			"Digite 1 para cadastro ou 2 para falar com vendas.",
		}, texts(t, res.Actions))

		require.NotNil(t, res.SessionAfter)
		assert.Equal(t, "choice", res.SessionAfter.CurrentNodeID)
		assert.False(t, res.SessionAfter.AwaitingInput)

		stored, err := e.sessions.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "choice", stored.CurrentNodeID)
	})

	t.Run("Keyword Beats Newer Catch-All", func(t *testing.T) {
		catchAll := dsl.New("fallback", "Fallback").
			UpdatedAt(testClock).
			Trigger("start", "Início").
			Message("hello", "Mensagem padrão.").
			End("bye", "").
			Edge("start", "hello").
			Edge("hello", "bye").
			Definition()
		e := newTestEngine(t, []*domain.FlowDefinition{catchAll, supportFlow()})

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "oi"})
		require.NoError(t, err)
		require.NotNil(t, res.SessionAfter)
		assert.Equal(t, "support", res.SessionAfter.FlowID)

		res, err = e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c2", Text: "qualquer coisa"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Mensagem padrão."}, texts(t, res.Actions))
		assert.Nil(t, res.SessionAfter)
	})

	t.Run("Inactive Flows Never Trigger", func(t *testing.T) {
		inactive := supportFlow()
		inactive.IsActive = false
		e := newTestEngine(t, []*domain.FlowDefinition{inactive})

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "oi"})
		require.NoError(t, err)
		assert.Empty(t, res.Actions)
		assert.Nil(t, res.SessionAfter)
	})

	t.Run("Malformed Flow Does Not Block Matching", func(t *testing.T) {
		broken := dsl.New("broken", "Quebrado").
			Keyword("oi").
			UpdatedAt(testClock).
			Trigger("start", "Início").
			Message("m1", ""). // missing label
			Edge("start", "m1").
			Definition()
		e := newTestEngine(t, []*domain.FlowDefinition{broken, supportFlow()})

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "oi"})
		require.NoError(t, err)
		require.NotNil(t, res.SessionAfter)
		assert.Equal(t, "support", res.SessionAfter.FlowID)
	})
}

func TestHandleConditionNode(t *testing.T) {
	ctx := context.Background()

	start := func(t *testing.T, e *testEngine) {
		t.Helper()
		_, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "oi"})
		require.NoError(t, err)
	}

	t.Run("Exact Reply Selects Branch", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		start(t, e)

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Qual o seu e-mail?"}, texts(t, res.Actions))
		require.NotNil(t, res.SessionAfter)
		assert.Equal(t, "email", res.SessionAfter.CurrentNodeID)
		assert.True(t, res.SessionAfter.AwaitingInput)
	})

	t.Run("Prefix Reply Selects Branch", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		start(t, e)

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "1 - cadastro"})
		require.NoError(t, err)
		require.NotNil(t, res.SessionAfter)
		assert.Equal(t, "email", res.SessionAfter.CurrentNodeID)
	})

	t.Run("Unmatched Reply Self-Loops", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		start(t, e)

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "9"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Não entendi sua resposta. Escolha uma das opções apresentadas."},
			texts(t, res.Actions))
		require.NotNil(t, res.SessionAfter)
		assert.Equal(t, "choice", res.SessionAfter.CurrentNodeID)

		// The session stays put, so the next valid reply still branches.
		res, err = e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "1"})
		require.NoError(t, err)
		require.NotNil(t, res.SessionAfter)
		assert.Equal(t, "email", res.SessionAfter.CurrentNodeID)
	})
}

func TestHandleInputNode(t *testing.T) {
	ctx := context.Background()

	startAtInput := func(t *testing.T, e *testEngine) {
		t.Helper()
		_, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "oi"})
		require.NoError(t, err)
		_, err = e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "1"})
		require.NoError(t, err)
	}

	t.Run("Invalid Reply Re-Prompts Without Advancing", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		startAtInput(t, e)

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "não tenho"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Resposta inválida, por favor tente novamente."}, texts(t, res.Actions))
		require.NotNil(t, res.SessionAfter)
		assert.Equal(t, "email", res.SessionAfter.CurrentNodeID)
		assert.True(t, res.SessionAfter.AwaitingInput)
		assert.Empty(t, res.SessionAfter.Variables)
	})

	t.Run("Valid Reply Captures Variable And Renders It", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		startAtInput(t, e)

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "Ana@Example.COM"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Recebido: ana@example.com", "Até logo!"}, texts(t, res.Actions))

		// The flow ran to its end node, so the session is gone.
		assert.Nil(t, res.SessionAfter)
		_, err = e.sessions.Get(ctx, "c1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Flow Restarts After Completion", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		startAtInput(t, e)

		_, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "ana@example.com"})
		require.NoError(t, err)

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "oi de novo"})
		require.NoError(t, err)
		require.NotNil(t, res.SessionAfter)
		assert.Equal(t, "choice", res.SessionAfter.CurrentNodeID)
		assert.Empty(t, res.SessionAfter.Variables)
	})
}

func TestHandleTransferNode(t *testing.T) {
	ctx := context.Background()

	reachTransfer := func(t *testing.T, e *testEngine) *domain.ExecutionResult {
		t.Helper()
		_, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "oi"})
		require.NoError(t, err)
		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "2"})
		require.NoError(t, err)
		return res
	}

	t.Run("Transfers To Least Loaded Operator", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		e.directory.SetDepartment(
			domain.Department{ID: "vendas", Name: "Vendas", Strategy: domain.StrategyBalanced},
			domain.Operator{ID: "op-1", Name: "Alice", ActiveChats: 3},
			domain.Operator{ID: "op-2", Name: "Bruno", ActiveChats: 1},
		)

		res := reachTransfer(t, e)
		require.Len(t, res.Actions, 1)
		assert.Equal(t, domain.ActionTransferConversation, res.Actions[0].Type)
		payload, ok := res.Actions[0].Payload.(domain.TransferConversation)
		require.True(t, ok)
		assert.Equal(t, "op-2", payload.OperatorID)
		assert.Equal(t, "vendas", payload.Department)

		assert.Nil(t, res.SessionAfter)
		_, err := e.sessions.Get(ctx, "c1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Queues When No Operator Is Available", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		e.directory.SetDepartment(domain.Department{ID: "vendas", Name: "Vendas"})

		res := reachTransfer(t, e)
		require.Len(t, res.Actions, 1)
		assert.Equal(t, domain.ActionQueueConversation, res.Actions[0].Type)
		payload, ok := res.Actions[0].Payload.(domain.QueueConversation)
		require.True(t, ok)
		assert.Equal(t, "ticket-1", payload.TicketID)
		assert.Equal(t, "vendas", payload.Department)
		assert.Nil(t, res.SessionAfter)
	})

	t.Run("Queues When Department Is Unknown", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})

		res := reachTransfer(t, e)
		require.Len(t, res.Actions, 1)
		assert.Equal(t, domain.ActionQueueConversation, res.Actions[0].Type)
	})
}

func TestHandleStepLimit(t *testing.T) {
	ctx := context.Background()

	// trigger -> m1 -> m2 -> m1 loops forever without the bound.
	looping := dsl.New("loop", "Loop").
		Keyword("loop").
		UpdatedAt(testClock).
		Trigger("start", "Início").
		Message("m1", "um").
		Message("m2", "dois").
		Edge("start", "m1").
		Edge("m1", "m2").
		Edge("m2", "m1").
		Definition()

	t.Run("Fresh Session Is Discarded", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{looping}, WithMaxSteps(6))

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "loop"})
		require.NoError(t, err)
		require.NotEmpty(t, res.Actions)
		last := res.Actions[len(res.Actions)-1].Payload.(domain.SendMessage)
		assert.Equal(t, "Desculpe, ocorreu um problema. Tente novamente em instantes.", last.Text)
		assert.Nil(t, res.SessionAfter)

		_, err = e.sessions.Get(ctx, "c1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Existing Session Rolls Back To Stable State", func(t *testing.T) {
		withMenu := dsl.New("loop2", "Loop com menu").
			Keyword("loop").
			UpdatedAt(testClock).
			Trigger("start", "Início").
			Message("menu", "Digite 1.").
			Condition("choice", "Menu", "1").
			Message("m1", "um").
			Message("m2", "dois").
			Edge("start", "menu").
			Edge("menu", "choice").
			LabeledEdge("choice", "m1", "1").
			Edge("m1", "m2").
			Edge("m2", "m1").
			Definition()
		e := newTestEngine(t, []*domain.FlowDefinition{withMenu}, WithMaxSteps(6))

		_, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "loop"})
		require.NoError(t, err)

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "1"})
		require.NoError(t, err)
		require.NotNil(t, res.SessionAfter)
		assert.Equal(t, "choice", res.SessionAfter.CurrentNodeID)
	})
}

func TestHandleDegradedStates(t *testing.T) {
	ctx := context.Background()

	t.Run("Orphaned Session Node Resets The Session", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		require.NoError(t, e.sessions.Save(ctx, domain.NewSession("c1", "support", "removed-node", testClock)))

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "1"})
		require.NoError(t, err)
		assert.Empty(t, res.Actions)
		assert.Nil(t, res.SessionAfter)

		_, err = e.sessions.Get(ctx, "c1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Missing Flow For Stored Session Is An Error", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		require.NoError(t, e.sessions.Save(ctx, domain.NewSession("c1", "deleted-flow", "choice", testClock)))

		_, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "1"})
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("Session Resting On Message Node Re-Executes In Place", func(t *testing.T) {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		require.NoError(t, e.sessions.Save(ctx, domain.NewSession("c1", "support", "menu", testClock)))

		res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "qualquer"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Digite 1 para cadastro ou 2 para falar com vendas."}, texts(t, res.Actions))
		require.NotNil(t, res.SessionAfter)
		assert.Equal(t, "choice", res.SessionAfter.CurrentNodeID)
	})
}

func TestHandleDeterminism(t *testing.T) {
	ctx := context.Background()
	script := []struct{ text string }{
		{"oi"}, {"9"}, {"1"}, {"email inválido"}, {"ana@example.com"},
	}

	run := func(t *testing.T) [][]domain.OutboundAction {
		e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
		var all [][]domain.OutboundAction
		for _, step := range script {
			res, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: step.text})
			require.NoError(t, err)
			all = append(all, res.Actions)
		}
		return all
	}

	assert.Equal(t, run(t), run(t))
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})

	_, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "oi"})
	require.NoError(t, err)

	require.NoError(t, e.interp.EndSession(ctx, "c1"))
	_, err = e.sessions.Get(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Idempotent: a second teardown is silent.
	assert.NoError(t, e.interp.EndSession(ctx, "c1"))
}

func TestHandleSessionStoreFailure(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []*domain.FlowDefinition{supportFlow()})
	failing := &failingStore{SessionStore: e.sessions}
	e.interp.sessions = failing

	_, err := e.interp.Handle(ctx, domain.InboundEvent{ConversationID: "c1", Text: "oi"})
	assert.ErrorIs(t, err, errStoreDown)
}

var errStoreDown = errors.New("store down")

type failingStore struct {
	*memory.SessionStore
}

func (f *failingStore) Save(ctx context.Context, session *domain.Session) error {
	return errStoreDown
}
