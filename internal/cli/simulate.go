package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/enderxdxd/botflow"
	"github.com/enderxdxd/botflow/internal/logging"
	"github.com/enderxdxd/botflow/pkg/adapters/file"
	"github.com/enderxdxd/botflow/pkg/adapters/memory"
	"github.com/enderxdxd/botflow/pkg/domain"
	"github.com/enderxdxd/botflow/pkg/flow"
)

// Simulate runs a single flow file as an interactive stdin/stdout chat,
// so authors can walk their flow before exporting it to production.
func Simulate(flowPath string) error {
	def, err := file.Load(flowPath)
	if err != nil {
		return err
	}
	def.IsActive = true

	if _, err := flow.Compile(def); err != nil {
		return err
	}

	directory := memory.NewOperatorDirectory()
	directory.SetDepartment(
		domain.Department{ID: "simulado", Name: "Simulado", Strategy: domain.StrategyBalanced},
		domain.Operator{ID: "op-simulado", Name: "Operador Simulado"},
	)

	engine := botflow.New(
		memory.NewFlowRepository(def),
		memory.NewSessionStore(),
		directory,
		botflow.WithLogger(logging.NewNop()),
	)

	fmt.Printf("--- simulating flow %q (Ctrl-D to quit) ---\n", def.Name)

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		result, err := engine.HandleMessage(ctx, domain.InboundEvent{
			ConversationID: "simulate",
			Text:           text,
		})
		if err != nil {
			return err
		}

		if len(result.Actions) == 0 && result.SessionAfter == nil {
			fmt.Println("(no flow triggered)")
			continue
		}
		for _, action := range result.Actions {
			printAction(action)
		}
		if result.SessionAfter == nil {
			fmt.Println("--- conversation closed, next message restarts matching ---")
		}
	}
}

func printAction(action domain.OutboundAction) {
	switch payload := action.Payload.(type) {
	case domain.SendMessage:
		fmt.Printf("bot: %s\n", payload.Text)
	case domain.TransferConversation:
		fmt.Printf("[transferred to operator %s, department %s]\n", payload.OperatorID, payload.Department)
	case domain.QueueConversation:
		fmt.Printf("[queued in department %s, ticket %s]\n", payload.Department, payload.TicketID)
	default:
		fmt.Printf("[%s] %v\n", action.Type, action.Payload)
	}
}
