// Package distribute picks the human operator that receives a transferred
// conversation, according to the department's distribution strategy.
package distribute

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/enderxdxd/botflow/pkg/domain"
	"github.com/enderxdxd/botflow/pkg/ports"
)

// Picker selects an operator among the available ones. Safe for concurrent
// use; the sequential cursor lives in a CursorStore so rotation survives
// restarts and is shared across replicas.
type Picker struct {
	cursor ports.CursorStore

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures the Picker.
type Option func(*Picker)

// WithSeed fixes the random source, making the random strategy deterministic
// for tests.
func WithSeed(seed uint64) Option {
	return func(p *Picker) {
		p.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// NewPicker creates a Picker backed by the given cursor store.
func NewPicker(cursor ports.CursorStore, opts ...Option) *Picker {
	p := &Picker{
		cursor: cursor,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pick returns the chosen operator's ID, or "" when no operator is available.
// An empty pick is not an error: the interpreter queues the conversation.
func (p *Picker) Pick(ctx context.Context, departmentID string, operators []domain.Operator, strategy string) (string, error) {
	if len(operators) == 0 {
		return "", nil
	}

	switch strategy {
	case domain.StrategyBalanced, "":
		return pickBalanced(operators), nil
	case domain.StrategySequential:
		return p.pickSequential(ctx, departmentID, operators)
	case domain.StrategyRandom:
		return p.pickRandom(operators), nil
	default:
		return "", fmt.Errorf("unknown distribution strategy %q", strategy)
	}
}

// pickBalanced chooses the operator with the fewest active conversations,
// ties broken by operator ID for determinism.
func pickBalanced(operators []domain.Operator) string {
	best := operators[0]
	for _, op := range operators[1:] {
		if op.ActiveChats < best.ActiveChats ||
			(op.ActiveChats == best.ActiveChats && op.ID < best.ID) {
			best = op
		}
	}
	return best.ID
}

// pickSequential rotates through the department's operators using the
// persisted cursor. Operators are sorted by ID so the rotation order does not
// depend on how the directory happens to return them.
func (p *Picker) pickSequential(ctx context.Context, departmentID string, operators []domain.Operator) (string, error) {
	n, err := p.cursor.Next(ctx, departmentID)
	if err != nil {
		return "", fmt.Errorf("advancing cursor for department %q: %w", departmentID, err)
	}

	sorted := make([]domain.Operator, len(operators))
	copy(sorted, operators)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	return sorted[int((n-1)%uint64(len(sorted)))].ID, nil
}

func (p *Picker) pickRandom(operators []domain.Operator) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return operators[p.rng.IntN(len(operators))].ID
}
