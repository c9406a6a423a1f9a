package domain

// Distribution strategy names for picking an operator within a department.
const (
	// StrategyBalanced picks the operator with the fewest active conversations,
	// ties broken by operator ID.
	StrategyBalanced = "balanced"
	// StrategySequential rotates through operators with a persisted per-department cursor.
	StrategySequential = "sequential"
	// StrategyRandom picks uniformly. Seedable for test determinism.
	StrategyRandom = "random"
)

// Operator is a human agent that can receive transferred conversations.
type Operator struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ActiveChats int    `json:"activeChats"`
}

// Department groups operators and carries the distribution strategy used
// when a transfer node fires into it.
type Department struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
}
