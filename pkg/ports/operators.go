package ports

import (
	"context"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// OperatorDirectory exposes department configuration and operator availability.
// Implemented by the surrounding system (presence, max-concurrent-chat limits).
type OperatorDirectory interface {
	// Department resolves a department by ID, including its distribution strategy.
	Department(ctx context.Context, departmentID string) (*domain.Department, error)

	// ListAvailable returns operators in the department that can take a new
	// conversation (online and below their concurrency threshold). An empty
	// slice is a normal outcome, handled by queueing.
	ListAvailable(ctx context.Context, departmentID string) ([]domain.Operator, error)
}

// CursorStore holds the persisted round-robin cursor used by the sequential
// distribution strategy. Next must be atomic across concurrent transfers.
type CursorStore interface {
	// Next advances the cursor for a department and returns its new value.
	// The first call for a department returns 1.
	Next(ctx context.Context, departmentID string) (uint64, error)
}
