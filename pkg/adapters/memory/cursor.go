package memory

import (
	"context"
	"sync"
)

// CursorStore implements ports.CursorStore with in-process counters.
type CursorStore struct {
	mu      sync.Mutex
	cursors map[string]uint64
}

// NewCursorStore creates a cursor store with all cursors at zero.
func NewCursorStore() *CursorStore {
	return &CursorStore{cursors: make(map[string]uint64)}
}

// Next atomically advances and returns the department's cursor.
func (c *CursorStore) Next(ctx context.Context, departmentID string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursors[departmentID]++
	return c.cursors[departmentID], nil
}
