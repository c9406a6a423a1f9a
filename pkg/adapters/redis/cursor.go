package redis

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// CursorStore implements ports.CursorStore on Redis INCR, so the sequential
// distribution cursor is atomic across replicas and survives restarts.
type CursorStore struct {
	client *backend.Client
	prefix string
}

// NewCursorStore creates a Redis-backed cursor store.
func NewCursorStore(client *backend.Client, prefix string) *CursorStore {
	return &CursorStore{client: client, prefix: prefix}
}

// Next atomically advances and returns the department's cursor.
func (c *CursorStore) Next(ctx context.Context, departmentID string) (uint64, error) {
	n, err := c.client.Incr(ctx, c.prefix+"cursor:"+departmentID).Result()
	if err != nil {
		return 0, fmt.Errorf("redis error advancing cursor: %w", err)
	}
	return uint64(n), nil
}
