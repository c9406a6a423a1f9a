package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates conversation access across replicas, so the
// at-most-one-handle-in-flight-per-conversation contract holds under
// horizontal scaling.
type DistributedLocker interface {
	// Lock acquires a distributed lock for the given key (a conversation ID).
	// It blocks until the lock is acquired or the context is canceled.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
