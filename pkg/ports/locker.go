package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates access to a session across replicas, so two
// instances never mutate the same current document at once.
type DistributedLocker interface {
	// Lock blocks until the lock for key (a session ID) is held, ctx is done,
	// or acquisition gives up. The returned UnlockFunc MUST be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
