package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/intake/pkg/ports"
)

// Deletes the lock key only if it still holds our token, so an expired
// lock reacquired by another replica is never released by us.
var unlockScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Locker implements ports.DistributedLocker using Redis SET NX.
type Locker struct {
	client       *backend.Client
	prefix       string
	retryDelay   time.Duration
	acquireLimit time.Duration
}

// LockerOption configures the Locker.
type LockerOption func(*Locker)

// WithRetryDelay sets the polling interval while waiting for a held lock.
func WithRetryDelay(d time.Duration) LockerOption {
	return func(l *Locker) {
		l.retryDelay = d
	}
}

// WithAcquireTimeout bounds how long Lock waits before giving up.
func WithAcquireTimeout(d time.Duration) LockerOption {
	return func(l *Locker) {
		l.acquireLimit = d
	}
}

// NewLocker creates a distributed locker on an existing client.
func NewLocker(client *backend.Client, opts ...LockerOption) *Locker {
	l := &Locker{
		client:       client,
		prefix:       "intake:lock:",
		retryDelay:   50 * time.Millisecond,
		acquireLimit: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock acquires the named lock, polling until it is free or the
// acquire timeout elapses. The returned function releases the lock.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	deadline := time.Now().Add(l.acquireLimit)
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %q: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out acquiring lock %q", key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}

	unlock := func(ctx context.Context) error {
		if ctx.Err() != nil {
			// Unlock must still run when the caller's context is done.
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
		}
		if err := unlockScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %q: %w", key, err)
		}
		return nil
	}
	return unlock, nil
}

var _ ports.DistributedLocker = (*Locker)(nil)
