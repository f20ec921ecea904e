// Package lock implements core/lock.Locker on Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	corelock "stockgate/internal/core/lock"
)

// RedisLocker obtains short-lived locks shared by every instance using the
// same Redis.
type RedisLocker struct {
	client *redislock.Client
	prefix string
}

var _ corelock.Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker. Keys are namespaced with prefix.
func NewRedisLocker(rdb redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), prefix: prefix}
}

// Obtain tries once; a held key fails with corelock.ErrNotObtained.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (corelock.Lock, error) {
	lk, err := l.client.Obtain(ctx, l.prefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, corelock.ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return &redisLock{lock: lk}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

// Release drops the lock. A lock that already expired is not an error.
func (l *redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}
