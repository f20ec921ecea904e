// Package lock defines short-lived named locks shared between instances.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotObtained is returned when the lock is held by someone else.
var ErrNotObtained = errors.New("lock not obtained")

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains named locks that expire after ttl.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Local is a Locker that always succeeds; used when no shared store is configured.
type Local struct{}

type noopLock struct{}

func (noopLock) Release(context.Context) error { return nil }

// Obtain implements Locker.
func (Local) Obtain(context.Context, string, time.Duration) (Lock, error) {
	return noopLock{}, nil
}
