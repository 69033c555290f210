package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is returned when a lock could not be acquired within the
	// configured wait.
	ErrTimeout = errors.New("lock wait timed out")
	// ErrNotHeld is returned when releasing a lock that is no longer owned
	// by the lease, e.g. because its TTL expired.
	ErrNotHeld = errors.New("lock not held")
	// ErrLost is the cause of the context With passes to fn once the
	// lease could not be kept alive.
	ErrLost = errors.New("lock lost")
	// ErrUnlock wraps a release failure after fn succeeded.
	ErrUnlock = errors.New("failed to unlock")
)

// Locker hands out exclusive leases on keys.
type Locker interface {
	Acquire(ctx context.Context, key string) (Lease, error)
}

// Lease is one held lock.
type Lease interface {
	Key() string
	Release(ctx context.Context) error
	// Lost is closed when the lock expired or was taken over while held.
	// Leases that cannot be lost return nil.
	Lost() <-chan struct{}
}

// DefaultWait is the bounded wait used when none is configured.
const DefaultWait = 30 * time.Second

// With runs fn while holding the lock on key. The lock is released on
// every exit path, including panics in fn. When the lease is lost, the
// context passed to fn is cancelled with a cause wrapping ErrLost. A
// release failure is returned, wrapped in ErrUnlock, only when fn itself
// succeeded.
func With(ctx context.Context, l Locker, key string, fn func(ctx context.Context) error) (err error) {
	lease, err := l.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", key, err)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})

	go func() {
		select {
		case <-lease.Lost():
			cancel(fmt.Errorf("%w: %s", ErrLost, key))
		case <-done:
		}
	}()

	defer func() {
		close(done)
		cancel(nil)

		// Release must not be skipped because the caller's context ended.
		rerr := lease.Release(context.WithoutCancel(ctx))
		if rerr != nil && err == nil {
			err = fmt.Errorf("%w %s: %w", ErrUnlock, key, rerr)
		}
	}()

	return fn(ctx)
}
