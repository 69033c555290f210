package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryLocker is an in-process Locker.
type MemoryLocker struct {
	wait time.Duration

	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewMemoryLocker creates a MemoryLocker that waits at most wait for a
// held key. A zero wait uses DefaultWait.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	if wait <= 0 {
		wait = DefaultWait
	}

	return &MemoryLocker{wait: wait, held: make(map[string]chan struct{})}
}

// Acquire implements Locker.
func (l *MemoryLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	for {
		l.mu.Lock()

		released, busy := l.held[key]
		if !busy {
			ch := make(chan struct{})
			l.held[key] = ch
			l.mu.Unlock()

			return &memoryLease{locker: l, key: key, ch: ch}, nil
		}

		l.mu.Unlock()

		select {
		case <-released:
		case <-timer.C:
			return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, key, l.wait)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Held reports whether key is currently locked.
func (l *MemoryLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.held[key]

	return ok
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	ch     chan struct{}
}

func (m *memoryLease) Key() string {
	return m.key
}

// Lost returns nil: an in-process lock is held until released.
func (m *memoryLease) Lost() <-chan struct{} {
	return nil
}

func (m *memoryLease) Release(_ context.Context) error {
	l := m.locker

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[m.key] != m.ch {
		return fmt.Errorf("%w: %s", ErrNotHeld, m.key)
	}

	delete(l.held, m.key)
	close(m.ch)

	return nil
}
