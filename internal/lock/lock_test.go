package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	return newRefreshingLocker(t, wait, 0)
}

func newRefreshingLocker(t *testing.T, wait, refresh time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	l, err := NewRedisLocker(RedisOptions{
		URL:     fmt.Sprintf("redis://%s", mr.Addr()),
		Prefix:  "content-mover:lock:",
		TTL:     time.Minute,
		Refresh: refresh,
		Wait:    wait,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		l.Close()
	})

	return l, mr
}

func lockers(t *testing.T, wait time.Duration) map[string]Locker {
	t.Helper()

	rl, _ := newRedisLocker(t, wait)

	return map[string]Locker{
		"memory": NewMemoryLocker(wait),
		"redis":  rl,
	}
}

func TestLocker_ExclusiveAndTimeout(t *testing.T) {
	for name, l := range lockers(t, 100*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			lease, err := l.Acquire(ctx, "Application:312")
			require.NoError(t, err)
			assert.Equal(t, "Application:312", lease.Key())

			_, err = l.Acquire(ctx, "Application:312")
			require.ErrorIs(t, err, ErrTimeout)

			other, err := l.Acquire(ctx, "Application:313")
			require.NoError(t, err, "distinct keys do not contend")
			require.NoError(t, other.Release(ctx))

			require.NoError(t, lease.Release(ctx))
			require.ErrorIs(t, lease.Release(ctx), ErrNotHeld)

			again, err := l.Acquire(ctx, "Application:312")
			require.NoError(t, err)
			require.NoError(t, again.Release(ctx))
		})
	}
}

func TestLocker_WaitsForRelease(t *testing.T) {
	for name, l := range lockers(t, 5*time.Second) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			lease, err := l.Acquire(ctx, "Slot:503")
			require.NoError(t, err)

			go func() {
				time.Sleep(50 * time.Millisecond)
				_ = lease.Release(ctx)
			}()

			next, err := l.Acquire(ctx, "Slot:503")
			require.NoError(t, err)
			require.NoError(t, next.Release(ctx))
		})
	}
}

func TestWith_ReleasesOnEveryPath(t *testing.T) {
	for name, l := range lockers(t, 100*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			boom := errors.New("boom")

			err := With(ctx, l, "Template:11", func(context.Context) error { return boom })
			require.ErrorIs(t, err, boom)

			assert.Panics(t, func() {
				_ = With(ctx, l, "Template:11", func(context.Context) error { panic("install crashed") })
			})

			ran := false
			require.NoError(t, With(ctx, l, "Template:11", func(context.Context) error {
				ran = true

				return nil
			}))
			assert.True(t, ran)
		})
	}
}

func TestWith_SerializesHolders(t *testing.T) {
	l := NewMemoryLocker(5 * time.Second)

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := With(context.Background(), l, "Workflow:5", func(context.Context) error {
				n := inside.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}

				time.Sleep(5 * time.Millisecond)
				inside.Add(-1)

				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
	assert.False(t, l.Held("Workflow:5"))
}

func TestMemoryLocker_ContextCancelled(t *testing.T) {
	l := NewMemoryLocker(time.Minute)

	lease, err := l.Acquire(context.Background(), "Role:Admin")
	require.NoError(t, err)
	defer lease.Release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Acquire(ctx, "Role:Admin")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRedisLocker_ExpiredLeaseIsNotHeld(t *testing.T) {
	l, mr := newRedisLocker(t, 100*time.Millisecond)
	ctx := context.Background()

	lease, err := l.Acquire(ctx, "Community:42")
	require.NoError(t, err)
	assert.True(t, mr.Exists("content-mover:lock:Community:42"))

	mr.FastForward(2 * time.Minute)

	other, err := l.Acquire(ctx, "Community:42")
	require.NoError(t, err)

	require.ErrorIs(t, lease.Release(ctx), ErrNotHeld, "a stale lease must not free the new holder")
	assert.True(t, mr.Exists("content-mover:lock:Community:42"))

	require.NoError(t, other.Release(ctx))
	assert.False(t, mr.Exists("content-mover:lock:Community:42"))
}

func TestNewRedisLocker_Errors(t *testing.T) {
	_, err := NewRedisLocker(RedisOptions{URL: "not-a-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")

	_, err = NewRedisLocker(RedisOptions{URL: "redis://127.0.0.1:1", ConnectTimeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestRedisLocker_RefreshesHeldLock(t *testing.T) {
	l, mr := newRefreshingLocker(t, 100*time.Millisecond, 20*time.Millisecond)
	ctx := context.Background()
	key := "content-mover:lock:Community:42"

	lease, err := l.Acquire(ctx, "Community:42")
	require.NoError(t, err)

	mr.FastForward(50 * time.Second)
	require.Less(t, mr.TTL(key), 15*time.Second)

	assert.Eventually(t, func() bool {
		return mr.TTL(key) > 30*time.Second
	}, 2*time.Second, 10*time.Millisecond)

	// Well past the original TTL the lock is still ours.
	mr.FastForward(50 * time.Second)

	_, err = l.Acquire(ctx, "Community:42")
	require.ErrorIs(t, err, ErrTimeout)

	select {
	case <-lease.Lost():
		t.Fatal("refreshed lease reported lost")
	default:
	}

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists(key))
}

func TestWith_LostLeaseCancelsContext(t *testing.T) {
	l, mr := newRefreshingLocker(t, 100*time.Millisecond, 20*time.Millisecond)
	key := "content-mover:lock:Slot:503"

	err := With(context.Background(), l, "Slot:503", func(ctx context.Context) error {
		// Another holder took the key over.
		require.NoError(t, mr.Set(key, "someone-else"))

		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-time.After(2 * time.Second):
			return errors.New("lease loss not noticed")
		}
	})
	require.ErrorIs(t, err, ErrLost)
	assert.NotErrorIs(t, err, ErrUnlock, "a release failure must not mask the cause")

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestWith_ReleaseFailureAfterSuccess(t *testing.T) {
	l, mr := newRedisLocker(t, 100*time.Millisecond)

	err := With(context.Background(), l, "Slot:503", func(context.Context) error {
		mr.Del("content-mover:lock:Slot:503")

		return nil
	})
	require.ErrorIs(t, err, ErrUnlock)
	require.ErrorIs(t, err, ErrNotHeld)
}

func TestMemoryLease_NeverLost(t *testing.T) {
	lease, err := NewMemoryLocker(time.Second).Acquire(context.Background(), "Role:Admin")
	require.NoError(t, err)
	assert.Nil(t, lease.Lost())
	require.NoError(t, lease.Release(context.Background()))
}
