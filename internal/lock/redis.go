package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisLocker.
type RedisOptions struct {
	// URL is the Redis connection URL (redis://host:port/db).
	URL string
	// Prefix is prepended to every lock key.
	Prefix string
	// TTL bounds how long a lock survives a crashed holder. Held locks
	// are refreshed every Refresh, a third of TTL by default.
	TTL     time.Duration
	Refresh time.Duration
	// Wait bounds how long Acquire waits for a held lock.
	Wait time.Duration
	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration
}

// RedisLocker is a Locker backed by Redis. Locks are SET NX keys holding
// a random token; only the holder of the token can release them.
type RedisLocker struct {
	client *redis.Client
	opts   RedisOptions
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

var refreshScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

var errBusy = errors.New("lock busy")

// NewRedisLocker connects to Redis and verifies the connection.
func NewRedisLocker(opts RedisOptions) (*RedisLocker, error) {
	if opts.TTL == 0 {
		opts.TTL = 5 * time.Minute
	}

	if opts.Refresh <= 0 || opts.Refresh >= opts.TTL {
		opts.Refresh = opts.TTL / 3
	}

	if opts.Wait == 0 {
		opts.Wait = DefaultWait
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLocker{client: client, opts: opts}, nil
}

// Close closes the Redis connection.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

// Acquire implements Locker. It retries with exponential backoff until
// the lock is free, the wait elapses or ctx ends.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	k := l.opts.Prefix + key
	token := uuid.NewString()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = l.opts.Wait

	op := func() error {
		ok, err := l.client.SetNX(ctx, k, token, l.opts.TTL).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to set lock %s: %w", k, err))
		}

		if !ok {
			return errBusy
		}

		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(b, ctx))
	switch {
	case err == nil:
		lease := &redisLease{
			locker:   l,
			key:      key,
			redisKey: k,
			token:    token,
			lost:     make(chan struct{}),
			stop:     make(chan struct{}),
			done:     make(chan struct{}),
		}
		go lease.keepAlive()

		return lease, nil
	case errors.Is(err, errBusy):
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, key, l.opts.Wait)
	default:
		return nil, err
	}
}

type redisLease struct {
	locker   *RedisLocker
	key      string
	redisKey string
	token    string

	lost     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (r *redisLease) Key() string {
	return r.key
}

func (r *redisLease) Lost() <-chan struct{} {
	return r.lost
}

// keepAlive extends the TTL of the lock while it is held. The lease is
// lost when the key no longer holds the token, or when no refresh
// succeeded for a whole TTL.
func (r *redisLease) keepAlive() {
	defer close(r.done)

	opts := r.locker.opts

	ticker := time.NewTicker(opts.Refresh)
	defer ticker.Stop()

	last := time.Now()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), opts.Refresh)
		n, err := refreshScript.Run(ctx, r.locker.client, []string{r.redisKey}, r.token, opts.TTL.Milliseconds()).Int()
		cancel()

		switch {
		case err == nil && n == 1:
			last = time.Now()
		case err == nil, time.Since(last) >= opts.TTL:
			close(r.lost)

			return
		}
	}
}

func (r *redisLease) Release(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done

	n, err := releaseScript.Run(ctx, r.locker.client, []string{r.redisKey}, r.token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", r.redisKey, err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotHeld, r.key)
	}

	return nil
}
