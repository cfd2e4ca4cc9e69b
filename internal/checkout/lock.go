package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultLockWait  = 5 * time.Second
	lockPollInterval = 25 * time.Millisecond
)

// ErrLockUnavailable is returned when the settlement lock could not be
// obtained within the wait budget.
var ErrLockUnavailable = errors.New("settlement lock unavailable")

// Locker serializes the validate-to-commit window across settlements.
// The returned release func is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// LocalLock serializes settlements inside a single process.
type LocalLock struct {
	ch chan struct{}
}

func NewLocalLock() *LocalLock {
	return &LocalLock{ch: make(chan struct{}, 1)}
}

func (l *LocalLock) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return sync.OnceFunc(func() { <-l.ch }), nil
}

// redisStore defines the operations used by RedisLock.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, owner string) (bool, error)
}

// RedisLock serializes settlements across API replicas using SETNX + TTL.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLock constructs a Redis-backed settlement lock.
func NewRedisLock(client redisStore, key string, ttl, wait time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &RedisLock{client: client, key: key, ttl: ttl, wait: wait}, nil
}

// Acquire polls until the lock is owned, the wait budget runs out or ctx ends.
func (l *RedisLock) Acquire(ctx context.Context) (func(), error) {
	owner := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("setnx: %w", err)
		}
		if ok {
			return sync.OnceFunc(func() { l.release(owner) }), nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockUnavailable
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// release frees the lock only if the owner value still matches. It runs
// detached from the request context so a cancelled caller still unlocks.
func (l *RedisLock) release(owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// false means the TTL expired and someone else may hold the key now.
	_, _ = l.client.ReleaseLock(ctx, l.key, owner)
}

// ChainLock acquires each lock in order and releases them in reverse.
type ChainLock []Locker

func (c ChainLock) Acquire(ctx context.Context) (func(), error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, l := range c {
		release, err := l.Acquire(ctx)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return sync.OnceFunc(releaseAll), nil
}
