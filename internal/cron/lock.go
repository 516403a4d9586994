package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/tillcore-backend/pkg/instance"
)

const defaultLockTTL = 4 * time.Minute

// ReleaseFunc gives back a lock obtained from Acquire.
type ReleaseFunc func(ctx context.Context) error

// Lock keeps two workers from running the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (ReleaseFunc, bool, error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// RedisLock is a SETNX lease whose value names the holder. The TTL bounds
// how long a crashed worker can hold the cycle.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
}

func NewRedisLock(store lockStore, name string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if name == "" {
		return nil, errors.New("lock name is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: store.LockKey(name), ttl: ttl}, nil
}

func (l *RedisLock) Key() string { return l.key }

// Acquire returns ok=false without error when another holder owns the key.
func (l *RedisLock) Acquire(ctx context.Context) (ReleaseFunc, bool, error) {
	holder := instance.ID() + "/" + uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, holder, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) error {
		return l.release(ctx, holder)
	}, true, nil
}

// release deletes the key only while it still carries this holder's value;
// an expired lease taken over by another worker is left alone.
func (l *RedisLock) release(ctx context.Context, holder string) error {
	current, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock holder: %w", err)
	}
	if current != holder {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}
