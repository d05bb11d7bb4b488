package redisstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	defaultLockTTL  = 10 * time.Second
	defaultLockPoll = 25 * time.Millisecond
	defaultPrefix   = "lock:"
	releaseTimeout  = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a lease-based mutex shared by every instance using the same Redis.
// A holder that outlives TTL loses the lock; the storage layer still rejects
// overlapping bookings in that case.
type Locker struct {
	Client *redis.Client
	TTL    time.Duration
	Poll   time.Duration
	Prefix string
	Logger *slog.Logger
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	if l.Client == nil {
		return nil, fmt.Errorf("redis lock %s: client required", key)
	}
	redisKey := l.prefix() + key
	token := uuid.NewString()
	for {
		ok, err := l.Client.SetNX(ctx, redisKey, token, l.ttl()).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if err := l.wait(ctx); err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
	}
	var once sync.Once
	return func() {
		once.Do(func() { l.release(redisKey, token) })
	}, nil
}

func (l *Locker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := releaseScript.Run(ctx, l.Client, []string{redisKey}, token).Err(); err != nil && err != redis.Nil {
		if l.Logger != nil {
			l.Logger.Warn("redis lock release failed", "key", redisKey, "error", err)
		}
	}
}

func (l *Locker) wait(ctx context.Context) error {
	poll := l.Poll
	if poll <= 0 {
		poll = defaultLockPoll
	}
	timer := time.NewTimer(poll)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Locker) ttl() time.Duration {
	if l.TTL <= 0 {
		return defaultLockTTL
	}
	return l.TTL
}

func (l *Locker) prefix() string {
	if l.Prefix == "" {
		return defaultPrefix
	}
	return l.Prefix
}
