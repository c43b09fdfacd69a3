// Package redislock provides short-lived mutual exclusion keyed by string,
// held in Redis.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"claim-assistant/internal/logger"
)

const defaultTTL = 60 * time.Second

// releaseScript deletes the key only while it still carries our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

type redisAPI interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *goredis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *goredis.Cmd
}

type Locker struct {
	rdb    redisAPI
	ttl    time.Duration
	log    *logger.Logger
	closer func() error
}

var newToken = func() string { return uuid.NewString() }

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string, ttl time.Duration, log *logger.Logger) (*Locker, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redislock: missing address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redislock: ping: %w", err)
	}
	l, err := New(rdb, ttl, log)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	l.closer = rdb.Close
	return l, nil
}

func New(rdb redisAPI, ttl time.Duration, log *logger.Logger) (*Locker, error) {
	if rdb == nil {
		return nil, errors.New("redislock: client must not be nil")
	}
	if log == nil {
		return nil, errors.New("redislock: logger must not be nil")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Locker{rdb: rdb, ttl: ttl, log: log.With("service", "RedisLocker")}, nil
}

// Acquire takes key for the lock TTL. ok is false when someone else holds
// it. The returned release is safe to call after the TTL has lapsed.
func (l *Locker) Acquire(ctx context.Context, key string) (func(context.Context), bool, error) {
	token := newToken()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redislock: setnx %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) {
		if err := l.rdb.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
			l.log.Warn("lock release failed", "key", key, "err", err)
		}
	}
	return release, true, nil
}

// Close shuts the connection opened by Dial. It is a no-op for lockers built
// with New.
func (l *Locker) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer()
}
