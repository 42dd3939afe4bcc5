package holds

import (
	"context"
	"fmt"
	"time"

	"seatengine/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SweepLock elects one sweeper across instances
type SweepLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Lua script taking the lock only when it is free
const luaAcquireLock = `
-- KEYS[1] = lock key
-- ARGV[1] = owner token
-- ARGV[2] = ttl in milliseconds
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
    return 1
end
if redis.call("GET", KEYS[1]) == ARGV[1] then
    redis.call("PEXPIRE", KEYS[1], ARGV[2])
    return 1
end
return 0
`

// Lua script deleting the lock only for its owner
const luaReleaseLock = `
-- KEYS[1] = lock key
-- ARGV[1] = owner token
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	acquireLockScript = redis.NewScript(luaAcquireLock)
	releaseLockScript = redis.NewScript(luaReleaseLock)
)

// RedisSweepLock is a token-owned Redis lock. An instance that still holds
// the lock renews it on the next Acquire.
type RedisSweepLock struct {
	redis *redis.Client
	key   string
	token string
	ttl   time.Duration
}

func NewRedisSweepLock(client *redis.Client, ttl time.Duration) *RedisSweepLock {
	return &RedisSweepLock{
		redis: client,
		key:   constants.LOCK_KEY_HOLD_SWEEP,
		token: uuid.NewString(),
		ttl:   ttl,
	}
}

func (l *RedisSweepLock) Acquire(ctx context.Context) (bool, error) {
	res, err := acquireLockScript.Run(ctx, l.redis, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	return res == 1, nil
}

func (l *RedisSweepLock) Release(ctx context.Context) error {
	if err := releaseLockScript.Run(ctx, l.redis, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release sweep lock: %w", err)
	}
	return nil
}

// PreloadScripts loads the lock scripts so the first sweep uses EVALSHA
func (l *RedisSweepLock) PreloadScripts(ctx context.Context) error {
	if err := acquireLockScript.Load(ctx, l.redis).Err(); err != nil {
		return fmt.Errorf("failed to load acquire script: %w", err)
	}
	if err := releaseLockScript.Load(ctx, l.redis).Err(); err != nil {
		return fmt.Errorf("failed to load release script: %w", err)
	}
	return nil
}

// localLock is used when Redis is disabled; a single instance always sweeps
type localLock struct{}

func (localLock) Acquire(context.Context) (bool, error) { return true, nil }
func (localLock) Release(context.Context) error         { return nil }
