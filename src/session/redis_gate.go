package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/veritrust/src/logging"
)

const gatePrefix = "veritrust:pending:"

// releaseScript deletes the key only if this holder still owns it, so a claim that
// expired and was re-acquired elsewhere is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGate shares the pending flag between replicas. Claims expire after ttl so a
// crashed holder cannot block a session forever.
type RedisGate struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisGate(rdb redis.UniversalClient, ttl time.Duration) *RedisGate {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisGate{rdb: rdb, ttl: ttl}
}

func (g *RedisGate) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, gatePrefix+key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("session: redis gate: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.rdb, []string{gatePrefix + key}, token).Err(); err != nil {
			logging.New("session").Warn("redis gate release failed", "session", key, "error", err)
		}
	}, nil
}
