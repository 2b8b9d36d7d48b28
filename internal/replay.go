package internal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const replayKeyPrefix = "redsys:notify:"

// RedisReplayGuard claims notification payload keys with SETNX so a payload
// re-delivered by the gateway is recognised without touching the database.
type RedisReplayGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReplayGuard(client *redis.Client, ttl time.Duration) *RedisReplayGuard {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisReplayGuard{client: client, ttl: ttl}
}

func (g *RedisReplayGuard) Claim(ctx context.Context, key string) (bool, error) {
	if g.client == nil {
		return false, errors.New("replay guard: redis client not configured")
	}
	return g.client.SetNX(ctx, replayKeyPrefix+key, time.Now().Unix(), g.ttl).Result()
}

func (g *RedisReplayGuard) Release(ctx context.Context, key string) error {
	if g.client == nil {
		return nil
	}
	return g.client.Del(ctx, replayKeyPrefix+key).Err()
}

// replayKey identifies one exact notification payload.
func replayKey(parameters, signature string) string {
	sum := sha256.Sum256([]byte(parameters + "." + signature))
	return hex.EncodeToString(sum[:])
}
