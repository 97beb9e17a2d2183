// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/habitmoney/habit-ledger/internal/config"
)

// Redis backs idempotency keys and the shared rate limiter. Neither is
// required for the ledger to record completions.
type Redis struct {
	Client *redis.Client
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.ConnMaxIdleTime = 5 * time.Minute

	r := &Redis{Client: redis.NewClient(opts)}

	if err := awaitReady(ctx, dialPolicy, pingTimeout, r.ping); err != nil {
		_ = r.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("redis not reachable: %w", err)
	}

	return r, nil
}

func (r *Redis) ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := r.ping(ctx); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

// KeyClaimer records one-shot request keys in Redis.
type KeyClaimer struct {
	client redis.Cmdable
	prefix string
}

func NewKeyClaimer(client redis.Cmdable, prefix string) *KeyClaimer {
	return &KeyClaimer{client: client, prefix: prefix}
}

// Claim returns true the first time key is seen within ttl.
func (c *KeyClaimer) Claim(
	ctx context.Context,
	key string,
	ttl time.Duration,
) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.prefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim key: %w", err)
	}
	return ok, nil
}

func (c *KeyClaimer) Release(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("release key: %w", err)
	}
	return nil
}
