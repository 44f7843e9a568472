package eventcache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "archstore:webhook-event:"

// Cache remembers processed provider events. It is an optimization in front of
// the conditional order updates, not a correctness guarantee.
type Cache interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Remember(ctx context.Context, eventID string) error
}

type redisAPI interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisCache stores event ids with a TTL.
type RedisCache struct {
	client redisAPI
	ttl    time.Duration
}

// NewRedisCache connects lazily to the given address.
func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		ttl:    ttl,
	}
}

func (c *RedisCache) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := c.client.Exists(ctx, Key(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("lookup event %s: %w", eventID, err)
	}
	return n > 0, nil
}

func (c *RedisCache) Remember(ctx context.Context, eventID string) error {
	if err := c.client.SetNX(ctx, Key(eventID), time.Now().UTC().Format(time.RFC3339), c.ttl).Err(); err != nil {
		return fmt.Errorf("remember event %s: %w", eventID, err)
	}
	return nil
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Key returns the redis key of an event id.
func Key(eventID string) string {
	return keyPrefix + eventID
}

// Noop never reports an event as seen.
type Noop struct{}

func (Noop) Seen(context.Context, string) (bool, error) { return false, nil }
func (Noop) Remember(context.Context, string) error     { return nil }
