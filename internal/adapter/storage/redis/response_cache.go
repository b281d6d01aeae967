package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ResponseCache implements ports.ResponseCache using Redis. It shadows
// completed idempotency responses so replays skip the database read; entries
// are written only after the backing row is committed.
type ResponseCache struct {
	client *goredis.Client
	prefix string
}

// NewResponseCache creates a new Redis-backed response cache.
func NewResponseCache(client *goredis.Client) *ResponseCache {
	return &ResponseCache{
		client: client,
		prefix: "idempotency:",
	}
}

// Get retrieves a cached response by idempotency key.
// Returns nil, nil if the key does not exist.
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis response get: %w", err)
	}
	return val, nil
}

// Set stores a completed response with TTL.
func (c *ResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis response set: %w", err)
	}
	return nil
}
