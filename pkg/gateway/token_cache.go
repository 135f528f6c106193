package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// refreshSkew is subtracted from a token's expiry so a token is refreshed
// slightly before the provider would start rejecting it.
const refreshSkew = 30 * time.Second

// TokenCache holds the provider bearer token between calls. An explicit,
// injected collaborator rather than ambient adapter state, so its lifecycle
// (fill on first use, invalidate on 401) is visible and testable.
type TokenCache interface {
	// Get returns the cached token, or ok=false when absent or expired.
	Get(ctx context.Context) (token string, ok bool, err error)

	// Set stores a token until expiresAt (minus a small refresh skew).
	Set(ctx context.Context, token string, expiresAt time.Time) error

	// Invalidate drops the cached token. Called when the provider answers 401.
	Invalidate(ctx context.Context) error
}

type memoryTokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewMemoryTokenCache returns a process-local TokenCache.
func NewMemoryTokenCache() TokenCache {
	return &memoryTokenCache{}
}

func (c *memoryTokenCache) Get(ctx context.Context) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" || !time.Now().Before(c.expiresAt) {
		return "", false, nil
	}
	return c.token, true, nil
}

func (c *memoryTokenCache) Set(ctx context.Context, token string, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.expiresAt = expiresAt.Add(-refreshSkew)
	return nil
}

func (c *memoryTokenCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	return nil
}

// redisTokenCacheKey is shared by all instances of one deployment.
const redisTokenCacheKey = "gateway:provider_token"

type redisTokenCache struct {
	client *redis.Client
}

// NewRedisTokenCache returns a TokenCache shared across instances through
// Redis, so a fleet re-authenticates with the provider once per token
// lifetime instead of once per node.
func NewRedisTokenCache(client *redis.Client) TokenCache {
	return &redisTokenCache{client: client}
}

func (c *redisTokenCache) Get(ctx context.Context) (string, bool, error) {
	token, err := c.client.Get(ctx, redisTokenCacheKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, token != "", nil
}

func (c *redisTokenCache) Set(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt.Add(-refreshSkew))
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, redisTokenCacheKey, token, ttl).Err()
}

func (c *redisTokenCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, redisTokenCacheKey).Err()
}
