// Package cache is an optional redis-backed cache for chat results, keyed
// by query and topK. A miss or a redis error just means recomputing the
// answer; the cache is never load-bearing.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ouagalab/fasotour/internal/models"
)

type Config struct {
	Addr string
	TTL  time.Duration
}

type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(config Config) *ResponseCache {
	if config.TTL == 0 {
		config.TTL = 5 * time.Minute
	}
	return &ResponseCache{
		client: redis.NewClient(&redis.Options{Addr: config.Addr}),
		ttl:    config.TTL,
	}
}

// Key builds the cache key for a query/topK pair.
func Key(query string, topK int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%d|%s", topK, query)))
	return "fasotour:chat:" + hex.EncodeToString(sum[:])
}

// Get returns the cached result for the query, or false on miss or error.
func (c *ResponseCache) Get(ctx context.Context, query string, topK int) (*models.ChatResult, bool) {
	data, err := c.client.Get(ctx, Key(query, topK)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("cache read failed", "error", err)
		}
		return nil, false
	}

	var result models.ChatResult
	if err := json.Unmarshal(data, &result); err != nil {
		slog.Warn("cache entry corrupt, ignoring", "error", err)
		return nil, false
	}
	return &result, true
}

// Set stores the result with the configured TTL; failures are logged only.
func (c *ResponseCache) Set(ctx context.Context, query string, topK int, result *models.ChatResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, Key(query, topK), data, c.ttl).Err(); err != nil {
		slog.Warn("cache write failed", "error", err)
	}
}

func (c *ResponseCache) Close() error {
	return c.client.Close()
}
