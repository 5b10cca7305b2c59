package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouagalab/fasotour/internal/models"
	"github.com/ouagalab/fasotour/pkg/cache"
)

func TestKeyIsStableAndDistinct(t *testing.T) {
	assert.Equal(t, cache.Key("bonjour", 5), cache.Key("bonjour", 5))
	assert.NotEqual(t, cache.Key("bonjour", 5), cache.Key("bonjour", 3))
	assert.NotEqual(t, cache.Key("bonjour", 5), cache.Key("salut", 5))
}

// Round-trip against a live redis; skipped unless TEST_REDIS_ADDR is set.
func TestResponseCacheLive(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	c := cache.New(cache.Config{Addr: addr, TTL: time.Minute})
	defer c.Close()

	ctx := context.Background()
	_, ok := c.Get(ctx, "quelle est la capitale?", 5)
	assert.False(t, ok)

	want := &models.ChatResult{
		Response:   "Ouagadougou est la capitale.",
		Query:      "quelle est la capitale?",
		NumSources: 1,
		Sources:    []models.Source{{Title: "Ouagadougou", Similarity: 0.8}},
	}
	c.Set(ctx, want.Query, 5, want)

	got, ok := c.Get(ctx, want.Query, 5)
	require.True(t, ok)
	assert.Equal(t, want, got)
}
