package cache

import (
	"context"
	"testing"
	"time"

	llmpkg "github.com/modelflow-ai/modelflow/llm"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRequest(content string) *llmpkg.ChatRequest {
	return &llmpkg.ChatRequest{
		Model: "anthropic/claude-3.5-sonnet",
		Messages: []llmpkg.Message{
			{Role: "user", Content: content},
		},
	}
}

func newRedisPair(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestMultiLevelCache_LocalOnly(t *testing.T) {
	c := NewMultiLevelCache(nil, nil, zap.NewNop())
	ctx := context.Background()

	key := c.Key("openrouter", testRequest("hello"))
	_, err := c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, key, &llmpkg.ChatResponse{ID: "r1"}))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
}

func TestMultiLevelCache_RedisHitBackfillsLocal(t *testing.T) {
	mr, rdb := newRedisPair(t)
	ctx := context.Background()

	// Two cache instances sharing one Redis: writer populates, reader
	// starts with an empty local tier.
	writer := NewMultiLevelCache(rdb, nil, zap.NewNop())
	reader := NewMultiLevelCache(rdb, nil, zap.NewNop())

	key := writer.Key("openrouter", testRequest("hello"))
	require.NoError(t, writer.Set(ctx, key, &llmpkg.ChatResponse{ID: "r1", Provider: "openrouter"}))

	got, err := reader.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)

	// After the Redis tier is wiped the reader still serves the entry
	// from its backfilled local tier.
	mr.FlushAll()
	got, err = reader.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
}

func TestMultiLevelCache_RedisEntryHasTTL(t *testing.T) {
	mr, rdb := newRedisPair(t)
	ctx := context.Background()

	cfg := DefaultCacheConfig()
	cfg.TTL = time.Minute
	c := NewMultiLevelCache(rdb, cfg, zap.NewNop())

	key := c.Key("openrouter", testRequest("hello"))
	require.NoError(t, c.Set(ctx, key, &llmpkg.ChatResponse{ID: "r1"}))

	require.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestMultiLevelCache_CorruptRedisEntryDropped(t *testing.T) {
	mr, rdb := newRedisPair(t)
	ctx := context.Background()

	c := NewMultiLevelCache(rdb, nil, zap.NewNop())
	key := c.Key("openrouter", testRequest("hello"))
	require.NoError(t, mr.Set(key, "{not json"))

	_, err := c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.False(t, mr.Exists(key), "corrupt entry should be purged")
}

func TestMultiLevelCache_DeleteRemovesBothTiers(t *testing.T) {
	mr, rdb := newRedisPair(t)
	ctx := context.Background()

	c := NewMultiLevelCache(rdb, nil, zap.NewNop())
	key := c.Key("openrouter", testRequest("hello"))
	require.NoError(t, c.Set(ctx, key, &llmpkg.ChatResponse{ID: "r1"}))

	require.NoError(t, c.Delete(ctx, key))

	_, err := c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.False(t, mr.Exists(key))
}

func TestMultiLevelCache_RedisFailureDegradesToLocal(t *testing.T) {
	mr, rdb := newRedisPair(t)
	ctx := context.Background()

	c := NewMultiLevelCache(rdb, nil, zap.NewNop())
	key := c.Key("openrouter", testRequest("hello"))

	mr.Close()

	// Set succeeds via the local tier even with Redis unreachable.
	require.NoError(t, c.Set(ctx, key, &llmpkg.ChatResponse{ID: "r1"}))
	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
}

// ------------------------------------------------------------------
// Key derivation
// ------------------------------------------------------------------

func TestMultiLevelCache_KeyIsDeterministic(t *testing.T) {
	c := NewMultiLevelCache(nil, nil, zap.NewNop())

	k1 := c.Key("openrouter", testRequest("hello"))
	k2 := c.Key("openrouter", testRequest("hello"))
	assert.Equal(t, k1, k2)
}

func TestMultiLevelCache_KeySeparatesRequests(t *testing.T) {
	c := NewMultiLevelCache(nil, nil, zap.NewNop())
	base := c.Key("openrouter", testRequest("hello"))

	assert.NotEqual(t, base, c.Key("deepseek", testRequest("hello")),
		"provider must participate in the key")
	assert.NotEqual(t, base, c.Key("openrouter", testRequest("goodbye")),
		"messages must participate in the key")

	other := testRequest("hello")
	other.Model = "deepseek-chat"
	assert.NotEqual(t, base, c.Key("openrouter", other),
		"model must participate in the key")

	withTools := testRequest("hello")
	withTools.Tools = []llmpkg.ToolSchema{{Name: "get_weather"}}
	assert.NotEqual(t, base, c.Key("openrouter", withTools),
		"tools must participate in the key")
}

func TestMultiLevelCache_KeyIgnoresNonIdentityFields(t *testing.T) {
	c := NewMultiLevelCache(nil, nil, zap.NewNop())

	a := testRequest("hello")
	b := testRequest("hello")
	b.TraceID = "trace-123"
	b.User = "user-9"
	b.Timeout = 30 * time.Second

	assert.Equal(t, c.Key("openrouter", a), c.Key("openrouter", b))
}

func TestMultiLevelCache_KeyUsesConfiguredPrefix(t *testing.T) {
	cfg := DefaultCacheConfig()
	cfg.KeyPrefix = "custom:"
	c := NewMultiLevelCache(nil, cfg, zap.NewNop())

	key := c.Key("openrouter", testRequest("hello"))
	assert.Contains(t, key, "custom:")
	// Prefix plus 16 hashed bytes in hex.
	assert.Len(t, key, len("custom:")+32)
}

// ------------------------------------------------------------------
// Config guards
// ------------------------------------------------------------------

func TestNewMultiLevelCache_ConfigGuards(t *testing.T) {
	cfg := &CacheConfig{Enabled: true, TTL: -time.Hour, MaxEntries: -5}
	c := NewMultiLevelCache(nil, cfg, nil)

	assert.Equal(t, 5*time.Minute, cfg.TTL, "negative TTL falls back to the default")
	assert.Equal(t, 1000, cfg.MaxEntries)
	assert.Equal(t, "modelflow:cache:", cfg.KeyPrefix)
	assert.NotNil(t, c.logger)
}
