package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	llmpkg "github.com/modelflow-ai/modelflow/llm"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss reports that no entry exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// ResponseCache stores complete chat responses keyed by request
// identity.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*llmpkg.ChatResponse, error)
	Set(ctx context.Context, key string, resp *llmpkg.ChatResponse) error
	Delete(ctx context.Context, key string) error

	// Key derives the cache key from the request identity: provider,
	// model, messages and tools.
	Key(provider string, req *llmpkg.ChatRequest) string
}

// CacheConfig configures the two-tier response cache.
type CacheConfig struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	TTL        time.Duration `json:"ttl" yaml:"ttl"`
	MaxEntries int           `json:"max_entries" yaml:"max_entries"`
	RedisAddr  string        `json:"redis_addr" yaml:"redis_addr"`
	KeyPrefix  string        `json:"key_prefix" yaml:"key_prefix"`
}

// DefaultCacheConfig returns the defaults: 5 minute TTL, 1000 local
// entries, local tier only.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Enabled:    true,
		TTL:        5 * time.Minute,
		MaxEntries: 1000,
		KeyPrefix:  "modelflow:cache:",
	}
}

// MultiLevelCache is an in-process LRU in front of an optional Redis
// tier. Redis failures degrade to misses; the local tier keeps serving.
type MultiLevelCache struct {
	local  *lruCache
	redis  *redis.Client
	cfg    *CacheConfig
	logger *zap.Logger
}

var _ ResponseCache = (*MultiLevelCache)(nil)

// NewMultiLevelCache creates the cache. rdb may be nil for a
// local-only cache. Non-positive TTL and MaxEntries fall back to the
// defaults, so a misconfigured negative TTL cannot disable expiry.
func NewMultiLevelCache(rdb *redis.Client, cfg *CacheConfig, logger *zap.Logger) *MultiLevelCache {
	if cfg == nil {
		cfg = DefaultCacheConfig()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "modelflow:cache:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MultiLevelCache{
		local:  newLRUCache(cfg.MaxEntries, cfg.TTL),
		redis:  rdb,
		cfg:    cfg,
		logger: logger,
	}
}

// Get checks the local tier first, then Redis, backfilling the local
// tier on a Redis hit.
func (c *MultiLevelCache) Get(ctx context.Context, key string) (*llmpkg.ChatResponse, error) {
	if resp, ok := c.local.get(key); ok {
		c.logger.Debug("local cache hit", zap.String("key", key))
		return resp, nil
	}

	if c.redis != nil {
		data, err := c.redis.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var resp llmpkg.ChatResponse
			if err := json.Unmarshal(data, &resp); err != nil {
				c.logger.Warn("corrupt cache entry dropped", zap.String("key", key), zap.Error(err))
				_ = c.redis.Del(ctx, key).Err()
				return nil, ErrCacheMiss
			}
			c.local.set(key, &resp)
			c.logger.Debug("redis cache hit", zap.String("key", key))
			return &resp, nil
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
	}

	return nil, ErrCacheMiss
}

// Set writes both tiers. A Redis write failure is logged and does not
// fail the call; the local tier already holds the entry.
func (c *MultiLevelCache) Set(ctx context.Context, key string, resp *llmpkg.ChatResponse) error {
	c.local.set(key, resp)

	if c.redis != nil {
		data, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("marshal cache entry: %w", err)
		}
		if err := c.redis.Set(ctx, key, data, c.cfg.TTL).Err(); err != nil {
			c.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
		}
	}

	return nil
}

// Delete removes the key from both tiers.
func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	c.local.delete(key)
	if c.redis != nil {
		if err := c.redis.Del(ctx, key).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Key hashes the request identity. Only fields that change the
// completion participate: provider, model, messages and tools.
func (c *MultiLevelCache) Key(provider string, req *llmpkg.ChatRequest) string {
	payload := struct {
		Provider string              `json:"provider"`
		Model    string              `json:"model"`
		Messages []llmpkg.Message    `json:"messages"`
		Tools    []llmpkg.ToolSchema `json:"tools,omitempty"`
	}{provider, req.Model, req.Messages, req.Tools}

	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(fmt.Sprintf("%s|%s|%v", provider, req.Model, req.Messages))
	}
	sum := sha256.Sum256(data)
	return c.cfg.KeyPrefix + hex.EncodeToString(sum[:16])
}
