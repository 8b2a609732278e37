package cache

import (
	"context"
	"errors"

	llmpkg "github.com/modelflow-ai/modelflow/llm"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CacheMetrics records cache hit and miss counts. *metrics.Collector
// satisfies it.
type CacheMetrics interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// CachedProvider serves deterministic completions from a ResponseCache
// before falling through to the wrapped provider. Concurrent misses on
// the same key collapse into a single upstream call.
//
// Streaming always passes through: chunks are produced incrementally
// and replaying them from a cache would change observable timing.
type CachedProvider struct {
	llmpkg.Provider

	cache   ResponseCache
	group   singleflight.Group
	metrics CacheMetrics
	logger  *zap.Logger
}

// NewCachedProvider wraps p with response caching. metrics may be nil.
func NewCachedProvider(p llmpkg.Provider, c ResponseCache, metrics CacheMetrics, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{
		Provider: p,
		cache:    c,
		metrics:  metrics,
		logger:   logger,
	}
}

// Cacheable reports whether a request may be served from cache. Only
// deterministic requests qualify: zero temperature and no tools, since
// tool-call results depend on caller-side execution.
func Cacheable(req *llmpkg.ChatRequest) bool {
	return req != nil && req.Temperature == 0 && len(req.Tools) == 0
}

// Completion checks the cache for deterministic requests and stores
// the response on a miss. Non-cacheable requests go straight upstream.
func (p *CachedProvider) Completion(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatResponse, error) {
	if !Cacheable(req) {
		return p.Provider.Completion(ctx, req)
	}

	key := p.cache.Key(p.Name(), req)

	resp, err := p.cache.Get(ctx, key)
	if err == nil {
		p.recordHit()
		p.logger.Debug("completion served from cache",
			zap.String("provider", p.Name()),
			zap.String("key", key))
		return resp, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		p.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	p.recordMiss()

	v, err, _ := p.group.Do(key, func() (any, error) {
		resp, err := p.Provider.Completion(ctx, req)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, key, resp); err != nil {
			p.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*llmpkg.ChatResponse), nil
}

func (p *CachedProvider) recordHit() {
	if p.metrics != nil {
		p.metrics.RecordCacheHit("response")
	}
}

func (p *CachedProvider) recordMiss() {
	if p.metrics != nil {
		p.metrics.RecordCacheMiss("response")
	}
}
