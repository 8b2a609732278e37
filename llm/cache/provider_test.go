package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	llmpkg "github.com/modelflow-ai/modelflow/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingProvider struct {
	name        string
	completions atomic.Int32
	streams     atomic.Int32
	gate        chan struct{}
	err         error
}

func (p *countingProvider) Completion(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatResponse, error) {
	p.completions.Add(1)
	if p.gate != nil {
		<-p.gate
	}
	if p.err != nil {
		return nil, p.err
	}
	return &llmpkg.ChatResponse{ID: "resp-1", Provider: p.name, Model: req.Model}, nil
}

func (p *countingProvider) Stream(ctx context.Context, req *llmpkg.ChatRequest) (<-chan llmpkg.StreamChunk, error) {
	p.streams.Add(1)
	ch := make(chan llmpkg.StreamChunk, 1)
	ch <- llmpkg.StreamChunk{Provider: p.name, Done: true}
	close(ch)
	return ch, nil
}

func (p *countingProvider) HealthCheck(ctx context.Context) (*llmpkg.HealthStatus, error) {
	return &llmpkg.HealthStatus{Healthy: true}, nil
}

func (p *countingProvider) Name() string                        { return p.name }
func (p *countingProvider) SupportsNativeFunctionCalling() bool { return true }

type captureMetrics struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (m *captureMetrics) RecordCacheHit(cacheType string) {
	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
}

func (m *captureMetrics) RecordCacheMiss(cacheType string) {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
}

func newCachedProvider(inner *countingProvider, metrics CacheMetrics) *CachedProvider {
	store := NewMultiLevelCache(nil, nil, zap.NewNop())
	return NewCachedProvider(inner, store, metrics, zap.NewNop())
}

func TestCacheable(t *testing.T) {
	assert.False(t, Cacheable(nil))
	assert.True(t, Cacheable(&llmpkg.ChatRequest{Model: "m"}))
	assert.False(t, Cacheable(&llmpkg.ChatRequest{Model: "m", Temperature: 0.7}))
	assert.False(t, Cacheable(&llmpkg.ChatRequest{
		Model: "m",
		Tools: []llmpkg.ToolSchema{{Name: "get_weather"}},
	}))
}

func TestCachedProvider_SecondCallServedFromCache(t *testing.T) {
	inner := &countingProvider{name: "test"}
	p := newCachedProvider(inner, nil)
	req := testRequest("hello")

	first, err := p.Completion(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Completion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), inner.completions.Load())
	assert.Same(t, first, second, "cache hit returns the stored response")
}

func TestCachedProvider_NonDeterministicRequestBypassesCache(t *testing.T) {
	inner := &countingProvider{name: "test"}
	p := newCachedProvider(inner, nil)

	req := testRequest("hello")
	req.Temperature = 0.7

	_, err := p.Completion(context.Background(), req)
	require.NoError(t, err)
	_, err = p.Completion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(2), inner.completions.Load())
}

func TestCachedProvider_ToolRequestBypassesCache(t *testing.T) {
	inner := &countingProvider{name: "test"}
	p := newCachedProvider(inner, nil)

	req := testRequest("hello")
	req.Tools = []llmpkg.ToolSchema{{Name: "get_weather"}}

	_, err := p.Completion(context.Background(), req)
	require.NoError(t, err)
	_, err = p.Completion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(2), inner.completions.Load())
}

func TestCachedProvider_StreamAlwaysPassesThrough(t *testing.T) {
	inner := &countingProvider{name: "test"}
	p := newCachedProvider(inner, nil)
	req := testRequest("hello")

	for i := 0; i < 2; i++ {
		ch, err := p.Stream(context.Background(), req)
		require.NoError(t, err)
		var last llmpkg.StreamChunk
		for c := range ch {
			last = c
		}
		assert.True(t, last.Done)
	}

	assert.Equal(t, int32(2), inner.streams.Load())
}

func TestCachedProvider_UpstreamErrorNotCached(t *testing.T) {
	inner := &countingProvider{name: "test", err: errors.New("upstream down")}
	p := newCachedProvider(inner, nil)
	req := testRequest("hello")

	_, err := p.Completion(context.Background(), req)
	require.Error(t, err)
	_, err = p.Completion(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, int32(2), inner.completions.Load())
}

func TestCachedProvider_SingleflightCollapsesConcurrentMisses(t *testing.T) {
	inner := &countingProvider{name: "test", gate: make(chan struct{})}
	p := newCachedProvider(inner, nil)
	req := testRequest("hello")

	const n = 5
	results := make([]*llmpkg.ChatResponse, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Completion(context.Background(), req)
		}(i)
	}

	// Let every caller reach the miss path, then release the one
	// upstream call they share.
	time.Sleep(50 * time.Millisecond)
	close(inner.gate)
	wg.Wait()

	assert.Equal(t, int32(1), inner.completions.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
}

func TestCachedProvider_RecordsHitAndMissMetrics(t *testing.T) {
	inner := &countingProvider{name: "test"}
	m := &captureMetrics{}
	p := newCachedProvider(inner, m)
	req := testRequest("hello")

	_, err := p.Completion(context.Background(), req)
	require.NoError(t, err)
	_, err = p.Completion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, m.misses)
	assert.Equal(t, 1, m.hits)
}

func TestCachedProvider_DelegatesProviderIdentity(t *testing.T) {
	inner := &countingProvider{name: "openrouter"}
	p := newCachedProvider(inner, nil)

	assert.Equal(t, "openrouter", p.Name())
	assert.True(t, p.SupportsNativeFunctionCalling())

	hs, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, hs.Healthy)
}
