package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// promauto registers on the default registry, so every test gets its own
// namespace to avoid duplicate-registration panics.
var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.llmRequestsTotal)
	assert.NotNil(t, collector.llmRequestDuration)
	assert.NotNil(t, collector.llmTokensUsed)
	assert.NotNil(t, collector.llmCost)
	assert.NotNil(t, collector.llmStreamChunks)
	assert.NotNil(t, collector.llmActiveStreams)
}

func TestCollector_RecordLLMRequest(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordLLMRequest(
		"openrouter",
		"anthropic/claude-3.5-sonnet",
		"success",
		500*time.Millisecond,
		100,  // prompt tokens
		50,   // completion tokens
		0.01, // cost
	)

	count := testutil.CollectAndCount(collector.llmRequestsTotal)
	assert.Greater(t, count, 0)

	tokensCount := testutil.CollectAndCount(collector.llmTokensUsed)
	assert.Greater(t, tokensCount, 0)

	costCount := testutil.CollectAndCount(collector.llmCost)
	assert.Greater(t, costCount, 0)
}

func TestCollector_RecordStreamChunks(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordStreamChunks("openrouter", "m", 5)
	collector.RecordStreamChunks("openrouter", "m", 3)
	// Non-positive counts are ignored.
	collector.RecordStreamChunks("openrouter", "m", 0)
	collector.RecordStreamChunks("openrouter", "m", -1)

	got := testutil.ToFloat64(collector.llmStreamChunks.WithLabelValues("openrouter", "m"))
	assert.Equal(t, float64(8), got)
}

func TestCollector_ActiveStreams(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.StreamStarted("openrouter")
	collector.StreamStarted("openrouter")
	collector.StreamEnded("openrouter")

	got := testutil.ToFloat64(collector.llmActiveStreams.WithLabelValues("openrouter"))
	assert.Equal(t, float64(1), got)
}

func TestCollector_RecordCacheOperation(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordCacheHit("redis")
	collector.RecordCacheMiss("redis")

	hitCount := testutil.CollectAndCount(collector.cacheHits)
	assert.Greater(t, hitCount, 0)

	missCount := testutil.CollectAndCount(collector.cacheMisses)
	assert.Greater(t, missCount, 0)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			collector.RecordLLMRequest("openrouter", "m", "success", 500*time.Millisecond, 100, 50, 0.01)
			collector.RecordStreamChunks("openrouter", "m", 2)
			collector.RecordCacheHit("redis")
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	llmCount := testutil.CollectAndCount(collector.llmRequestsTotal)
	assert.Greater(t, llmCount, 0)

	chunks := testutil.ToFloat64(collector.llmStreamChunks.WithLabelValues("openrouter", "m"))
	assert.Equal(t, float64(20), chunks)
}
