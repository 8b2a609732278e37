// Package factory creates llm.Provider instances by name and assembles
// the fully decorated registry from a loaded configuration. It imports
// the provider sub-packages and maps string names to their
// constructors, breaking the import cycle that would occur if this
// logic lived in the llm package directly.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/modelflow-ai/modelflow/config"
	"github.com/modelflow-ai/modelflow/internal/metrics"
	"github.com/modelflow-ai/modelflow/llm"
	"github.com/modelflow-ai/modelflow/llm/cache"
	"github.com/modelflow-ai/modelflow/llm/observability"
	"github.com/modelflow-ai/modelflow/llm/providers"
	"github.com/modelflow-ai/modelflow/llm/providers/deepseek"
	"github.com/modelflow-ai/modelflow/llm/providers/grok"
	"github.com/modelflow-ai/modelflow/llm/providers/openrouter"
	"github.com/modelflow-ai/modelflow/llm/usagelog"
)

// ProviderConfig is the generic configuration accepted by
// NewProviderFromConfig. Provider-specific fields travel in Extra.
type ProviderConfig struct {
	APIKey  string         `json:"api_key" yaml:"api_key"`
	BaseURL string         `json:"base_url" yaml:"base_url"`
	Model   string         `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Extra   map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// NewProviderFromConfig creates a Provider by name.
//
// Supported names: openrouter, deepseek, grok.
func NewProviderFromConfig(name string, cfg ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := providers.BaseProviderConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}

	switch name {
	case "openrouter":
		oc := providers.OpenRouterConfig{BaseProviderConfig: base}
		if cfg.Extra != nil {
			if v, ok := cfg.Extra["site_url"].(string); ok {
				oc.SiteURL = v
			}
			if v, ok := cfg.Extra["site_name"].(string); ok {
				oc.SiteName = v
			}
		}
		return openrouter.NewOpenRouterProvider(oc, logger), nil

	case "deepseek":
		return deepseek.NewDeepSeekProvider(providers.DeepSeekConfig{BaseProviderConfig: base}, logger), nil

	case "grok":
		return grok.NewGrokProvider(providers.GrokConfig{BaseProviderConfig: base}, logger), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// RegisterAll registers every supported constructor on f so callers
// holding only an llm.ProviderFactory can build providers by code.
func RegisterAll(f *llm.DefaultProviderFactory, logger *zap.Logger) {
	for _, name := range []string{"openrouter", "deepseek", "grok"} {
		name := name
		f.RegisterProvider(name, func(apiKey, baseURL string) (llm.Provider, error) {
			return NewProviderFromConfig(name, ProviderConfig{APIKey: apiKey, BaseURL: baseURL}, logger)
		})
	}
}

// BuildRegistry constructs every enabled provider from cfg, applies the
// decorators in order rate-limit, cache, usage ledger, observability,
// and registers the results. The returned cleanup releases the ledger
// store and the Redis connection; it is safe to call once.
//
// collector may be nil; without it cache hit rates and stream counters
// only reach the OTel side.
func BuildRegistry(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) (*llm.ProviderRegistry, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := llm.NewProviderRegistry()
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var (
		store  *cache.MultiLevelCache
		ledger *usagelog.Store
		costs  = observability.NewCostCalculator()
	)

	if cfg.Cache.Enabled {
		var rdb *redis.Client
		if cfg.Cache.RedisAddr != "" {
			rdb = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
			cleanups = append(cleanups, func() { _ = rdb.Close() })
		}
		store = cache.NewMultiLevelCache(rdb, &cache.CacheConfig{
			Enabled:    true,
			TTL:        cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
			KeyPrefix:  cfg.Cache.KeyPrefix,
		}, logger)
	}

	if cfg.UsageLog.Enabled {
		s, err := usagelog.Open(cfg.UsageLog.Path, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open usage ledger: %w", err)
		}
		ledger = s
		cleanups = append(cleanups, func() { _ = s.Close() })
	}

	obsm, err := observability.NewMetrics()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create observability metrics: %w", err)
	}

	decorate := func(p llm.Provider) (llm.Provider, error) {
		if cfg.Limits.RequestsPerMinute > 0 {
			p = llm.NewRateLimitedProvider(p, cfg.Limits.RequestsPerMinute, cfg.Limits.Burst)
		}
		if store != nil {
			var cm cache.CacheMetrics
			if collector != nil {
				cm = collector
			}
			p = cache.NewCachedProvider(p, store, cm, logger)
		}
		if ledger != nil {
			rp := usagelog.NewRecordingProvider(p, ledger, logger)
			rp.SetPriceFunc(costs.Calculate)
			p = rp
		}
		op, err := observability.NewObservedProvider(p, obsm, costs, logger)
		if err != nil {
			return nil, err
		}
		if collector != nil {
			op.SetRecorder(collector)
		}
		return op, nil
	}

	register := func(name string, p llm.Provider) error {
		dp, err := decorate(p)
		if err != nil {
			return fmt.Errorf("decorate %s: %w", name, err)
		}
		registry.Register(name, dp)
		return nil
	}

	if pc := cfg.Providers.OpenRouter; pc.Enabled {
		p := openrouter.NewOpenRouterProvider(providers.OpenRouterConfig{
			BaseProviderConfig: providers.BaseProviderConfig{
				APIKey:  pc.APIKey,
				BaseURL: pc.BaseURL,
				Model:   pc.Model,
				Timeout: pc.Timeout,
			},
			SiteURL:  pc.SiteURL,
			SiteName: pc.SiteName,
		}, logger)
		if err := register("openrouter", p); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	if pc := cfg.Providers.DeepSeek; pc.Enabled {
		p := deepseek.NewDeepSeekProvider(providers.DeepSeekConfig{
			BaseProviderConfig: providers.BaseProviderConfig{
				APIKey:  pc.APIKey,
				BaseURL: pc.BaseURL,
				Model:   pc.Model,
				Timeout: pc.Timeout,
			},
		}, logger)
		if err := register("deepseek", p); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	if pc := cfg.Providers.Grok; pc.Enabled {
		p := grok.NewGrokProvider(providers.GrokConfig{
			BaseProviderConfig: providers.BaseProviderConfig{
				APIKey:  pc.APIKey,
				BaseURL: pc.BaseURL,
				Model:   pc.Model,
				Timeout: pc.Timeout,
			},
		}, logger)
		if err := register("grok", p); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	if registry.Len() == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("no providers enabled; set providers.<name>.enabled in the config")
	}

	if def := cfg.Providers.Default; def != "" {
		if _, ok := registry.Get(def); ok {
			if err := registry.SetDefault(def); err != nil {
				cleanup()
				return nil, nil, err
			}
		}
	}

	logger.Info("provider registry built",
		zap.Strings("providers", registry.List()),
		zap.Bool("cache", store != nil),
		zap.Bool("usage_log", ledger != nil),
	)
	return registry, cleanup, nil
}

// PingRedis verifies a Redis address is reachable so a typo in
// cache.redis_addr fails at startup instead of slowing every request.
func PingRedis(ctx context.Context, addr string) error {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	return rdb.Ping(ctx).Err()
}
