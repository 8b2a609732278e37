package grok

import (
	"github.com/modelflow-ai/modelflow/llm/providers"
	"github.com/modelflow-ai/modelflow/llm/providers/openaicompat"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.x.ai"
	defaultModel   = "grok-2-latest"
)

// GrokProvider adapts the xAI Grok API, which is OpenAI-compatible on
// the wire. The default /v1 endpoint paths apply as-is.
type GrokProvider struct {
	*openaicompat.Provider
}

// NewGrokProvider creates a new Grok provider instance.
func NewGrokProvider(cfg providers.GrokConfig, logger *zap.Logger) *GrokProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	return &GrokProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "grok",
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: defaultModel,
			Timeout:       cfg.Timeout,
		}, logger),
	}
}
