package deepseek

import (
	"github.com/modelflow-ai/modelflow/llm"
	"github.com/modelflow-ai/modelflow/llm/providers"
	"github.com/modelflow-ai/modelflow/llm/providers/openaicompat"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.deepseek.com"
	defaultModel   = "deepseek-chat"
	reasonerModel  = "deepseek-reasoner"
)

// DeepSeekProvider adapts the DeepSeek API, which is OpenAI-compatible
// on the wire.
type DeepSeekProvider struct {
	*openaicompat.Provider
}

// NewDeepSeekProvider creates a new DeepSeek provider instance.
func NewDeepSeekProvider(cfg providers.DeepSeekConfig, logger *zap.Logger) *DeepSeekProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	return &DeepSeekProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "deepseek",
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: defaultModel,
			Timeout:       cfg.Timeout,
			// DeepSeek serves its endpoints without a version segment.
			EndpointPath:   "/chat/completions",
			ModelsEndpoint: "/models",
			RequestHook:    deepseekRequestHook,
		}, logger),
	}
}

// deepseekRequestHook switches to the reasoner model when the request
// asks for extended reasoning without pinning a model itself.
func deepseekRequestHook(req *llm.ChatRequest, body *providers.OpenAICompatRequest) {
	if req.Metadata["reasoning"] == "true" && req.Model == "" {
		body.Model = reasonerModel
	}
}
