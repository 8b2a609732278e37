package openrouter

import (
	"net/http"
	"os"

	"github.com/modelflow-ai/modelflow/llm"
	"github.com/modelflow-ai/modelflow/llm/providers"
	"github.com/modelflow-ai/modelflow/llm/providers/openaicompat"
	"go.uber.org/zap"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1"
	defaultModel       = "anthropic/claude-3.5-sonnet"
	defaultMaxTokens   = 4096
	defaultTemperature = float32(0.7)

	apiKeyEnv = "OPENROUTER_API_KEY"
)

// OpenRouterProvider routes requests through OpenRouter's unified API.
// OpenRouter is OpenAI-compatible on the wire; on top of the shared base
// it adds app-attribution headers, upstream routing preferences and
// account-level defaults for the token budget and sampling temperature.
type OpenRouterProvider struct {
	*openaicompat.Provider
	cfg providers.OpenRouterConfig
}

// NewOpenRouterProvider creates a new OpenRouter provider instance. The
// API key falls back to $OPENROUTER_API_KEY when the config leaves it
// empty.
func NewOpenRouterProvider(cfg providers.OpenRouterConfig, logger *zap.Logger) *OpenRouterProvider {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(apiKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	p := &OpenRouterProvider{cfg: cfg}
	p.Provider = openaicompat.New(openaicompat.Config{
		ProviderName:  "openrouter",
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		DefaultModel:  cfg.Model,
		FallbackModel: defaultModel,
		Timeout:       cfg.Timeout,
		// BaseURL already carries /api/v1.
		EndpointPath:   "/chat/completions",
		ModelsEndpoint: "/models",
		RequestHook:    p.requestHook,
	}, logger)

	p.SetBuildHeaders(func(req *http.Request, apiKey string) {
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", "application/json")
		if cfg.SiteURL != "" {
			req.Header.Set("HTTP-Referer", cfg.SiteURL)
		}
		if cfg.SiteName != "" {
			req.Header.Set("X-Title", cfg.SiteName)
		}
	})

	return p
}

// requestHook applies OpenRouter-specific body fields: routing
// preferences and configured defaults for budget and sampling.
func (p *OpenRouterProvider) requestHook(req *llm.ChatRequest, body *providers.OpenAICompatRequest) {
	if p.cfg.Route != nil {
		body.Provider = p.cfg.Route
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = p.MaxTokens()
	}
	if body.Temperature == 0 {
		body.Temperature = p.Temperature()
	}
}

// Model returns the default model requests resolve to.
func (p *OpenRouterProvider) Model() string { return p.cfg.Model }

// MaxTokens returns the completion budget applied to requests that
// don't set one.
func (p *OpenRouterProvider) MaxTokens() int {
	if p.cfg.MaxTokens > 0 {
		return p.cfg.MaxTokens
	}
	return defaultMaxTokens
}

// Temperature returns the sampling temperature applied to requests
// that don't set one.
func (p *OpenRouterProvider) Temperature() float32 {
	if p.cfg.Temperature > 0 {
		return p.cfg.Temperature
	}
	return defaultTemperature
}
