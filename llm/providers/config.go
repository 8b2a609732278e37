package providers

import "time"

// BaseProviderConfig holds the fields every provider shares. Embedding
// it gives each provider's Config the APIKey, BaseURL, Model,
// FallbackModel and Timeout fields without repetition.
type BaseProviderConfig struct {
	APIKey        string        `json:"api_key" yaml:"api_key"`
	BaseURL       string        `json:"base_url" yaml:"base_url"`
	Model         string        `json:"model,omitempty" yaml:"model,omitempty"`
	FallbackModel string        `json:"fallback_model,omitempty" yaml:"fallback_model,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// RoutePreferences mirrors OpenRouter's `provider` request object. All
// fields are optional; unset fields are omitted from the wire so the
// router keeps its server-side defaults.
type RoutePreferences struct {
	// Order lists upstream providers to try, in priority order.
	Order []string `json:"order,omitempty" yaml:"order,omitempty"`
	// AllowFallbacks permits routing past the listed providers.
	AllowFallbacks *bool `json:"allow_fallbacks,omitempty" yaml:"allow_fallbacks,omitempty"`
	// RequireParameters restricts routing to providers supporting every
	// request parameter.
	RequireParameters *bool `json:"require_parameters,omitempty" yaml:"require_parameters,omitempty"`
}

// OpenRouterConfig configures the OpenRouter provider.
type OpenRouterConfig struct {
	BaseProviderConfig `yaml:",inline"`
	// SiteURL populates the HTTP-Referer header for app attribution.
	SiteURL string `json:"site_url,omitempty" yaml:"site_url,omitempty"`
	// SiteName populates the X-Title header for app attribution.
	SiteName string `json:"site_name,omitempty" yaml:"site_name,omitempty"`
	// Route pins upstream routing preferences for every request.
	Route *RoutePreferences `json:"route,omitempty" yaml:"route,omitempty"`
	// MaxTokens is the default completion budget applied when a request
	// doesn't set one.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	// Temperature is the default sampling temperature applied when a
	// request doesn't set one.
	Temperature float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// DeepSeekConfig configures the DeepSeek provider.
type DeepSeekConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// GrokConfig configures the xAI Grok provider.
type GrokConfig struct {
	BaseProviderConfig `yaml:",inline"`
}
