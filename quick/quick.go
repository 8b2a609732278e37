// =============================================================================
// Package quick — One-Line Provider Construction
// =============================================================================
// Convenience entry point for creating chat providers with minimal
// boilerplate. Delegates to llm/factory internally.
//
// The package lives under quick/ (not root) so the root facade can
// re-export it without an import cycle.
//
// Usage:
//
//	import "github.com/modelflow-ai/modelflow/quick"
//
//	p, err := quick.New(quick.WithOpenRouter("anthropic/claude-3.5-sonnet"))
//	p, err := quick.New(quick.WithDeepSeek("deepseek-chat"), quick.WithAPIKey("sk-..."))
//	text, err := quick.Complete(ctx, p, "one-line answer, please")
//
// =============================================================================
package quick

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/modelflow-ai/modelflow/llm"
	"github.com/modelflow-ai/modelflow/llm/factory"
)

// Option configures the provider created by New.
type Option func(*options)

type options struct {
	model   string
	baseURL string
	logger  *zap.Logger

	providerName string
	apiKey       string
}

// WithOpenRouter selects the OpenRouter backend with the given model.
// API key is read from OPENROUTER_API_KEY unless WithAPIKey overrides it.
func WithOpenRouter(model string) Option {
	return func(o *options) {
		o.providerName = "openrouter"
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("OPENROUTER_API_KEY")
		}
	}
}

// WithDeepSeek selects the DeepSeek backend with the given model.
// API key is read from DEEPSEEK_API_KEY unless WithAPIKey overrides it.
func WithDeepSeek(model string) Option {
	return func(o *options) {
		o.providerName = "deepseek"
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("DEEPSEEK_API_KEY")
		}
	}
}

// WithGrok selects the xAI Grok backend with the given model.
// API key is read from XAI_API_KEY unless WithAPIKey overrides it.
func WithGrok(model string) Option {
	return func(o *options) {
		o.providerName = "grok"
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("XAI_API_KEY")
		}
	}
}

// WithModel overrides the model set by a provider shortcut.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithBaseURL overrides the backend's default base URL. Useful for
// proxies and self-hosted OpenAI-compatible servers.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithAPIKey overrides the API key for provider shortcuts.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a chat provider with minimal configuration. A backend
// must be selected via WithOpenRouter, WithDeepSeek or WithGrok.
func New(opts ...Option) (llm.Provider, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.providerName == "" {
		return nil, fmt.Errorf("provider is required: use WithOpenRouter, WithDeepSeek, or WithGrok")
	}
	if o.apiKey == "" {
		return nil, fmt.Errorf("API key is required for %s: set the environment variable or use WithAPIKey", o.providerName)
	}

	p, err := factory.NewProviderFromConfig(o.providerName, factory.ProviderConfig{
		APIKey:  o.apiKey,
		BaseURL: o.baseURL,
		Model:   o.model,
	}, o.logger)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", o.providerName, err)
	}
	return p, nil
}

// Complete sends prompt as a single user message and returns the first
// choice's content.
func Complete(ctx context.Context, p llm.Provider, prompt string) (string, error) {
	resp, err := p.Completion(ctx, &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", p.Name())
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream sends prompt as a single user message and concatenates the
// streamed deltas, calling onDelta (when non-nil) for each one as it
// arrives. It returns the full text once the stream finishes.
func Stream(ctx context.Context, p llm.Provider, prompt string, onDelta func(string)) (string, error) {
	ch, err := p.Stream(ctx, &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			return b.String(), chunk.Err
		}
		if chunk.Delta.Content != "" {
			b.WriteString(chunk.Delta.Content)
			if onDelta != nil {
				onDelta(chunk.Delta.Content)
			}
		}
	}
	return b.String(), nil
}
