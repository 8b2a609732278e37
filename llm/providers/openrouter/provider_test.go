package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/modelflow-ai/modelflow/llm"
	"github.com/modelflow-ai/modelflow/llm/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenRouterProvider_Name(t *testing.T) {
	provider := NewOpenRouterProvider(providers.OpenRouterConfig{}, zap.NewNop())
	assert.Equal(t, "openrouter", provider.Name())
}

func TestOpenRouterProvider_SupportsNativeFunctionCalling(t *testing.T) {
	provider := NewOpenRouterProvider(providers.OpenRouterConfig{}, zap.NewNop())
	assert.True(t, provider.SupportsNativeFunctionCalling())
}

func TestOpenRouterProvider_Defaults(t *testing.T) {
	provider := NewOpenRouterProvider(providers.OpenRouterConfig{}, zap.NewNop())

	assert.Equal(t, "https://openrouter.ai/api/v1", provider.Cfg.BaseURL)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", provider.Model())
	assert.Equal(t, 4096, provider.MaxTokens())
	assert.InDelta(t, 0.7, provider.Temperature(), 1e-6)
}

func TestOpenRouterProvider_ConfigOverridesDefaults(t *testing.T) {
	cfg := providers.OpenRouterConfig{
		MaxTokens:   1024,
		Temperature: 0.2,
	}
	cfg.Model = "openai/gpt-4o"

	provider := NewOpenRouterProvider(cfg, zap.NewNop())
	assert.Equal(t, "openai/gpt-4o", provider.Model())
	assert.Equal(t, 1024, provider.MaxTokens())
	assert.InDelta(t, 0.2, provider.Temperature(), 1e-6)
}

func TestOpenRouterProvider_APIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	provider := NewOpenRouterProvider(providers.OpenRouterConfig{}, zap.NewNop())
	assert.Equal(t, "env-key", provider.Cfg.APIKey)
}

func TestOpenRouterProvider_ConfigKeyBeatsEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	cfg := providers.OpenRouterConfig{}
	cfg.APIKey = "cfg-key"
	provider := NewOpenRouterProvider(cfg, zap.NewNop())
	assert.Equal(t, "cfg-key", provider.Cfg.APIKey)
}

// capturedRequest decodes the wire body with the routing preferences
// materialized instead of the escape-hatch any.
type capturedRequest struct {
	providers.OpenAICompatRequest
	Provider *providers.RoutePreferences `json:"provider"`
}

func newCaptureServer(t *testing.T, captured *capturedRequest, headers *http.Header) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if headers != nil {
			*headers = r.Header.Clone()
		}
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(providers.OpenAICompatResponse{
			ID: "r1", Model: "m",
			Choices: []providers.OpenAICompatChoice{
				{Index: 0, FinishReason: "stop", Message: providers.OpenAICompatMessage{Role: "assistant", Content: "ok"}},
			},
		})
	}))
}

func newTestProvider(t *testing.T, serverURL string, mutate func(*providers.OpenRouterConfig)) *OpenRouterProvider {
	t.Helper()
	cfg := providers.OpenRouterConfig{}
	cfg.APIKey = "test-key"
	cfg.BaseURL = serverURL
	if mutate != nil {
		mutate(&cfg)
	}
	return NewOpenRouterProvider(cfg, zap.NewNop())
}

func TestOpenRouterProvider_EndpointPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"r1","model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`)
	}))
	t.Cleanup(server.Close)

	p := newTestProvider(t, server.URL, nil)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
	})
	require.NoError(t, err)
	// The base URL carries /api/v1 on the real service, so the path has
	// no version segment of its own.
	assert.Equal(t, "/chat/completions", gotPath)
}

func TestOpenRouterProvider_AttributionHeaders(t *testing.T) {
	var headers http.Header
	server := newCaptureServer(t, nil, &headers)
	t.Cleanup(server.Close)

	p := newTestProvider(t, server.URL, func(cfg *providers.OpenRouterConfig) {
		cfg.SiteURL = "https://example.com"
		cfg.SiteName = "Example App"
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", headers.Get("Authorization"))
	assert.Equal(t, "https://example.com", headers.Get("HTTP-Referer"))
	assert.Equal(t, "Example App", headers.Get("X-Title"))
}

func TestOpenRouterProvider_AttributionHeadersOmittedWhenUnset(t *testing.T) {
	var headers http.Header
	server := newCaptureServer(t, nil, &headers)
	t.Cleanup(server.Close)

	p := newTestProvider(t, server.URL, nil)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
	})
	require.NoError(t, err)

	assert.Empty(t, headers.Get("HTTP-Referer"))
	assert.Empty(t, headers.Get("X-Title"))
}

func TestOpenRouterProvider_RoutePreferencesOnWire(t *testing.T) {
	var captured capturedRequest
	server := newCaptureServer(t, &captured, nil)
	t.Cleanup(server.Close)

	allow := false
	p := newTestProvider(t, server.URL, func(cfg *providers.OpenRouterConfig) {
		cfg.Route = &providers.RoutePreferences{
			Order:          []string{"anthropic", "openai"},
			AllowFallbacks: &allow,
		}
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
	})
	require.NoError(t, err)

	require.NotNil(t, captured.Provider)
	assert.Equal(t, []string{"anthropic", "openai"}, captured.Provider.Order)
	require.NotNil(t, captured.Provider.AllowFallbacks)
	assert.False(t, *captured.Provider.AllowFallbacks)
	assert.Nil(t, captured.Provider.RequireParameters)
}

func TestOpenRouterProvider_RoutePreferencesOmittedWhenUnset(t *testing.T) {
	var raw map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"r1","model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`)
	}))
	t.Cleanup(server.Close)

	p := newTestProvider(t, server.URL, nil)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
	})
	require.NoError(t, err)

	_, present := raw["provider"]
	assert.False(t, present, "provider field must be absent when no route is configured")
}

func TestOpenRouterProvider_DefaultsAppliedToRequestBody(t *testing.T) {
	var captured capturedRequest
	server := newCaptureServer(t, &captured, nil)
	t.Cleanup(server.Close)

	p := newTestProvider(t, server.URL, nil)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 4096, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 1e-6)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", captured.Model)
}

func TestOpenRouterProvider_ExplicitRequestValuesKept(t *testing.T) {
	var captured capturedRequest
	server := newCaptureServer(t, &captured, nil)
	t.Cleanup(server.Close)

	p := newTestProvider(t, server.URL, nil)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:       "openai/gpt-4o-mini",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
		MaxTokens:   100,
		Temperature: 0.2,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, captured.MaxTokens)
	assert.InDelta(t, 0.2, captured.Temperature, 1e-6)
	assert.Equal(t, "openai/gpt-4o-mini", captured.Model)
}

func TestOpenRouterProvider_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		t.Skip("OPENROUTER_API_KEY not set, skipping integration test")
	}

	cfg := providers.OpenRouterConfig{}
	cfg.APIKey = apiKey
	cfg.Timeout = 30 * time.Second
	provider := NewOpenRouterProvider(cfg, zap.NewNop())

	ctx := context.Background()

	t.Run("Completion", func(t *testing.T) {
		req := &llm.ChatRequest{
			Messages: []llm.Message{
				{Role: llm.RoleUser, Content: "Say 'test' only"},
			},
			MaxTokens:   10,
			Temperature: 0.1,
		}

		resp, err := provider.Completion(ctx, req)
		require.NoError(t, err)
		assert.NotNil(t, resp)
		assert.NotEmpty(t, resp.Choices)
		assert.NotEmpty(t, resp.Choices[0].Message.Content)
	})

	t.Run("Stream", func(t *testing.T) {
		req := &llm.ChatRequest{
			Messages: []llm.Message{
				{Role: llm.RoleUser, Content: "Count to 3"},
			},
			MaxTokens: 20,
		}

		stream, err := provider.Stream(ctx, req)
		require.NoError(t, err)

		var chunks []llm.StreamChunk
		for chunk := range stream {
			if chunk.Err != nil {
				t.Fatalf("stream error: %v", chunk.Err)
			}
			chunks = append(chunks, chunk)
		}

		require.NotEmpty(t, chunks)
		assert.True(t, chunks[len(chunks)-1].Done)
	})
}
