package quick

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelflow-ai/modelflow/llm"
)

func TestNewRequiresProvider(t *testing.T) {
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider is required")
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	_, err := New(WithDeepSeek("deepseek-chat"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNewShortcuts(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"openrouter", WithOpenRouter("anthropic/claude-3.5-sonnet")},
		{"deepseek", WithDeepSeek("deepseek-chat")},
		{"grok", WithGrok("grok-2-latest")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.opt, WithAPIKey("sk-test"))
			require.NoError(t, err)
			assert.Equal(t, tt.name, p.Name())
		})
	}
}

func TestNewAPIKeyFromEnv(t *testing.T) {
	t.Setenv("XAI_API_KEY", "env-key")
	p, err := New(WithGrok("grok-2-latest"))
	require.NoError(t, err)
	assert.Equal(t, "grok", p.Name())
}

// fakeProvider serves canned results so the helpers can be tested
// without a network.
type fakeProvider struct {
	content string
	deltas  []string
}

func (f *fakeProvider) Completion(context.Context, *llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{
		Model:   "fake",
		Choices: []llm.ChatChoice{{Message: llm.Message{Role: llm.RoleAssistant, Content: f.content}}},
	}, nil
}

func (f *fakeProvider) Stream(context.Context, *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk, len(f.deltas)+1)
	for _, d := range f.deltas {
		ch <- llm.StreamChunk{Delta: llm.Message{Role: llm.RoleAssistant, Content: d}}
	}
	ch <- llm.StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

func (f *fakeProvider) Name() string                        { return "fake" }
func (f *fakeProvider) SupportsNativeFunctionCalling() bool { return true }

func TestComplete(t *testing.T) {
	got, err := Complete(context.Background(), &fakeProvider{content: "hello"}, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestStreamConcatenatesDeltas(t *testing.T) {
	var seen []string
	got, err := Stream(context.Background(), &fakeProvider{deltas: []string{"Hel", "lo"}}, "hi",
		func(d string) { seen = append(seen, d) })
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)
	assert.Equal(t, []string{"Hel", "lo"}, seen)
}
