package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{Provider: s.name, Model: req.Model}, nil
}

func (s *stubProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Provider: s.name, Done: true}
	close(ch)
	return ch, nil
}

func (s *stubProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	return &HealthStatus{Healthy: true}, nil
}

func (s *stubProvider) Name() string                        { return s.name }
func (s *stubProvider) SupportsNativeFunctionCalling() bool { return true }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewProviderRegistry()
	p := &stubProvider{name: "openrouter"}
	r.Register("openrouter", p)

	got, ok := r.Get("openrouter")
	require.True(t, ok)
	assert.Equal(t, "openrouter", got.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_DefaultExplicit(t *testing.T) {
	r := NewProviderRegistry()
	r.Register("a", &stubProvider{name: "a"})
	r.Register("b", &stubProvider{name: "b"})

	_, err := r.Default()
	require.Error(t, err, "two providers and no default should be ambiguous")
	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrProviderUnavailable, llmErr.Code)

	require.NoError(t, r.SetDefault("b"))
	p, err := r.Default()
	require.NoError(t, err)
	assert.Equal(t, "b", p.Name())
}

func TestRegistry_DefaultSingleProvider(t *testing.T) {
	r := NewProviderRegistry()
	r.Register("only", &stubProvider{name: "only"})

	p, err := r.Default()
	require.NoError(t, err)
	assert.Equal(t, "only", p.Name())
}

func TestRegistry_SetDefaultUnknown(t *testing.T) {
	r := NewProviderRegistry()
	assert.Error(t, r.SetDefault("ghost"))
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewProviderRegistry()
	r.Register("grok", &stubProvider{name: "grok"})
	r.Register("deepseek", &stubProvider{name: "deepseek"})
	r.Register("openrouter", &stubProvider{name: "openrouter"})

	assert.Equal(t, []string{"deepseek", "grok", "openrouter"}, r.List())
}

func TestRegistry_UnregisterClearsDefault(t *testing.T) {
	r := NewProviderRegistry()
	r.Register("a", &stubProvider{name: "a"})
	r.Register("b", &stubProvider{name: "b"})
	require.NoError(t, r.SetDefault("a"))

	r.Unregister("a")

	_, ok := r.Get("a")
	assert.False(t, ok)
	// Exactly one provider remains, so Default falls through to it.
	p, err := r.Default()
	require.NoError(t, err)
	assert.Equal(t, "b", p.Name())
}
