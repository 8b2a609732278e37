// Package modelflow provides a top-level convenience entry point for
// creating chat providers with minimal boilerplate.
//
// Usage:
//
//	import "github.com/modelflow-ai/modelflow"
//
//	p, err := modelflow.New(modelflow.WithOpenRouter("anthropic/claude-3.5-sonnet"))
//	p, err := modelflow.New(modelflow.WithDeepSeek("deepseek-chat"))
//
// This is a thin wrapper around [quick.New]; both produce identical
// results. Use this package when you prefer the shorter import path.
package modelflow

import (
	"github.com/modelflow-ai/modelflow/llm"
	"github.com/modelflow-ai/modelflow/quick"
)

// Version is the library version, overridable at build time.
var Version = "dev"

// Option configures the provider created by [New].
type Option = quick.Option

// New creates an [llm.Provider] with minimal configuration. A backend
// must be selected via [WithOpenRouter], [WithDeepSeek] or [WithGrok].
func New(opts ...Option) (llm.Provider, error) {
	return quick.New(opts...)
}

// Re-export provider shortcuts so callers never need to import quick/.

// WithOpenRouter selects the OpenRouter backend. API key from OPENROUTER_API_KEY env.
var WithOpenRouter = quick.WithOpenRouter

// WithDeepSeek selects the DeepSeek backend. API key from DEEPSEEK_API_KEY env.
var WithDeepSeek = quick.WithDeepSeek

// WithGrok selects the xAI Grok backend. API key from XAI_API_KEY env.
var WithGrok = quick.WithGrok

// WithModel overrides the model name.
var WithModel = quick.WithModel

// WithBaseURL overrides the backend's default base URL.
var WithBaseURL = quick.WithBaseURL

// WithAPIKey overrides the API key for provider shortcuts.
var WithAPIKey = quick.WithAPIKey

// WithLogger sets a custom zap logger.
var WithLogger = quick.WithLogger

// Complete sends one prompt and returns the first choice's content.
var Complete = quick.Complete

// Stream sends one prompt and concatenates the streamed deltas.
var Stream = quick.Stream
