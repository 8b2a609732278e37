// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package openaicompat provides the shared base implementation for all
// OpenAI-compatible chat completion backends.
//
// OpenRouter, DeepSeek and Grok speak the same wire dialect (OpenAI
// Chat Completions plus SSE streaming). Instead of duplicating the HTTP
// handling, stream decoding, message conversion and error mapping in
// each of them, they embed openaicompat.Provider and override only what
// differs:
//
//   - provider name and default model
//   - base URL and endpoint paths
//   - custom headers (attribution, organization)
//   - request hooks for provider-specific body fields
//
// Usage:
//
//	p := openaicompat.New(openaicompat.Config{
//	    ProviderName: "deepseek",
//	    APIKey:       cfg.APIKey,
//	    BaseURL:      "https://api.deepseek.com",
//	    DefaultModel: "deepseek-chat",
//	    RequestHook: func(req *llm.ChatRequest, body *providers.OpenAICompatRequest) {
//	        if req.Metadata["reasoning"] == "true" {
//	            body.Model = "deepseek-reasoner"
//	        }
//	    },
//	}, logger)
//
// Streaming goes through StreamSSE, which turns a server-sent event
// body into a channel of llm.StreamChunk values and guarantees exactly
// one terminal chunk per successfully finished stream.
package openaicompat
