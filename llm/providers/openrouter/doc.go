// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package openrouter adapts OpenRouter's unified model API. It is the
primary backend: one key reaches every upstream model family, with
server-side routing between them.

The wire dialect is OpenAI-compatible, so the heavy lifting (HTTP,
stream decoding, message conversion, error mapping) lives in the
embedded openaicompat.Provider. This package adds what is specific to
OpenRouter:

  - base URL https://openrouter.ai/api/v1, default model
    anthropic/claude-3.5-sonnet, key fallback to $OPENROUTER_API_KEY
  - HTTP-Referer and X-Title attribution headers when configured
  - routing preferences serialized as the request's provider field
  - configured defaults for max_tokens (4096) and temperature (0.7)
    applied to requests that leave them unset
*/
package openrouter
