// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package providers is the shared adapter layer under every concrete
backend. The provider subpackages (openrouter, deepseek, grok) rely on
it for request/response conversion, error mapping and configuration.

# Core types

  - BaseProviderConfig — configuration fields every provider shares
    (APIKey, BaseURL, Model, FallbackModel, Timeout)
  - OpenAICompat* — OpenAI-compatible wire structures for both the
    blocking response shape and the streaming delta shape
  - RoutePreferences — OpenRouter upstream routing preferences

# Core functions

  - MapHTTPError — maps HTTP statuses to semantic llm.Error values
    (401/403/429/5xx/529, quota keyword detection on 400)
  - ReadErrorMessage — extracts a message from an error response body
  - ConvertMessagesToOpenAI / ConvertToolsToOpenAI — domain-to-wire
    conversion for messages and tool schemas
  - DecodeArgumentsJSON — normalizes tool-call argument payloads to
    valid JSON, degrading to null when undecodable
  - ToLLMChatResponse — wire response to llm.ChatResponse conversion
  - ChooseModel — request > default > fallback model resolution
  - ListModelsOpenAICompat — shared model-listing fetch
*/
package providers
