// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package deepseek adapts the DeepSeek API. DeepSeek is
// OpenAI-compatible, so the package embeds openaicompat.Provider and
// customizes only the defaults: base URL https://api.deepseek.com,
// fallback model deepseek-chat, unversioned endpoint paths. A request
// hook routes to deepseek-reasoner when request metadata asks for
// reasoning and no model is pinned.
package deepseek
