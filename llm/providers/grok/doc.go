// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package grok adapts the xAI Grok API. Grok is OpenAI-compatible, so
// the package embeds openaicompat.Provider and sets only the defaults:
// base URL https://api.x.ai, fallback model grok-2-latest, standard
// /v1 endpoint paths.
package grok
