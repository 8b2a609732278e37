// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package middleware provides request rewriting for provider adapters.

Rewriters run inside a provider immediately before wire encoding, so
every path into the backend (blocking and streaming) passes through
them. They exist for small wire-hygiene fixes that are independent of
any one backend.

# Core interfaces

  - RequestRewriter — Rewrite(ctx, *ChatRequest) plus a Name for logs
  - RewriterChain — runs rewriters in order, first error aborts

# Built-in rewriters

  - EmptyToolsCleaner — clears tool_choice when no tools are declared,
    which OpenAI-compatible backends otherwise reject with a 400
*/
package middleware
