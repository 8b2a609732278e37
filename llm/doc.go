// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package llm defines the provider abstraction for OpenAI-compatible chat
completion APIs: request/response types, the streaming chunk model, a
shared error taxonomy, and lifecycle helpers (registry, factory,
credential overrides, client-side rate limiting).

# Provider abstraction

The core interface is [Provider]: non-streaming completion, SSE
streaming, health checking, and capability declaration. Concrete
backends live under llm/providers; they all share one wire codec and
one streaming decoder, so switching providers never changes calling
code.

# Streaming model

[Provider.Stream] returns a bounded, ordered channel of [StreamChunk].
Content arrives incrementally in Delta.Content; tool calls are
assembled internally from their wire fragments and surfaced complete on
the final chunk; token usage rides the final chunk as well. Exactly one
chunk per stream has Done set, and it is always the last one delivered
unless the transport itself failed, in which case a single chunk with
Err set ends the sequence instead.

# Errors

Provider-facing failures are [*Error] values carrying a stable [ErrorCode],
the upstream HTTP status, and a retryability hint. Mid-stream failures
reuse the same type on [StreamChunk.Err].

# Related packages

  - llm/providers: wire codec and backend implementations.
  - llm/cache: two-tier response cache.
  - llm/tokenizer: token counting and estimation.
  - llm/observability: metrics, tracing and cost accounting.
  - llm/usagelog: persistent per-request usage ledger.
*/
package llm
