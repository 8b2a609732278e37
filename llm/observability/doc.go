// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package observability instruments chat requests with OpenTelemetry
// spans and metrics, and prices token usage in USD.
//
// ObservedProvider wraps any llm.Provider: completions get a span and
// the full instrument set; streams are relayed with chunk counting and
// priced from the usage on the terminal chunk. A RequestRecorder can
// mirror outcomes into a second backend such as the Prometheus
// collector, and a CostTracker accumulates a session-level summary for
// display.
package observability
