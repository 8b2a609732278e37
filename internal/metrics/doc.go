// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package metrics provides Prometheus-based instrumentation for LLM
traffic and caching.

# Overview

The package registers its instruments through a Collector using the
promauto auto-registration mechanism, so callers never manage a
Registry by hand. Instruments are isolated per namespace and grouped by
labels for dashboarding and alerting.

# Instruments

  - LLM: request totals, request latency, token usage
    (prompt/completion), cost in USD, delivered stream chunks, and a
    gauge of currently open streams, grouped by provider/model.
  - Cache: hit and miss counters grouped by cache_type.
*/
package metrics
