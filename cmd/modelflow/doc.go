// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Command modelflow is a small CLI over the modelflow client library:
// one-shot chat (blocking or streaming) against any configured
// provider, plus a usage-ledger summary.
package main
