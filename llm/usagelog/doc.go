// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package usagelog keeps a per-request usage ledger in SQLite.
//
// Every successful chat request becomes one Entry with its token
// counts and cost. RecordingProvider wraps any llm.Provider and tees
// usage into the store: for completions from the response, for streams
// from the terminal chunk after the relay drains. Providers that omit
// usage get heuristic token counts, marked Estimated.
//
//	store, err := usagelog.Open("modelflow.db", logger)
//	provider = usagelog.NewRecordingProvider(provider, store, logger)
package usagelog
