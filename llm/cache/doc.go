// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package cache provides a two-tier response cache for chat
// completions: an in-process LRU in front of an optional Redis tier.
//
// Keys are derived from the request identity (provider, model,
// messages, tools) so identical requests against the same provider
// share an entry. CachedProvider wraps any llm.Provider and serves
// deterministic requests (zero temperature, no tools) from the cache;
// everything else, including streaming, passes through untouched.
//
//	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
//	store := cache.NewMultiLevelCache(rdb, cfg, logger)
//	provider = cache.NewCachedProvider(provider, store, collector, logger)
package cache
