// Copyright 2026 Modelflow Authors. All rights reserved.
// Use of this source code is governed by the project license.

// Package config loads the modelflow configuration from defaults, an
// optional YAML file and the environment, in that precedence order.
//
//	cfg, err := config.Load("modelflow.yaml")
//
// Environment overrides use the MODELFLOW_ prefix with the section and
// field joined by underscores (MODELFLOW_LOG_LEVEL,
// MODELFLOW_CACHE_REDIS_ADDR). The conventional unprefixed provider
// keys (OPENROUTER_API_KEY, DEEPSEEK_API_KEY, XAI_API_KEY) are also
// honored so users never have to duplicate them.
//
// Validate rejects configurations that would only fail at request time,
// such as an enabled provider with no API key.
package config
