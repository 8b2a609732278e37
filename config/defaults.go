// =============================================================================
// Modelflow Default Configuration
// =============================================================================
// Reasonable defaults for every section. Load() starts from these and
// merges the YAML file and environment on top.
// =============================================================================
package config

import "time"

// DefaultConfig returns the complete default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Cache:     DefaultCacheConfig(),
		UsageLog:  DefaultUsageLogConfig(),
		Limits:    DefaultLimitsConfig(),
		Providers: DefaultProvidersConfig(),
	}
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "console",
	}
}

// DefaultTelemetryConfig returns the default telemetry configuration.
// Telemetry is off until an OTLP endpoint is configured.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "modelflow",
		SampleRate:   1.0,
	}
}

// DefaultCacheConfig returns the default response cache configuration.
// The cache is local-only until a Redis address is configured.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:    false,
		TTL:        5 * time.Minute,
		MaxEntries: 1000,
		KeyPrefix:  "modelflow:cache:",
	}
}

// DefaultUsageLogConfig returns the default usage ledger configuration.
func DefaultUsageLogConfig() UsageLogConfig {
	return UsageLogConfig{
		Enabled: false,
		Path:    "modelflow-usage.db",
	}
}

// DefaultLimitsConfig returns the default rate limit configuration.
// Zero RequestsPerMinute means no client-side throttling.
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		RequestsPerMinute: 0,
		Burst:             1,
	}
}

// DefaultProvidersConfig returns the default provider configuration.
// All backends start disabled; enabling one without an API key fails
// Validate.
func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		Default: "openrouter",
		OpenRouter: OpenRouterSettings{
			Timeout: 30 * time.Second,
		},
		DeepSeek: ProviderSettings{
			Timeout: 30 * time.Second,
		},
		Grok: ProviderSettings{
			Timeout: 30 * time.Second,
		},
	}
}
