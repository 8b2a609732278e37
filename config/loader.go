// =============================================================================
// Modelflow Configuration Loader
// =============================================================================
// Unified configuration loading: YAML file + environment overrides.
//
// Usage:
//
//	cfg, err := config.Load("modelflow.yaml")
//
// Precedence: defaults → YAML file → environment variables.
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete modelflow configuration.
type Config struct {
	// Log controls the zap logger.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry controls OTLP trace/metric export.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Cache controls the response cache.
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// UsageLog controls the per-request usage ledger.
	UsageLog UsageLogConfig `yaml:"usage_log" env:"USAGE_LOG"`

	// Limits controls client-side rate limiting.
	Limits LimitsConfig `yaml:"limits" env:"LIMITS"`

	// Providers configures the chat backends.
	Providers ProvidersConfig `yaml:"providers" env:"PROVIDERS"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format string `yaml:"format" env:"FORMAT"`
}

// TelemetryConfig configures OTLP export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"endpoint" env:"ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO"`
}

// CacheConfig configures the response cache. An empty RedisAddr keeps
// the cache local-only.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" env:"ENABLED"`
	TTL        time.Duration `yaml:"ttl" env:"TTL"`
	MaxEntries int           `yaml:"max_entries" env:"MAX_ENTRIES"`
	RedisAddr  string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	KeyPrefix  string        `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// UsageLogConfig configures the usage ledger.
type UsageLogConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// LimitsConfig configures client-side throttling. Zero
// RequestsPerMinute disables it.
type LimitsConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
	Burst             int `yaml:"burst" env:"BURST"`
}

// ProvidersConfig holds the per-backend settings and the default
// provider name.
type ProvidersConfig struct {
	Default    string             `yaml:"default" env:"DEFAULT"`
	OpenRouter OpenRouterSettings `yaml:"openrouter" env:"OPENROUTER"`
	DeepSeek   ProviderSettings   `yaml:"deepseek" env:"DEEPSEEK"`
	Grok       ProviderSettings   `yaml:"grok" env:"GROK"`
}

// ProviderSettings is the common per-backend configuration.
type ProviderSettings struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Model   string        `yaml:"model" env:"MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// OpenRouterSettings extends the common settings with OpenRouter's
// attribution headers.
type OpenRouterSettings struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	APIKey   string        `yaml:"api_key" env:"API_KEY"`
	BaseURL  string        `yaml:"base_url" env:"BASE_URL"`
	Model    string        `yaml:"model" env:"MODEL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
	SiteURL  string        `yaml:"site_url" env:"SITE_URL"`
	SiteName string        `yaml:"site_name" env:"SITE_NAME"`
}

// Loader builds a Config from defaults, a YAML file and the
// environment.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the MODELFLOW env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "MODELFLOW",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file to merge over the defaults. A
// missing file is not an error.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator appends a validation step run after merging.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load merges defaults → file → environment and runs the validators.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	applyWellKnownEnv(cfg)

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv walks the struct, mapping nested fields to
// PREFIX_SECTION_FIELD environment variables via their env tags.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// applyWellKnownEnv maps the conventional unprefixed variables that
// users already have exported.
func applyWellKnownEnv(cfg *Config) {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.Providers.OpenRouter.APIKey = v
	}
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
		cfg.Providers.DeepSeek.APIKey = v
	}
	if v := os.Getenv("XAI_API_KEY"); v != "" {
		cfg.Providers.Grok.APIKey = v
	}
	if v := os.Getenv("MODELFLOW_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// Load merges defaults → path → environment. A missing file leaves
// the defaults in place.
func Load(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}

// MustLoad is Load, panicking on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate rejects configurations that would fail at request time:
// enabled providers without keys, malformed levels and rates.
func (c *Config) Validate() error {
	var errs []string

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry enabled without an endpoint")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry sample_ratio must be within [0, 1]")
	}

	if c.Limits.RequestsPerMinute < 0 {
		errs = append(errs, "limits.requests_per_minute must not be negative")
	}
	if c.Limits.RequestsPerMinute > 0 && c.Limits.Burst <= 0 {
		errs = append(errs, "limits.burst must be positive when rate limiting is on")
	}

	if c.UsageLog.Enabled && c.UsageLog.Path == "" {
		errs = append(errs, "usage_log enabled without a path")
	}

	// An enabled provider with no key fails here, not on the first
	// request.
	if c.Providers.OpenRouter.Enabled && c.Providers.OpenRouter.APIKey == "" {
		errs = append(errs, "provider openrouter enabled without an API key")
	}
	if c.Providers.DeepSeek.Enabled && c.Providers.DeepSeek.APIKey == "" {
		errs = append(errs, "provider deepseek enabled without an API key")
	}
	if c.Providers.Grok.Enabled && c.Providers.Grok.APIKey == "" {
		errs = append(errs, "provider grok enabled without an API key")
	}

	if c.Providers.Default != "" {
		switch c.Providers.Default {
		case "openrouter", "deepseek", "grok":
		default:
			errs = append(errs, fmt.Sprintf("unknown default provider %q", c.Providers.Default))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
