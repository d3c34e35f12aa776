// Package config loads and validates the service configuration: JSON file
// layers with defaults underneath and environment overrides on top.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Duration wraps time.Duration so JSON config can carry human-readable
// values ("24h", "90s") as well as raw nanoseconds.
type Duration time.Duration

// UnmarshalJSON accepts either a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := parseDurationWithDays(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration value %v", v)
	}
}

// MarshalJSON renders the duration in its string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// parseDurationWithDays parses durations that may include days (e.g. "14d").
func parseDurationWithDays(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days := strings.TrimSuffix(s, "d")
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// Config represents the complete application configuration.
type Config struct {
	Service ServiceConfig `json:"service"`
	Cache   CacheConfig   `json:"cache"`
	Fetch   FetchConfig   `json:"fetch"`
	NATS    NATSConfig    `json:"nats"`
	Gateway GatewayConfig `json:"gateway"`
}

// ServiceConfig defines service identity.
type ServiceConfig struct {
	Name        string `json:"name"`
	Environment string `json:"environment,omitempty"` // "prod", "dev", "test"
}

// CacheConfig defines cache behavior.
type CacheConfig struct {
	// DefaultLocale is the locale used when a caller does not say.
	DefaultLocale string `json:"default_locale"`
	// DesiredLocales are the locales bulk operations ensure by default.
	DesiredLocales []string `json:"desired_locales,omitempty"`
	// FailurePolicy is "surface" or "suppress".
	FailurePolicy string `json:"failure_policy,omitempty"`
	// ProfileTTL is the sliding retention window for regular profiles.
	ProfileTTL Duration `json:"profile_ttl,omitempty"`
	// SweepInterval is how often the expiry sweep runs.
	SweepInterval Duration `json:"sweep_interval,omitempty"`
}

// FetchConfig defines upstream fetch behavior.
type FetchConfig struct {
	Timeout    Duration `json:"timeout,omitempty"`
	MaxRetries int      `json:"max_retries,omitempty"`
	RetryWait  Duration `json:"retry_wait,omitempty"`
}

// NATSConfig defines NATS connection settings.
type NATSConfig struct {
	URL            string   `json:"url,omitempty"`
	Name           string   `json:"name,omitempty"`
	MaxReconnects  int      `json:"max_reconnects,omitempty"`
	ReconnectWait  Duration `json:"reconnect_wait,omitempty"`
	ConnectTimeout Duration `json:"connect_timeout,omitempty"`
	DrainTimeout   Duration `json:"drain_timeout,omitempty"`
}

// GatewayConfig defines the ops HTTP server settings.
type GatewayConfig struct {
	Addr    string `json:"addr,omitempty"`
	Enabled bool   `json:"enabled"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "sportscache",
			Environment: "dev",
		},
		Cache: CacheConfig{
			DefaultLocale:  "en",
			DesiredLocales: []string{"en"},
			FailurePolicy:  "surface",
			ProfileTTL:     Duration(24 * time.Hour),
			SweepInterval:  Duration(10 * time.Minute),
		},
		Fetch: FetchConfig{
			Timeout:    Duration(10 * time.Second),
			MaxRetries: 3,
			RetryWait:  Duration(500 * time.Millisecond),
		},
		NATS: NATSConfig{
			URL:            "nats://localhost:4222",
			Name:           "sportscache",
			MaxReconnects:  -1,
			ReconnectWait:  Duration(2 * time.Second),
			ConnectTimeout: Duration(5 * time.Second),
			DrainTimeout:   Duration(10 * time.Second),
		},
		Gateway: GatewayConfig{
			Addr:    ":8080",
			Enabled: true,
		},
	}
}

// Validate checks if the config is valid and normalizes locale casing.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return errors.New("service.name is required")
	}

	if c.Cache.DefaultLocale == "" {
		return errors.New("cache.default_locale is required")
	}
	c.Cache.DefaultLocale = strings.ToLower(c.Cache.DefaultLocale)
	for i, locale := range c.Cache.DesiredLocales {
		if locale == "" {
			return fmt.Errorf("cache.desired_locales[%d] is empty", i)
		}
		c.Cache.DesiredLocales[i] = strings.ToLower(locale)
	}
	if !containsLocale(c.Cache.DesiredLocales, c.Cache.DefaultLocale) {
		c.Cache.DesiredLocales = append([]string{c.Cache.DefaultLocale}, c.Cache.DesiredLocales...)
	}

	switch c.Cache.FailurePolicy {
	case "", "surface", "suppress":
	default:
		return fmt.Errorf("cache.failure_policy %q must be \"surface\" or \"suppress\"", c.Cache.FailurePolicy)
	}

	if c.Cache.ProfileTTL < 0 {
		return errors.New("cache.profile_ttl cannot be negative")
	}
	if c.Fetch.Timeout.Std() <= 0 {
		return errors.New("fetch.timeout must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		return errors.New("fetch.max_retries cannot be negative")
	}

	if c.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if c.Gateway.Enabled && c.Gateway.Addr == "" {
		return errors.New("gateway.addr is required when the gateway is enabled")
	}

	return nil
}

func containsLocale(locales []string, locale string) bool {
	for _, l := range locales {
		if l == locale {
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// Load reads the config file at path over the defaults and applies
// environment overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides layers SPORTSCACHE_* environment variables on top of the
// loaded config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPORTSCACHE_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("SPORTSCACHE_GATEWAY_ADDR"); v != "" {
		cfg.Gateway.Addr = v
	}
	if v := os.Getenv("SPORTSCACHE_DEFAULT_LOCALE"); v != "" {
		cfg.Cache.DefaultLocale = v
	}
	if v := os.Getenv("SPORTSCACHE_LOCALES"); v != "" {
		parts := strings.Split(v, ",")
		locales := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				locales = append(locales, p)
			}
		}
		if len(locales) > 0 {
			cfg.Cache.DesiredLocales = locales
		}
	}
	if v := os.Getenv("SPORTSCACHE_FAILURE_POLICY"); v != "" {
		cfg.Cache.FailurePolicy = v
	}
	if v := os.Getenv("SPORTSCACHE_ENVIRONMENT"); v != "" {
		cfg.Service.Environment = v
	}
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{
		config: cfg,
	}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}
