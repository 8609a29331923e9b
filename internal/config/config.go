package config

import (
	"time"

	"github.com/trilingua/trilingua/internal/ailink"
)

// Config represents the complete application configuration. Values are
// layered defaults, then an optional YAML file, then TRILINGUA_* environment.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	AILink    ailink.Config   `mapstructure:"ailink"`
	Admission AdmissionConfig `mapstructure:"admission"`
	Reference ReferenceConfig `mapstructure:"reference"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Freshness FreshnessConfig `mapstructure:"freshness"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AdminToken enables POST /admin/signal when set.
	AdminToken string `mapstructure:"admin_token"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated exporter port; /metrics on the main port proxies it.
	Port int `mapstructure:"port"`
}

// AdmissionConfig sizes the global admission windows. Lookup and sentence
// requests share one window at RateLimit per minute; autocomplete runs at
// RateLimit*AutocompleteMultiplier per minute.
type AdmissionConfig struct {
	RateLimit              float64 `mapstructure:"rate_limit"`
	AutocompleteMultiplier float64 `mapstructure:"autocomplete_multiplier"`
}

// ReferenceConfig controls dictionary-page augmentation of lookups.
type ReferenceConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Capacity  int           `mapstructure:"capacity"`
	MaxChars  int           `mapstructure:"max_chars"`
	UserAgent string        `mapstructure:"user_agent"`
}

// AuthConfig controls the optional bearer-token gate on /api.
type AuthConfig struct {
	SharedSecret string        `mapstructure:"shared_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

// FreshnessConfig bounds client timestamp drift.
type FreshnessConfig struct {
	Window time.Duration `mapstructure:"window"`
}

// CORSConfig lists permitted browser origins; empty means any.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}
