// Package config loads trilingua configuration through viper and decodes it
// into typed structs with mapstructure.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// AppName names the XDG config directory.
	AppName = "trilingua"
	// EnvPrefix prefixes every environment override, e.g. TRILINGUA_SERVER_PORT.
	EnvPrefix = "TRILINGUA"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// legacyEnv maps config keys to the bare variable names older deployments set.
var legacyEnv = map[string]string{
	"ailink.api_key":         "API_KEY",
	"ailink.base_url":        "BASE_URL",
	"ailink.models_file":     "CONFIG_PATH",
	"admission.rate_limit":   "RATE_LIMIT",
	"auth.shared_secret":     "SHARED_SECRET",
	"cors.allowed_origins":   "ALLOWED_ORIGINS",
	"reference.enabled":      "REFERENCE_ENABLED",
	"ailink.default_timeout": "LLM_TIMEOUT",
}

// SetDefaults registers every known key so environment overrides are visible
// to AllSettings.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.admin_token", "")

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("ailink.base_url", "https://api.hyperbolic.xyz/v1")
	v.SetDefault("ailink.api_key", "")
	v.SetDefault("ailink.default_timeout", "30s")
	v.SetDefault("ailink.models_file", "public/config.json")
	v.SetDefault("ailink.prompts_dir", "")
	v.SetDefault("ailink.debug.capture_raw_enabled", false)
	v.SetDefault("ailink.debug.capture_raw_max_bytes", 4096)

	v.SetDefault("admission.rate_limit", 60.0)
	v.SetDefault("admission.autocomplete_multiplier", 3.0)

	v.SetDefault("reference.enabled", true)
	v.SetDefault("reference.base_url", "https://www.weblio.jp")
	v.SetDefault("reference.timeout", "1s")
	v.SetDefault("reference.capacity", 128)
	v.SetDefault("reference.max_chars", 1000)
	v.SetDefault("reference.user_agent", "")

	v.SetDefault("auth.shared_secret", "")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("freshness.window", "15s")

	v.SetDefault("cors.allowed_origins", []string{})
}

// BindEnv enables TRILINGUA_* overrides plus the legacy bare names.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, legacy)
	}
}

// ConfigureFile points v at cfgFile, or at config.yaml in the XDG config
// directory and ./config when cfgFile is empty.
func ConfigureFile(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return
	}
	if dir := gfconfig.GetAppConfigDir(AppName); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// New returns a viper instance with defaults, environment binding and file
// search paths configured. It does not read the file.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	ConfigureFile(v, cfgFile)
	return v
}

// ReadFile reads the configured file. A missing file is not an error when no
// explicit path was given.
func ReadFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read config file: %w", err)
}

// Load decodes v into a validated Config and makes it the current config.
// It is safe to call again on reload.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

func (c *Config) normalize() {
	origins := c.CORS.AllowedOrigins[:0]
	for _, origin := range c.CORS.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	c.CORS.AllowedOrigins = origins
	c.AILink.APIKey = strings.TrimSpace(c.AILink.APIKey)
	c.Auth.SharedSecret = strings.TrimSpace(c.Auth.SharedSecret)
}

// Validate rejects settings the server cannot start with. A missing API key is
// allowed: the dictionary endpoints answer CONFIG_INVALID until one is set.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Admission.RateLimit <= 0 {
		problems = append(problems, "admission.rate_limit must be positive")
	}
	if c.Admission.AutocompleteMultiplier <= 0 {
		problems = append(problems, "admission.autocomplete_multiplier must be positive")
	}
	if c.Freshness.Window <= 0 {
		problems = append(problems, "freshness.window must be positive")
	}
	if c.Reference.Capacity < 0 || c.Reference.MaxChars < 0 {
		problems = append(problems, "reference.capacity and reference.max_chars must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(AppName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}
