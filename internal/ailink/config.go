package ailink

import "time"

// Config defines the LLM provider configuration.
type Config struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`

	// ModelsFile points at the {"MODELS":[{id,name}]} catalog shared with the frontend.
	ModelsFile string `mapstructure:"models_file"`

	// PromptsDir allows operators to override the built-in prompt set by slug.
	PromptsDir string `mapstructure:"prompts_dir"`

	// Debug controls optional diagnostics like raw payload capture.
	Debug DebugConfig `mapstructure:"debug"`
}

type DebugConfig struct {
	CaptureRawEnabled  bool `mapstructure:"capture_raw_enabled"`
	CaptureRawMaxBytes int  `mapstructure:"capture_raw_max_bytes"`
}

// HasAPIKey reports whether a provider key is configured.
func (c Config) HasAPIKey() bool {
	return len(c.APIKey) > 0
}
