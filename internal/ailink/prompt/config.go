package prompt

import (
	"fmt"
	"math"
	"strings"
)

// Response formats a prompt may request from the provider.
const (
	FormatText       = "text"
	FormatJSONObject = "json_object"
	FormatJSONSchema = "json_schema"
)

// Config describes a prompt definition loaded from YAML frontmatter.
type Config struct {
	Slug           string         `yaml:"slug" json:"slug"`
	Name           string         `yaml:"name,omitempty" json:"name,omitempty"`
	Description    string         `yaml:"description,omitempty" json:"description,omitempty"`
	Version        string         `yaml:"version,omitempty" json:"version,omitempty"`
	Input          InputSpec      `yaml:"input,omitempty" json:"input,omitempty"`
	SystemTemplate string         `yaml:"system_template,omitempty" json:"system_template,omitempty"`
	UserTemplate   string         `yaml:"user_template,omitempty" json:"user_template,omitempty"`
	ResponseSchema map[string]any `yaml:"response_schema,omitempty" json:"response_schema,omitempty"`
	ResponseOpts   map[string]any `yaml:"response_options,omitempty" json:"response_options,omitempty"`
}

// InputSpec defines prompt input requirements.
type InputSpec struct {
	RequiredVariables []string `yaml:"required_variables,omitempty" json:"required_variables,omitempty"`
	OptionalVariables []string `yaml:"optional_variables,omitempty" json:"optional_variables,omitempty"`
}

// Prompt wraps a validated prompt configuration with its source.
type Prompt struct {
	Config Config
	Source string
}

// Temperature returns the sampling temperature requested by the prompt, if any.
func (c Config) Temperature() (*float64, error) {
	raw, ok := c.ResponseOpts["temperature"]
	if !ok || raw == nil {
		return nil, nil
	}
	value, ok := toFloat(raw)
	if !ok {
		return nil, fmt.Errorf("temperature must be a number, got %T", raw)
	}
	if value < 0 || value > 2 {
		return nil, fmt.Errorf("temperature %v out of range [0, 2]", value)
	}
	return &value, nil
}

// MaxTokens returns the completion token cap requested by the prompt, if any.
func (c Config) MaxTokens() (*int, error) {
	raw, ok := c.ResponseOpts["max_tokens"]
	if !ok || raw == nil {
		return nil, nil
	}
	value, ok := toFloat(raw)
	if !ok || value != math.Trunc(value) {
		return nil, fmt.Errorf("max_tokens must be an integer, got %v", raw)
	}
	if value <= 0 {
		return nil, fmt.Errorf("max_tokens must be positive, got %v", raw)
	}
	n := int(value)
	return &n, nil
}

// Format returns the requested response format; empty means provider default.
func (c Config) Format() (string, error) {
	raw, ok := c.ResponseOpts["format"]
	if !ok || raw == nil {
		return "", nil
	}
	format, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("format must be a string, got %T", raw)
	}
	format = strings.TrimSpace(format)
	switch format {
	case "", FormatText, FormatJSONObject, FormatJSONSchema:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported response format %q", format)
	}
}

// AttachSchema reports whether the response schema should be sent to the provider
// alongside a json_schema format, rather than only embedded in the prompt text.
func (c Config) AttachSchema() bool {
	value, _ := c.ResponseOpts["attach_schema"].(bool)
	return value
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
