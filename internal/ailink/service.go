package ailink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/trilingua/trilingua/internal/ailink/content"
	"github.com/trilingua/trilingua/internal/ailink/driver"
	"github.com/trilingua/trilingua/internal/ailink/driver/openai"
	"github.com/trilingua/trilingua/internal/ailink/prompt"
)

// Prompt slugs the dictionary relies on.
const (
	PromptLookup       = "lookup"
	PromptAutocomplete = "autocomplete"
	PromptSentence     = "sentence"
)

const (
	defaultTimeout = 30 * time.Second
	maxTimeout     = 5 * time.Minute
)

// CompletionRequest selects a prompt, a model and the template variables.
type CompletionRequest struct {
	PromptSlug string
	Model      string
	Variables  map[string]string
}

// Completion is the raw model text for a rendered prompt.
type Completion struct {
	PromptSlug   string
	Model        string
	Text         string
	FinishReason string
	Usage        *driver.Usage
	Duration     time.Duration
	// Raw is set only when raw capture is enabled.
	Raw string
}

// Service renders prompts and executes them against the configured driver.
type Service struct {
	Driver  driver.Driver
	Prompts prompt.Registry
	Config  Config
	Logger  *logging.Logger
}

// NewService wires the OpenAI-compatible driver and the prompt set described by cfg.
func NewService(cfg Config, logger *logging.Logger) (*Service, error) {
	prompts, err := prompt.LoadRegistry(cfg.PromptsDir)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	if err := prompts.Require(PromptLookup, PromptAutocomplete, PromptSentence); err != nil {
		return nil, err
	}

	client := openai.NewClient(cfg.BaseURL, cfg.APIKey)
	client.Timeout = effectiveTimeout(cfg.DefaultTimeout)

	return &Service{Driver: client, Prompts: prompts, Config: cfg, Logger: logger}, nil
}

// Complete renders the prompt and returns the model's text. The call is bounded
// by the configured timeout and never retried.
func (s *Service) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if s == nil || s.Driver == nil {
		return nil, errors.New("ailink driver not configured")
	}
	if s.Prompts == nil {
		return nil, errors.New("ailink prompt registry not configured")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, errors.New("model is required")
	}

	def, err := s.Prompts.Get(req.PromptSlug)
	if err != nil {
		return nil, err
	}

	systemPrompt, userPrompt, err := renderPrompt(def, req.Variables)
	if err != nil {
		return nil, err
	}

	driverReq, err := s.buildRequest(def, model, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, effectiveTimeout(s.Config.DefaultTimeout))
	defer cancel()

	start := time.Now()
	resp, err := s.Driver.Complete(ctx, driverReq)
	duration := time.Since(start)
	if err != nil {
		mapped := mapProviderError(err)
		s.debug("Model call failed",
			zap.String("prompt", def.Config.Slug),
			zap.String("model", model),
			zap.String("code", mapped.Code),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, mapped
	}

	text := resp.Text()
	s.debug("Model response",
		zap.String("prompt", def.Config.Slug),
		zap.String("model", model),
		zap.String("finish_reason", resp.FinishReason),
		zap.Duration("duration", duration),
		zap.String("raw", safeOneLine(string(truncateBytes([]byte(text), 4096)))))

	completion := &Completion{
		PromptSlug:   def.Config.Slug,
		Model:        model,
		Text:         text,
		FinishReason: resp.FinishReason,
		Usage:        resp.Usage,
		Duration:     duration,
		Raw:          captureRaw(s.Config, text),
	}
	return completion, nil
}

func (s *Service) buildRequest(def *prompt.Prompt, model, systemPrompt, userPrompt string) (*driver.Request, error) {
	temperature, err := def.Config.Temperature()
	if err != nil {
		return nil, err
	}
	maxTokens, err := def.Config.MaxTokens()
	if err != nil {
		return nil, err
	}
	format, err := responseFormatFor(s.Driver, def)
	if err != nil {
		return nil, err
	}

	return &driver.Request{
		Model: model,
		Messages: []content.Message{
			content.TextMessage(content.RoleSystem, systemPrompt),
			content.TextMessage(content.RoleUser, userPrompt),
		},
		ResponseFormat: format,
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		PromptSlug:     def.Config.Slug,
	}, nil
}

func (s *Service) debug(msg string, fields ...zap.Field) {
	if s.Logger == nil {
		return
	}
	s.Logger.Debug(msg, fields...)
}

func effectiveTimeout(configured time.Duration) time.Duration {
	if configured <= 0 {
		return defaultTimeout
	}
	if configured > maxTimeout {
		return maxTimeout
	}
	return configured
}
