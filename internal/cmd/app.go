package cmd

import (
	"fmt"
	"net/http"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/trilingua/trilingua/internal/ailink"
	"github.com/trilingua/trilingua/internal/config"
	"github.com/trilingua/trilingua/internal/core/dictionary"
	"github.com/trilingua/trilingua/internal/core/engine"
	"github.com/trilingua/trilingua/internal/core/reference"
)

// app holds the components shared by serve and the one-shot commands. Each is
// constructed once per process.
type app struct {
	cfg        *config.Config
	models     *ailink.ModelRegistry
	gate       *engine.Gate
	reference  *reference.Cache
	llm        *ailink.Service
	dictionary *dictionary.Service
}

func buildApp(cfg *config.Config, logger *logging.Logger) (*app, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	models, err := ailink.LoadModels(cfg.AILink.ModelsFile)
	if err != nil && logger != nil {
		// The registry still holds the defaults.
		logger.Warn("Using default model catalog",
			zap.String("path", cfg.AILink.ModelsFile),
			zap.Error(err))
	}
	if logger != nil {
		logger.Debug("Model catalog loaded",
			zap.String("source", string(models.Source())),
			zap.Int("models", models.Len()))
	}

	gate, err := engine.NewGateFromRate(cfg.Admission.RateLimit, cfg.Admission.AutocompleteMultiplier)
	if err != nil {
		return nil, fmt.Errorf("admission gate: %w", err)
	}

	var refCache *reference.Cache
	if cfg.Reference.Enabled {
		fetcher := &reference.WeblioFetcher{
			BaseURL:   cfg.Reference.BaseURL,
			Client:    &http.Client{},
			UserAgent: cfg.Reference.UserAgent,
		}
		refCache, err = reference.NewCache(fetcher, reference.Options{
			Capacity: cfg.Reference.Capacity,
			Timeout:  cfg.Reference.Timeout,
			MaxChars: cfg.Reference.MaxChars,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
	}

	llm, err := ailink.NewService(cfg.AILink, logger)
	if err != nil {
		return nil, err
	}

	svc := &dictionary.Service{
		Gate:   gate,
		Models: models,
		LLM:    llm,
		Logger: logger,
	}
	// A typed nil cache must not become a non-nil interface.
	if refCache != nil {
		svc.Reference = refCache
	}

	return &app{
		cfg:        cfg,
		models:     models,
		gate:       gate,
		reference:  refCache,
		llm:        llm,
		dictionary: svc,
	}, nil
}
