package dictionary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/trilingua/trilingua/internal/ailink"
	"github.com/trilingua/trilingua/internal/core/engine"
	"github.com/trilingua/trilingua/internal/core/reference"
	"github.com/trilingua/trilingua/internal/metrics"
)

// Completer runs a rendered prompt against a model.
type Completer interface {
	Complete(ctx context.Context, req ailink.CompletionRequest) (*ailink.Completion, error)
}

// ReferenceSource supplies dictionary text used to ground lookups.
type ReferenceSource interface {
	Lookup(ctx context.Context, term string) (string, reference.Outcome)
}

// Service runs the lookup, autocomplete and sentence paths. Every path asks the
// gate first and returns a RateLimitError on denial without any external work.
type Service struct {
	Gate      *engine.Gate
	Reference ReferenceSource
	Models    *ailink.ModelRegistry
	LLM       Completer
	Logger    *logging.Logger
}

// Lookup returns a structured dictionary entry for the query.
func (s *Service) Lookup(ctx context.Context, req LookupRequest) (Entry, error) {
	if err := s.admit(engine.WindowLookup); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "No query provided"}
	}
	if err := s.checkModel(req.Model); err != nil {
		return nil, err
	}

	language := strings.TrimSpace(req.PreferredLanguage)
	if language == "" {
		language = DefaultPreferredLanguage
	}

	referenceText := s.referenceText(ctx, query)

	completion, err := s.complete(ctx, "lookup", ailink.CompletionRequest{
		PromptSlug: ailink.PromptLookup,
		Model:      req.Model,
		Variables: map[string]string{
			"query":              query,
			"preferred_language": language,
			"reference":          referenceText,
		},
	})
	if err != nil {
		return nil, err
	}
	return Entry(ailink.ExtractObject(completion.Text)), nil
}

// Autocomplete returns up to three completions. An empty partial input yields
// an empty list without consulting the model.
func (s *Service) Autocomplete(ctx context.Context, req AutocompleteRequest) (*Suggestions, error) {
	if err := s.admit(engine.WindowAutocomplete); err != nil {
		return nil, err
	}

	partial := strings.TrimSpace(req.PartialInput)
	if partial == "" {
		return &Suggestions{Suggestions: []string{}}, nil
	}
	if err := s.checkModel(req.Model); err != nil {
		return nil, err
	}

	completion, err := s.complete(ctx, "autocomplete", ailink.CompletionRequest{
		PromptSlug: ailink.PromptAutocomplete,
		Model:      req.Model,
		Variables:  map[string]string{"partial_input": partial},
	})
	if err != nil {
		return nil, err
	}
	return &Suggestions{Suggestions: ailink.ParseSuggestions(completion.Text)}, nil
}

// Sentence returns one sentence using the given words in all three languages.
// It shares the lookup window.
func (s *Service) Sentence(ctx context.Context, req SentenceRequest) (Entry, error) {
	if err := s.admit(engine.WindowLookup); err != nil {
		return nil, err
	}

	if len(req.Words) < MinSentenceWords {
		return nil, &ValidationError{Field: "words", Message: "Not enough words provided."}
	}
	if err := s.checkModel(req.Model); err != nil {
		return nil, err
	}

	words, err := encodeWords(req.Words)
	if err != nil {
		return nil, &ValidationError{Field: "words", Message: "Words must be valid JSON values."}
	}

	completion, err := s.complete(ctx, "sentence", ailink.CompletionRequest{
		PromptSlug: ailink.PromptSentence,
		Model:      req.Model,
		Variables:  map[string]string{"words": words},
	})
	if err != nil {
		return nil, err
	}
	return Entry(ailink.ExtractObject(completion.Text)), nil
}

func (s *Service) admit(window engine.Window) error {
	if s.Gate == nil {
		return ErrGateNotConfigured
	}
	decision := s.Gate.Check(window)
	metrics.RecordAdmission(string(window), decision.Allowed)
	if decision.Allowed {
		return nil
	}
	if s.Logger != nil {
		s.Logger.Info("Request rate limited",
			zap.String("window", string(window)),
			zap.Duration("retry_after", decision.RetryAfter))
	}
	return &RateLimitError{Window: window, RetryAfter: decision.RetryAfter}
}

func (s *Service) checkModel(model string) error {
	if s.Models.Supports(model) {
		return nil
	}
	return &ValidationError{Field: "model", Message: fmt.Sprintf("Model '%s' not supported.", model)}
}

func (s *Service) referenceText(ctx context.Context, term string) string {
	if s.Reference == nil {
		return ""
	}
	text, outcome := s.Reference.Lookup(ctx, term)
	metrics.RecordReferenceLookup(string(outcome))
	return text
}

func (s *Service) complete(ctx context.Context, path string, req ailink.CompletionRequest) (*ailink.Completion, error) {
	if s.LLM == nil {
		return nil, errors.New("model client not configured")
	}

	start := time.Now()
	completion, err := s.LLM.Complete(ctx, req)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordLLMRequest(path, "error", duration)
		if s.Logger != nil {
			s.Logger.Warn("Model call failed",
				zap.String("path", path),
				zap.String("model", req.Model),
				zap.Error(err))
		}
		return nil, err
	}
	metrics.RecordLLMRequest(path, "success", duration)
	return completion, nil
}

// encodeWords renders the word list as compact JSON, keeping non-ASCII text
// and markup characters unescaped.
func encodeWords(words []json.RawMessage) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(words); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
