package dictionary

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/trilingua/trilingua/internal/core/engine"
)

// DefaultPreferredLanguage lets the model detect the query language.
const DefaultPreferredLanguage = "auto"

// MinSentenceWords is the fewest words a sentence request may carry.
const MinSentenceWords = 2

// LookupRequest asks for a trilingual dictionary entry.
type LookupRequest struct {
	Query             string `json:"query"`
	Model             string `json:"model"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
}

// AutocompleteRequest asks for completions of a partial input.
type AutocompleteRequest struct {
	PartialInput string `json:"partialInput"`
	Model        string `json:"model"`
}

// SentenceRequest asks for one sentence built from Words. Each word is passed
// to the model verbatim, so plain strings and {word, lang} objects both work.
type SentenceRequest struct {
	Words []json.RawMessage `json:"words"`
	Model string            `json:"model"`
}

// Entry is the structured object recovered from model output. It is empty,
// never nil, when the output held no usable JSON object.
type Entry map[string]any

// Suggestions is the autocomplete result.
type Suggestions struct {
	Suggestions []string `json:"suggestions"`
}

// ErrGateNotConfigured is returned by every path of a Service built without a gate.
var ErrGateNotConfigured = errors.New("admission gate not configured")

// ErrRateLimited is matched by every RateLimitError.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitError reports an admission denial.
type RateLimitError struct {
	Window     engine.Window
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s window", e.Window)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds rounds the wait up to whole seconds, at least one.
func (e *RateLimitError) RetryAfterSeconds() int {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// ValidationError reports a request the service refuses to run.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
