package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/trilingua/trilingua/internal/ailink"
	"github.com/trilingua/trilingua/internal/core/dictionary"
	apperrors "github.com/trilingua/trilingua/internal/errors"
)

// DefaultFreshnessWindow is how far a request timestamp may drift from server time.
const DefaultFreshnessWindow = 15 * time.Second

const maxRequestBody = 1 << 20

// DictionaryService is the part of dictionary.Service the HTTP layer drives.
type DictionaryService interface {
	Lookup(ctx context.Context, req dictionary.LookupRequest) (dictionary.Entry, error)
	Autocomplete(ctx context.Context, req dictionary.AutocompleteRequest) (*dictionary.Suggestions, error)
	Sentence(ctx context.Context, req dictionary.SentenceRequest) (dictionary.Entry, error)
}

// DictionaryHandler serves the lookup, autocomplete and sentence endpoints.
//
// Each request is checked in a fixed order: provider key configured, request
// timestamp fresh, then the service applies admission and validation.
type DictionaryHandler struct {
	Service         DictionaryService
	Registry        *ailink.ModelRegistry
	APIKeyPresent   bool
	FreshnessWindow time.Duration
	Clock           func() time.Time
}

type lookupBody struct {
	Query             string  `json:"query"`
	Model             string  `json:"model"`
	PreferredLanguage string  `json:"preferredLanguage"`
	Timestamp         float64 `json:"timestamp"`
}

type autocompleteBody struct {
	PartialInput      string  `json:"partialInput"`
	PartialInputSnake string  `json:"partial_input"`
	Model             string  `json:"model"`
	Timestamp         float64 `json:"timestamp"`
}

type sentenceBody struct {
	Words     []json.RawMessage `json:"words"`
	Model     string            `json:"model"`
	Timestamp float64           `json:"timestamp"`
}

// Lookup handles POST /api/lookup.
func (h *DictionaryHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	var body lookupBody
	if !h.precheck(w, r, &body, func() float64 { return body.Timestamp }) {
		return
	}

	entry, err := h.Service.Lookup(r.Context(), dictionary.LookupRequest{
		Query:             body.Query,
		Model:             body.Model,
		PreferredLanguage: body.PreferredLanguage,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Autocomplete handles POST /api/autocomplete.
func (h *DictionaryHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	var body autocompleteBody
	if !h.precheck(w, r, &body, func() float64 { return body.Timestamp }) {
		return
	}

	partial := body.PartialInput
	if partial == "" {
		partial = body.PartialInputSnake
	}
	suggestions, err := h.Service.Autocomplete(r.Context(), dictionary.AutocompleteRequest{
		PartialInput: partial,
		Model:        body.Model,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// Sentence handles POST /api/generate-sentence.
func (h *DictionaryHandler) Sentence(w http.ResponseWriter, r *http.Request) {
	var body sentenceBody
	if !h.precheck(w, r, &body, func() float64 { return body.Timestamp }) {
		return
	}

	entry, err := h.Service.Sentence(r.Context(), dictionary.SentenceRequest{
		Words: body.Words,
		Model: body.Model,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Models handles GET /api/models, listing the registry in its configured order.
func (h *DictionaryHandler) Models(w http.ResponseWriter, r *http.Request) {
	models := []ailink.Model{}
	if h.Registry != nil {
		models = h.Registry.List()
	}
	writeJSON(w, http.StatusOK, models)
}

// precheck decodes the body and runs the checks that precede the service.
// timestamp is read after decoding.
func (h *DictionaryHandler) precheck(w http.ResponseWriter, r *http.Request, body interface{}, timestamp func() float64) bool {
	if !h.APIKeyPresent {
		respondWithError(w, r, apperrors.WrapConfigInvalid(r.Context(), nil, "API_KEY not configured on server"))
		return false
	}

	if err := decodeBody(r, body); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Invalid JSON body."))
		return false
	}

	if !h.fresh(timestamp()) {
		respondWithError(w, r, apperrors.WrapForbidden(r.Context(), nil, "Invalid request."))
		return false
	}
	return true
}

// fresh reports whether a millisecond epoch timestamp lies within the window.
func (h *DictionaryHandler) fresh(timestampMillis float64) bool {
	window := h.FreshnessWindow
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	now := time.Now()
	if h.Clock != nil {
		now = h.Clock()
	}
	nowSeconds := float64(now.UnixNano()) / float64(time.Second)
	drift := math.Abs(nowSeconds - timestampMillis/1000)
	return drift <= window.Seconds()
}

// decodeBody reads a JSON object. An empty body decodes as {}.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
