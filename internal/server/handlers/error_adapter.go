package handlers

import (
	"errors"
	"net/http"
	"strconv"

	gferrors "github.com/fulmenhq/gofulmen/errors"

	"github.com/trilingua/trilingua/internal/ailink"
	"github.com/trilingua/trilingua/internal/core/dictionary"
	apperrors "github.com/trilingua/trilingua/internal/errors"
)

var defaultHTTPErrorResponder = func(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}

var httpErrorResponder = defaultHTTPErrorResponder

// SetHTTPErrorResponder lets the server package route handler errors through
// its central writer. nil restores the default.
func SetHTTPErrorResponder(responder func(http.ResponseWriter, *http.Request, error)) {
	if responder == nil {
		httpErrorResponder = defaultHTTPErrorResponder
		return
	}
	httpErrorResponder = responder
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	httpErrorResponder(w, r, err)
}

func (h *DictionaryHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	respondWithError(w, r, serviceErrorEnvelope(w, r, err))
}

// serviceErrorEnvelope maps dictionary and provider errors onto API envelopes.
// A rate limit also sets Retry-After.
func serviceErrorEnvelope(w http.ResponseWriter, r *http.Request, err error) *gferrors.ErrorEnvelope {
	ctx := r.Context()

	var rateErr *dictionary.RateLimitError
	if errors.As(err, &rateErr) {
		w.Header().Set("Retry-After", strconv.Itoa(rateErr.RetryAfterSeconds()))
		env := apperrors.NewRateLimitedError("Rate limit exceeded.")
		return env.WithDetails(map[string]interface{}{
			"window":              string(rateErr.Window),
			"retry_after_seconds": rateErr.RetryAfterSeconds(),
		})
	}

	var validationErr *dictionary.ValidationError
	if errors.As(err, &validationErr) {
		env := apperrors.WrapValidationError(ctx, nil, validationErr.Message)
		if validationErr.Field != "" {
			env = env.WithDetails(map[string]interface{}{"field": validationErr.Field})
		}
		return env
	}

	var providerErr *ailink.Error
	if errors.As(err, &providerErr) {
		var env *gferrors.ErrorEnvelope
		if providerErr.Code == ailink.CodeProviderTimeout {
			env = apperrors.WrapTimeout(ctx, nil, providerErr.Message)
		} else {
			env = apperrors.WrapExternalService(ctx, nil, providerErr.Message)
		}
		return env.WithDetails(map[string]interface{}{"provider_code": providerErr.Code})
	}

	if errors.Is(err, dictionary.ErrGateNotConfigured) {
		return apperrors.WrapInternal(ctx, err, "Admission gate not configured.")
	}

	return apperrors.WrapInternal(ctx, err, "Request failed.")
}
