package driver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ErrorClass buckets provider failures by how the relay reports them.
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	ClassAuth
	ClassRateLimit
	ClassBadRequest
	ClassUnavailable
)

// ProviderError is returned when a provider answers with a non-2xx status
// or an undecodable body. RawResponse never includes API keys.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RawResponse []byte
}

// NewProviderError builds an error from a provider response body,
// preferring the OpenAI-style {"error":{"message":...}} text when present.
func NewProviderError(provider string, status int, body []byte) *ProviderError {
	return &ProviderError{
		Provider:    provider,
		StatusCode:  status,
		Message:     errorMessage(body),
		RawResponse: body,
	}
}

func errorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &nested) == nil && strings.TrimSpace(nested.Message) != "" {
			return strings.TrimSpace(nested.Message)
		}
		var flat string
		if json.Unmarshal(envelope.Error, &flat) == nil && strings.TrimSpace(flat) != "" {
			return strings.TrimSpace(flat)
		}
	}
	return strings.TrimSpace(string(body))
}

// Class reports which bucket the status code falls into.
func (e *ProviderError) Class() ErrorClass {
	if e == nil {
		return ClassUnknown
	}
	switch s := e.StatusCode; {
	case s == http.StatusUnauthorized || s == http.StatusForbidden:
		return ClassAuth
	case s == http.StatusTooManyRequests:
		return ClassRateLimit
	case s >= 500 && s <= 599:
		return ClassUnavailable
	case s >= 400 && s <= 499:
		return ClassBadRequest
	default:
		return ClassUnknown
	}
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}
