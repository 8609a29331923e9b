package ailink

import (
	"context"
	"errors"
	"strings"

	"github.com/trilingua/trilingua/internal/ailink/driver"
)

func mapProviderError(err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeProviderTimeout, Message: "provider request timed out", Err: err}
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		details := safeOneLine(perr.Message)
		switch perr.Class() {
		case driver.ClassAuth:
			return &Error{Code: CodeProviderAuth, Message: "provider authentication failed", Details: details, Err: err}
		case driver.ClassRateLimit:
			return &Error{Code: CodeProviderRateLimit, Message: "provider rate limited", Details: details, Err: err}
		case driver.ClassUnavailable:
			return &Error{Code: CodeProviderUnavailable, Message: "provider unavailable", Details: details, Err: err}
		case driver.ClassBadRequest:
			return &Error{Code: CodeProviderBadRequest, Message: "provider rejected request", Details: details, Err: err}
		default:
			return &Error{Code: CodeProviderError, Message: "provider request failed", Details: details, Err: err}
		}
	}

	return &Error{Code: CodeProviderError, Message: "provider request failed", Details: strings.TrimSpace(err.Error()), Err: err}
}
