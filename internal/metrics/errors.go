package metrics

import (
	"strconv"
	"strings"

	"github.com/trilingua/trilingua/internal/observability"
)

// Error metric names
const (
	ErrorsTotalName      = "errors_total"
	PanicsTotalName      = "panics_total"
	ErrorsByEndpointName = "errors_by_endpoint"
)

// errorEndpoints are the paths kept verbatim in errors_by_endpoint.
var errorEndpoints = map[string]bool{
	"/api/lookup":            true,
	"/api/autocomplete":      true,
	"/api/generate-sentence": true,
	"/api/models":            true,
	"/metrics":               true,
	"/version":               true,
}

// RecordError counts an error response by envelope code and HTTP status.
func RecordError(errorCode string, httpStatus int) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(ErrorsTotalName, 1, map[string]string{
		"error_code":  errorCode,
		"http_status": strconv.Itoa(httpStatus),
	})
}

// RecordPanic counts a recovered handler panic.
func RecordPanic() {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(PanicsTotalName, 1, nil)
}

// RecordErrorByEndpoint counts an error against its route. Paths outside
// the served set are folded so scanners cannot mint new series.
func RecordErrorByEndpoint(path string, errorCode string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(ErrorsByEndpointName, 1, map[string]string{
		"endpoint":   errorEndpoint(path),
		"error_code": errorCode,
	})
}

func errorEndpoint(path string) string {
	switch {
	case errorEndpoints[path]:
		return path
	case strings.HasPrefix(path, "/health"):
		return "/health/*"
	default:
		return "/unknown"
	}
}
