package metrics

import (
	"time"

	"github.com/trilingua/trilingua/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Admission gate decisions, labelled by window and outcome
	AdmissionDecisionsTotal = "admission_decisions_total"

	// Reference cache lookups, labelled by outcome (hit, miss, failure)
	ReferenceCacheTotal = "reference_cache_total"

	// Model calls, labelled by path and outcome
	LLMRequestsTotal   = "llm_requests_total"
	LLMRequestDuration = "llm_request_duration_ms"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordAdmission records an admission gate decision for a window.
func RecordAdmission(window string, allowed bool) {
	outcome := "admitted"
	if !allowed {
		outcome = "denied"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AdmissionDecisionsTotal,
			1,
			map[string]string{
				"window":  window,
				"outcome": outcome,
			},
		)
	}
}

// RecordReferenceLookup records the outcome of a reference cache lookup.
func RecordReferenceLookup(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ReferenceCacheTotal,
			1,
			map[string]string{"outcome": outcome},
		)
	}
}

// RecordLLMRequest records a model call for a dictionary path.
func RecordLLMRequest(path string, outcome string, duration time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			LLMRequestsTotal,
			1,
			map[string]string{
				"path":    path,
				"outcome": outcome,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			LLMRequestDuration,
			duration,
			map[string]string{"path": path},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
