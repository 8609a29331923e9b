package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trilingua/trilingua/internal/metrics"
	"github.com/trilingua/trilingua/internal/observability"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func stubProxyClient(t *testing.T, rt roundTripFunc) {
	t.Helper()
	original := metricsProxyClient
	metricsProxyClient = &http.Client{Transport: rt}
	t.Cleanup(func() { metricsProxyClient = original })
}

// installExporter wires an unstarted exporter as the telemetry sink.
func installExporter(t *testing.T) *exporters.PrometheusExporter {
	t.Helper()
	exporter := exporters.NewPrometheusExporter("trilingua", ":0")
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: exporter})
	require.NoError(t, err)

	originalExporter, originalSys := observability.PrometheusExporter, observability.TelemetrySystem
	observability.PrometheusExporter = exporter
	observability.TelemetrySystem = sys
	t.Cleanup(func() {
		observability.PrometheusExporter = originalExporter
		observability.TelemetrySystem = originalSys
	})
	return exporter
}

func TestMetricsHandlerProxiesPrometheusOutput(t *testing.T) {
	installExporter(t)
	stubProxyClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, observability.MetricsURL(), req.URL.String())
		assert.Equal(t, "text/plain", req.Header.Get("Accept"))
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("http_requests_total 1\n")),
			Header:     make(http.Header),
		}
		resp.Header.Set("Connection", "close")
		return resp, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept", "text/plain")
	rec := httptest.NewRecorder()
	MetricsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Connection"))
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestMetricsHandlerExposesDictionaryCounters(t *testing.T) {
	exporter := installExporter(t)
	stubProxyClient(t, func(req *http.Request) (*http.Response, error) {
		var buf bytes.Buffer
		require.NoError(t, exporter.WriteMetrics(&buf))
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(&buf),
			Header:     make(http.Header),
		}, nil
	})

	metrics.RecordAdmission("lookup", true)
	metrics.RecordAdmission("autocomplete", false)
	metrics.RecordReferenceLookup("hit")
	metrics.RecordLLMRequest("sentence", "success", 80*time.Millisecond)

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	seen := map[string][]map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(rec.Body.String()), "\n") {
		var event telemetry.MetricsEvent
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		seen[event.Name] = append(seen[event.Name], event.Tags)
	}

	require.Len(t, seen[metrics.AdmissionDecisionsTotal], 2)
	assert.Contains(t, seen[metrics.AdmissionDecisionsTotal], map[string]string{"window": "lookup", "outcome": "admitted"})
	assert.Contains(t, seen[metrics.AdmissionDecisionsTotal], map[string]string{"window": "autocomplete", "outcome": "denied"})
	assert.Equal(t, []map[string]string{{"outcome": "hit"}}, seen[metrics.ReferenceCacheTotal])
	assert.Equal(t, []map[string]string{{"path": "sentence", "outcome": "success"}}, seen[metrics.LLMRequestsTotal])
	assert.Len(t, seen[metrics.LLMRequestDuration], 1)
}

func TestMetricsHandlerReportsUnreachableExporter(t *testing.T) {
	installExporter(t)
	stubProxyClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.GreaterOrEqual(t, rec.Code, http.StatusInternalServerError)
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "EXTERNAL_SERVICE_ERROR", resp.Error.Code)
}

func TestMetricsHandlerReturnsServiceUnavailableWithoutExporter(t *testing.T) {
	original := observability.PrometheusExporter
	observability.PrometheusExporter = nil
	t.Cleanup(func() { observability.PrometheusExporter = original })

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
}
