package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureRequestID(t *testing.T, header string) (echoed, seen, chiSeen string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		chiSeen = middleware.GetReqID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/lookup", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header().Get(RequestIDHeader), seen, chiSeen
}

func TestRequestIDKeepsWellFormedHeader(t *testing.T) {
	echoed, seen, chiSeen := captureRequestID(t, "client-req_42.a:b")
	assert.Equal(t, "client-req_42.a:b", echoed)
	assert.Equal(t, echoed, seen)
	assert.Equal(t, echoed, chiSeen)
}

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	cases := map[string]string{
		"too long":   strings.Repeat("a", maxRequestIDLen+1),
		"whitespace": "req 1",
		"newline":    "req\nforged-log-line",
		"quote":      `req"1`,
		"non-ascii":  "réq",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			echoed, seen, _ := captureRequestID(t, header)
			assert.NotEqual(t, header, echoed)
			assert.Equal(t, echoed, seen)
			_, err := uuid.Parse(echoed)
			require.NoError(t, err)
		})
	}
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	echoed, seen, _ := captureRequestID(t, "")
	_, err := uuid.Parse(echoed)
	require.NoError(t, err)
	assert.Equal(t, echoed, seen)
}

func TestRequestIDAcceptsMaxLength(t *testing.T) {
	id := strings.Repeat("x", maxRequestIDLen)
	echoed, _, _ := captureRequestID(t, id)
	assert.Equal(t, id, echoed)
}

func TestGetRequestIDFallsBackToChiKey(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "chi-id")
	assert.Equal(t, "chi-id", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Equal(t, "ours", GetRequestID(WithRequestID(context.Background(), "ours")))
}
