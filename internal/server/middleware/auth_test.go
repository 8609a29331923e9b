package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-shared-secret"

func protected(called *bool) http.Handler {
	return SharedSecret(testSecret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestSharedSecretAcceptsValidToken(t *testing.T) {
	token, err := IssueToken(testSecret, "frontend", time.Hour, time.Now())
	require.NoError(t, err)

	called := false
	req := httptest.NewRequest(http.MethodPost, "/api/lookup", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(&called).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSharedSecretRejectsMissingToken(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodPost, "/api/lookup", nil)
	rec := httptest.NewRecorder()
	protected(&called).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestSharedSecretUsesDenyFunc(t *testing.T) {
	var denied string
	deny := func(w http.ResponseWriter, r *http.Request, message string) {
		denied = message
		w.WriteHeader(http.StatusTeapot)
	}
	handler := SharedSecret(testSecret, deny)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("protected handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/lookup", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "Invalid or expired token", denied)
	assert.Equal(t, `Bearer realm="trilingua"`, rec.Header().Get("WWW-Authenticate"))
}

func TestSharedSecretRejectsBadTokens(t *testing.T) {
	expired, err := IssueToken(testSecret, "frontend", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	wrongSecret, err := IssueToken("other-secret", "frontend", time.Hour, time.Now())
	require.NoError(t, err)
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "someone-else"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": wrongSecret,
		"wrong issuer": foreign,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(http.MethodPost, "/api/lookup", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			protected(&called).ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestSharedSecretDisabledWhenEmpty(t *testing.T) {
	called := false
	handler := SharedSecret("", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/models", nil))
	assert.True(t, called)
}

func TestIssueTokenClaims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	token, err := IssueToken(testSecret, "cli", 0, now)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "cli", claims.Subject)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.Nil(t, claims.ExpiresAt)

	_, err = IssueToken(" ", "cli", time.Hour, now)
	assert.Error(t, err)
}

func TestRecoveryHidesPanicDetails(t *testing.T) {
	handler := RequestID(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("secret internals")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret internals")

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "req-1", body.Error.RequestID)
}
