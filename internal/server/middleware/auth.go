package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer is the issuer claim on bearer tokens minted for API clients.
const TokenIssuer = "trilingua"

// IssueToken signs an HS256 bearer token for subject with the shared secret.
// A non-positive ttl yields a token without expiry.
func IssueToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("shared secret is required")
	}
	claims := jwt.RegisteredClaims{
		Issuer:   TokenIssuer,
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token against the shared secret.
func ParseToken(secret, tokenString string) (*jwt.RegisteredClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token is empty")
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// DenyFunc answers a request the shared-secret gate rejected. message is safe
// to show to callers.
type DenyFunc func(w http.ResponseWriter, r *http.Request, message string)

// SharedSecret rejects requests without a valid bearer token signed with secret.
// An empty secret disables the check. A nil deny writes a bare UNAUTHORIZED body.
func SharedSecret(secret string, deny DenyFunc) func(http.Handler) http.Handler {
	if deny == nil {
		deny = writeUnauthorized
	}
	return func(next http.Handler) http.Handler {
		if strings.TrimSpace(secret) == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				w.Header().Set("WWW-Authenticate", authChallenge)
				deny(w, r, "Missing bearer token")
				return
			}
			if _, err := ParseToken(secret, tokenString); err != nil {
				w.Header().Set("WWW-Authenticate", authChallenge)
				deny(w, r, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const authChallenge = `Bearer realm="trilingua"`

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	envelope := errors.NewErrorEnvelope("UNAUTHORIZED", message).
		WithCorrelationID(GetRequestID(r.Context()))
	writeErrorResponse(w, envelope, http.StatusUnauthorized)
}
