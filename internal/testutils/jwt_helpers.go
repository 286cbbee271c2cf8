package testutils

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestJWTConstants provides standard values for JWT testing
const (
	// TestJWTSecret is a dedicated test-only secret for signing JWTs
	// This must never be used in production
	TestJWTSecret = "test-jwt-secret-that-is-32-chars-long"

	// TestTokenLifetime matches the backend's access token lifetime
	TestTokenLifetime = 12 * time.Hour
)

// IssueToken signs an HS256 access token for subject that expires after ttl.
// A negative ttl yields a token that is already expired.
func IssueToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// MustIssueToken is IssueToken for tests.
func MustIssueToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	token, err := IssueToken(subject, ttl)
	if err != nil {
		t.Fatalf("failed to issue test token: %v", err)
	}
	return token
}

// parseToken validates a token signed with TestJWTSecret and returns its subject.
func parseToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(TestJWTSecret), nil
	})
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
