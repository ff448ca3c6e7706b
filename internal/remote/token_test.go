package remote

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestCheckTokenEmpty(t *testing.T) {
	if err := CheckToken("", time.Now()); err == nil {
		t.Fatalf("empty token accepted")
	}
	if err := CheckToken("   ", time.Now()); err == nil {
		t.Fatalf("blank token accepted")
	}
}

func TestCheckTokenExpired(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tok := signedToken(t, now.Add(-time.Hour))

	if err := CheckToken(tok, now); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestCheckTokenStillValid(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tok := signedToken(t, now.Add(time.Hour))

	if err := CheckToken(tok, now); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
}

func TestCheckTokenOpaquePassesThrough(t *testing.T) {
	// Only the server can judge a non-JWT token; the gate must not block it.
	if err := CheckToken("opaque-session-token", time.Now()); err != nil {
		t.Fatalf("opaque token rejected: %v", err)
	}
}
