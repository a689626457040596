package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"donorregistry/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenService_RoundTrip(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewTokenService([]byte("secret"), "donorregistry", 0).WithClock(fixedClock(issuedAt))

	want := domain.Claims{UserID: 7, Email: "a@example.com", Phone: "+14155551234", IsAdmin: true}
	token, err := svc.Issue(want)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}

	svc.WithClock(fixedClock(issuedAt.Add(DefaultTokenTTL - time.Second)))
	got, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != want {
		t.Errorf("claims = %+v; want %+v", got, want)
	}
}

func TestTokenService_Expired(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewTokenService([]byte("secret"), "donorregistry", 2*time.Hour).WithClock(fixedClock(issuedAt))

	token, err := svc.Issue(domain.Claims{UserID: 1})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	svc.WithClock(fixedClock(issuedAt.Add(2*time.Hour + time.Second)))
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService([]byte("secret"), "donorregistry", 0)
	other := NewTokenService([]byte("other-secret"), "donorregistry", 0)
	foreignIssuer := NewTokenService([]byte("secret"), "someone-else", 0)

	forged, _ := other.Issue(domain.Claims{UserID: 1, IsAdmin: true})
	wrongIss, _ := foreignIssuer.Issue(domain.Claims{UserID: 1})
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id": 1, "isAdmin": true, "iss": "donorregistry", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", forged},
		{"wrong issuer", wrongIss},
		{"alg none", unsigned},
		{"malformed", "not.a.token"},
		{"empty", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Verify(tc.token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}
