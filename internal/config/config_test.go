package config

import (
	"log/slog"
	"testing"
	"time"

	"donorregistry/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Addr != ":8080" || c.WebDir != "web" {
		t.Errorf("unexpected defaults %+v", c)
	}
	if c.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v; want 2h", c.TokenTTL)
	}
	if string(c.Secret()) != DevJWTSecret {
		t.Error("expected development secret fallback")
	}
	if c.InstitutionCreate() != domain.AccessOpen || c.DonorList() != domain.AccessAuthenticated {
		t.Errorf("access = %v/%v", c.InstitutionCreate(), c.DonorList())
	}
	if c.GoogleEnabled() || c.CodeFlowEnabled() {
		t.Error("google should be disabled without a client id")
	}
	if c.Level() != slog.LevelInfo {
		t.Errorf("Level = %v", c.Level())
	}
}

func TestLoad_ProductionRequiresSecretAndDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET and DATABASE_URL")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://localhost/donors")
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(c.Secret()) != "s3cret" {
		t.Errorf("Secret = %q", c.Secret())
	}
}

func TestLoad_Values(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("INSTITUTION_CREATE_ACCESS", "admin")
	t.Setenv("DONOR_LIST_ACCESS", "open")
	t.Setenv("ADMIN_USERS", "root:pw1, ops:pw2")
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "csecret")
	t.Setenv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TOKEN_TTL", "30m")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.InstitutionCreate() != domain.AccessAdmin || c.DonorList() != domain.AccessOpen {
		t.Errorf("access = %v/%v", c.InstitutionCreate(), c.DonorList())
	}
	seeds := c.AdminSeeds()
	if len(seeds) != 2 || seeds[0].Username != "root" || seeds[1].Username != "ops" || seeds[1].Password != "pw2" {
		t.Errorf("seeds = %+v", seeds)
	}
	if !c.CodeFlowEnabled() {
		t.Error("expected code flow enabled")
	}
	if c.Level() != slog.LevelDebug || c.TokenTTL != 30*time.Minute {
		t.Errorf("level %v ttl %v", c.Level(), c.TokenTTL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"access", "DONOR_LIST_ACCESS", "everyone"},
		{"admin users", "ADMIN_USERS", "root"},
		{"log level", "LOG_LEVEL", "loud"},
		{"ttl", "TOKEN_TTL", "-1m"},
		{"redirect", "GOOGLE_CLIENT_SECRET", "csecret"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%q: expected error", tc.key, tc.value)
			}
		})
	}
}
