// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"donorregistry/internal/app"
	"donorregistry/internal/domain"

	"github.com/caarlos0/env/v11"
)

// EnvDevelopment relaxes the secret and database requirements.
const EnvDevelopment = "development"

// DevJWTSecret signs tokens when no secret is configured in development.
const DevJWTSecret = "donorregistry-development-secret"

// Config is the full server configuration.
type Config struct {
	Addr            string        `env:"ADDR"             envDefault:":8080"`
	Env             string        `env:"APP_ENV"          envDefault:"production"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	WebDir          string        `env:"WEB_DIR"          envDefault:"web"`
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTIssuer       string        `env:"JWT_ISSUER"       envDefault:"donorregistry"`
	TokenTTL        time.Duration `env:"TOKEN_TTL"        envDefault:"2h"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	InstitutionCreateAccess string   `env:"INSTITUTION_CREATE_ACCESS" envDefault:"open"`
	DonorListAccess         string   `env:"DONOR_LIST_ACCESS"         envDefault:"authenticated"`
	AdminUsers              []string `env:"ADMIN_USERS"               envSeparator:","`

	institutionCreate domain.Access
	donorList         domain.Access
	seeds             []app.AdminSeed
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	var errs []error
	if !c.Development() {
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required"))
		}
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required"))
		}
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}

	var err error
	if c.institutionCreate, err = domain.ParseAccess(c.InstitutionCreateAccess); err != nil {
		errs = append(errs, fmt.Errorf("INSTITUTION_CREATE_ACCESS: %w", err))
	}
	if c.donorList, err = domain.ParseAccess(c.DonorListAccess); err != nil {
		errs = append(errs, fmt.Errorf("DONOR_LIST_ACCESS: %w", err))
	}
	if c.seeds, err = parseAdminUsers(c.AdminUsers); err != nil {
		errs = append(errs, fmt.Errorf("ADMIN_USERS: %w", err))
	}
	if c.GoogleClientSecret != "" && c.GoogleRedirectURL == "" {
		errs = append(errs, errors.New("GOOGLE_REDIRECT_URL is required with GOOGLE_CLIENT_SECRET"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Development reports whether APP_ENV selects development mode.
func (c *Config) Development() bool {
	return c.Env == EnvDevelopment
}

// Secret returns the token signing secret, falling back to DevJWTSecret in
// development.
func (c *Config) Secret() []byte {
	if c.JWTSecret == "" && c.Development() {
		return []byte(DevJWTSecret)
	}
	return []byte(c.JWTSecret)
}

// GoogleEnabled reports whether ID-token sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// CodeFlowEnabled reports whether the server-side authorization-code flow
// is configured.
func (c *Config) CodeFlowEnabled() bool {
	return c.GoogleEnabled() && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// InstitutionCreate is the access level for creating institutions.
func (c *Config) InstitutionCreate() domain.Access { return c.institutionCreate }

// DonorList is the access level for listing donors.
func (c *Config) DonorList() domain.Access { return c.donorList }

// AdminSeeds returns the administrators to provision at startup.
func (c *Config) AdminSeeds() []app.AdminSeed { return c.seeds }

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

func parseAdminUsers(pairs []string) ([]app.AdminSeed, error) {
	var seeds []app.AdminSeed
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		user, pass, ok := strings.Cut(pair, ":")
		user = strings.TrimSpace(user)
		if !ok || user == "" || pass == "" {
			return nil, fmt.Errorf("entry %q: want username:password", user)
		}
		seeds = append(seeds, app.AdminSeed{Username: user, Password: pass})
	}
	return seeds, nil
}
