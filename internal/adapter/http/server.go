// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"context"
	"log/slog"
	"net/http"

	"donorregistry/internal/app"
	"donorregistry/internal/domain"
)

// CodeFlow is the server-side Google authorization-code flow.
type CodeFlow interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (rawIDToken string, err error)
}

// Policy sets the access level of the routes whose protection is
// configurable.
type Policy struct {
	InstitutionCreate domain.Access
	DonorList         domain.Access
}

// DefaultPolicy leaves institution creation open and requires a session to
// list donors.
func DefaultPolicy() Policy {
	return Policy{InstitutionCreate: domain.AccessOpen, DonorList: domain.AccessAuthenticated}
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	identity *app.IdentityService
	tokens   *app.TokenService
	registry *app.RegistryService
	logger   *slog.Logger
	policy   Policy

	googleClientID string
	codeFlow       CodeFlow

	webDir string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for access logs and internal errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithPolicy overrides DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(s *Server) { s.policy = p }
}

// WithGoogle advertises Google sign-in for clientID. flow may be nil when
// only client-side ID tokens are accepted.
func WithGoogle(clientID string, flow CodeFlow) Option {
	return func(s *Server) {
		s.googleClientID = clientID
		s.codeFlow = flow
	}
}

// WithWebDir serves the single-page frontend from dir.
func WithWebDir(dir string) Option {
	return func(s *Server) { s.webDir = dir }
}

// New creates a Server wired to the given application services.
func New(identity *app.IdentityService, tokens *app.TokenService, registry *app.RegistryService, opts ...Option) *Server {
	s := &Server{
		identity: identity,
		tokens:   tokens,
		registry: registry,
		logger:   slog.Default(),
		policy:   DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("GET /config", s.handleConfig)

	api.HandleFunc("POST /auth/google", s.handleGoogleAuth)
	api.HandleFunc("GET /auth/google/login", s.handleGoogleLogin)
	api.HandleFunc("GET /auth/google/callback", s.handleGoogleCallback)
	api.HandleFunc("POST /auth/manual", s.handleManualAuth)
	api.HandleFunc("POST /login", s.handleLogin)

	api.HandleFunc("GET /admins/status", s.handleAdminsStatus)
	api.HandleFunc("POST /first-admin", s.handleFirstAdmin)
	api.HandleFunc("POST /admins", s.requireAdministrator(s.handleAddAdmin))
	api.HandleFunc("POST /admins/create", s.requireAdministrator(s.handleCreateAdmin))

	api.HandleFunc("GET /donors", s.guard(s.policy.DonorList, s.handleListDonors))
	api.HandleFunc("POST /donors", s.requireAuthenticated(s.handleRegisterDonor))
	api.HandleFunc("DELETE /donors/{id}", s.requireAdministrator(s.handleDeleteDonor))

	api.HandleFunc("POST /institutions", s.guard(s.policy.InstitutionCreate, s.handleCreateInstitution))
	api.HandleFunc("DELETE /institutions/{name}", s.requireAdministrator(s.handleDeleteInstitution))
	api.HandleFunc("DELETE /institutions/{name}/donors/{index}", s.requireAdministrator(s.handleDeleteDonorByIndex))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.webDir != "" {
		root.Handle("/", spaFromDisk(s.webDir))
	}

	return s.loggingMiddleware(withNoCache(root))
}
