package adapthttp

import (
	"context"
	"net/http"
	"strings"
	"time"

	"donorregistry/internal/domain"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsFromContext returns the session claims attached by the
// authentication middleware.
func ClaimsFromContext(ctx context.Context) (domain.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(domain.Claims)
	return c, ok
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireAuthenticated verifies the bearer token and attaches its claims to
// the request context.
func (s *Server) requireAuthenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
			return
		}
		claims, err := s.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// requireAdministrator additionally demands the admin claim.
func (s *Server) requireAdministrator(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuthenticated(func(w http.ResponseWriter, r *http.Request) {
		if c, _ := ClaimsFromContext(r.Context()); !c.IsAdmin {
			writeError(w, http.StatusForbidden, domain.ErrForbidden)
			return
		}
		next(w, r)
	})
}

// guard protects next at the given access level.
func (s *Server) guard(level domain.Access, next http.HandlerFunc) http.HandlerFunc {
	switch level {
	case domain.AccessOpen:
		return next
	case domain.AccessAuthenticated:
		return s.requireAuthenticated(next)
	default:
		return s.requireAdministrator(next)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// loggingMiddleware writes one access log line per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
