package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"donorregistry/internal/app"
	"donorregistry/internal/domain"
)

const stateCookie = "oauth_state"

// issueSession signs a token for u and writes it with the admin flag.
func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, u *domain.User) {
	token, err := s.tokens.Issue(u.Claims())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "isAdmin": u.IsAdmin})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"googleEnabled":   s.identity.ExternalAuthEnabled(),
		"googleClientId":  s.googleClientID,
		"codeFlowEnabled": s.codeFlow != nil,
	})
}

func (s *Server) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := parseJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.identity.ResolveByExternalAssertion(r.Context(), req.IDToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.issueSession(w, r, u)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.codeFlow == nil {
		s.fail(w, r, app.ErrExternalAuthDisabled)
		return
	}
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.codeFlow.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.codeFlow == nil {
		s.fail(w, r, app.ErrExternalAuthDisabled)
		return
	}

	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		writeError(w, http.StatusBadRequest, errors.New("invalid state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, MaxAge: -1, Path: "/"})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing code"))
		return
	}
	rawIDToken, err := s.codeFlow.Exchange(r.Context(), code)
	if err != nil {
		s.logger.WarnContext(r.Context(), "google code exchange failed", "err", err)
		writeError(w, http.StatusBadGateway, errors.New("failed to exchange token"))
		return
	}

	u, err := s.identity.ResolveByExternalAssertion(r.Context(), rawIDToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.issueSession(w, r, u)
}

func (s *Server) handleManualAuth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := parseJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.identity.ResolveByPhone(r.Context(), req.Name, req.Phone)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.issueSession(w, r, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.identity.ResolveByPassword(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.issueSession(w, r, u)
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
