package adapthttp

import (
	"net/http"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleAdminsStatus(w http.ResponseWriter, r *http.Request) {
	exists, err := s.identity.AdministratorsExist(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": exists})
}

func (s *Server) handleFirstAdmin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := parseJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.identity.CreateFirstAdministrator(r.Context(), req.Username, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "First admin created")
}

// handleAddAdmin promotes a user by email or phone, or creates a
// username/password administrator when username is given.
func (s *Server) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Name     string `json:"name"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if req.Username != "" {
		if _, err := s.identity.CreatePasswordAdministrator(r.Context(), req.Username, req.Password); err != nil {
			s.fail(w, r, err)
			return
		}
		writeMessage(w, http.StatusCreated, "Admin created")
		return
	}

	created, err := s.identity.PromoteAdministrator(r.Context(), req.Email, req.Phone, req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if created {
		writeMessage(w, http.StatusOK, "Admin placeholder created")
		return
	}
	writeMessage(w, http.StatusOK, "User promoted to admin")
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := parseJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.identity.CreatePasswordAdministrator(r.Context(), req.Username, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Admin created")
}
