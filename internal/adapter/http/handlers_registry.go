package adapthttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"donorregistry/internal/domain"

	"github.com/google/uuid"
)

// wholeNumber decodes a JSON number or a numeric string.
type wholeNumber int

func (n *wholeNumber) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		b = []byte(strings.TrimSpace(s))
	}
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		return errors.New("age must be a whole number")
	}
	*n = wholeNumber(v)
	return nil
}

type donorRequest struct {
	Institution string      `json:"institution"`
	Name        string      `json:"name"`
	Age         wholeNumber `json:"age"`
	BloodGroup  string      `json:"bloodGroup"`
	Contact     string      `json:"contact"`
	Address     string      `json:"address"`
}

func (s *Server) handleListDonors(w http.ResponseWriter, r *http.Request) {
	listing, err := s.registry.ListDonorsByInstitution(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleRegisterDonor(w http.ResponseWriter, r *http.Request) {
	var req donorRequest
	if err := parseJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.registry.RegisterDonor(r.Context(), req.Institution, domain.Donor{
		Name:       req.Name,
		Age:        int(req.Age),
		BloodGroup: req.BloodGroup,
		Contact:    req.Contact,
		Address:    req.Address,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Donor added", "donor": d})
}

func (s *Server) handleDeleteDonor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		s.fail(w, r, domain.Errorf(domain.ErrNotFound, "donor %q", id))
		return
	}
	if err := s.registry.DeleteDonor(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Donor deleted")
}

func (s *Server) handleCreateInstitution(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := parseJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	inst, err := s.registry.CreateInstitution(r.Context(), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Institution created", "institution": inst})
}

func (s *Server) handleDeleteInstitution(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.DeleteInstitution(r.Context(), r.PathValue("name")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Deleted")
}

func (s *Server) handleDeleteDonorByIndex(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("bad index"))
		return
	}
	id, err := s.registry.DeleteDonorByIndex(r.Context(), r.PathValue("name"), index)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Donor deleted", "id": id})
}
