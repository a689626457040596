package app

import (
	"context"
	"errors"
	"strings"

	"donorregistry/internal/domain"
)

// RegistryService encapsulates institution and donor use cases.
type RegistryService struct {
	repo domain.RegistryRepository
}

// NewRegistryService creates a RegistryService backed by the given repository.
func NewRegistryService(repo domain.RegistryRepository) *RegistryService {
	return &RegistryService{repo: repo}
}

// ListDonorsByInstitution returns every institution name mapped to its donors
// in registration order.
func (s *RegistryService) ListDonorsByInstitution(ctx context.Context) (map[string][]domain.Donor, error) {
	return s.repo.ListDonorsByInstitution(ctx)
}

// RegisterDonor validates d and stores it under institution, creating the
// institution when it has not been seen before.
func (s *RegistryService) RegisterDonor(ctx context.Context, institution string, d domain.Donor) (*domain.Donor, error) {
	institution = strings.TrimSpace(institution)
	if institution == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "institution is required")
	}
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	inst, err := s.resolveInstitution(ctx, institution)
	if err != nil {
		return nil, err
	}
	return s.repo.AddDonor(ctx, inst.ID, d)
}

// resolveInstitution gets or creates name. Losing a creation race to a
// concurrent registration falls back to the winner's row.
func (s *RegistryService) resolveInstitution(ctx context.Context, name string) (*domain.Institution, error) {
	inst, err := s.repo.GetInstitution(ctx, name)
	if err == nil {
		return inst, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	inst, err = s.repo.CreateInstitution(ctx, name)
	if errors.Is(err, domain.ErrConflict) {
		return s.repo.GetInstitution(ctx, name)
	}
	return inst, err
}

// CreateInstitution creates an empty institution; duplicates yield ErrConflict.
func (s *RegistryService) CreateInstitution(ctx context.Context, name string) (*domain.Institution, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "name is required")
	}
	return s.repo.CreateInstitution(ctx, name)
}

// DeleteInstitution removes an institution together with all of its donors.
func (s *RegistryService) DeleteInstitution(ctx context.Context, name string) error {
	return s.repo.DeleteInstitution(ctx, name)
}

// DeleteDonor removes a donor by its stable id.
func (s *RegistryService) DeleteDonor(ctx context.Context, id string) error {
	return s.repo.DeleteDonor(ctx, id)
}

// DeleteDonorByIndex removes the index-th donor (in registration order) of
// institution. The position is translated to the donor's id before deleting.
func (s *RegistryService) DeleteDonorByIndex(ctx context.Context, institution string, index int) (string, error) {
	inst, err := s.repo.GetInstitution(ctx, institution)
	if err != nil {
		return "", err
	}
	donors, err := s.repo.ListDonors(ctx, inst.ID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(donors) {
		return "", domain.Errorf(domain.ErrNotFound, "no donor at index %d", index)
	}
	id := donors[index].ID
	return id, s.repo.DeleteDonor(ctx, id)
}
