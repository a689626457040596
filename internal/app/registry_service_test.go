package app

import (
	"context"
	"errors"
	"testing"

	"donorregistry/internal/adapter/memory"
	"donorregistry/internal/domain"
)

func donor(name string, age int) domain.Donor {
	return domain.Donor{Name: name, Age: age, BloodGroup: "B+", Contact: "+911234567", Address: "12 Park Rd"}
}

// conflictingRegistry reports the institution as missing on the first lookup
// and then loses the creation race to a concurrent registration.
type conflictingRegistry struct {
	*memory.DB
	lookups int
}

func (r *conflictingRegistry) GetInstitution(ctx context.Context, name string) (*domain.Institution, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, domain.ErrNotFound
	}
	return r.DB.GetInstitution(ctx, name)
}

func TestRegisterDonor_AgeBoundary(t *testing.T) {
	ctx := context.Background()
	svc := NewRegistryService(memory.New())

	if _, err := svc.RegisterDonor(ctx, "City Hospital", donor("Adult", 17)); err != nil {
		t.Fatalf("age 17 should be accepted: %v", err)
	}
	if _, err := svc.RegisterDonor(ctx, "City Hospital", donor("Minor", 16)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("age 16: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.RegisterDonor(ctx, "  ", donor("Adult", 30)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("blank institution: expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterDonor_CreatesInstitution(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	svc := NewRegistryService(db)

	d, err := svc.RegisterDonor(ctx, "Community Center", donor("Kiran", 25))
	if err != nil {
		t.Fatalf("RegisterDonor: %v", err)
	}
	if d.ID == "" {
		t.Error("expected donor id")
	}
	if _, err := db.GetInstitution(ctx, "Community Center"); err != nil {
		t.Errorf("expected institution to be created implicitly: %v", err)
	}

	listing, err := svc.ListDonorsByInstitution(ctx)
	if err != nil {
		t.Fatalf("ListDonorsByInstitution: %v", err)
	}
	if got := listing["Community Center"]; len(got) != 1 || got[0].Name != "Kiran" {
		t.Errorf("unexpected listing %+v", listing)
	}
}

func TestRegisterDonor_InstitutionRace(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	if _, err := db.CreateInstitution(ctx, "City Hospital"); err != nil {
		t.Fatal(err)
	}
	svc := NewRegistryService(&conflictingRegistry{DB: db})

	if _, err := svc.RegisterDonor(ctx, "City Hospital", donor("Late", 40)); err != nil {
		t.Fatalf("expected conflict to fall back to lookup, got %v", err)
	}
	donors, _ := db.ListDonorsByInstitution(ctx)
	if len(donors["City Hospital"]) != 1 {
		t.Errorf("expected donor under the existing institution, got %+v", donors)
	}
}

func TestCreateInstitution(t *testing.T) {
	ctx := context.Background()
	svc := NewRegistryService(memory.New())

	if _, err := svc.CreateInstitution(ctx, "Red Cross"); err != nil {
		t.Fatalf("CreateInstitution: %v", err)
	}
	if _, err := svc.CreateInstitution(ctx, "Red Cross"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if _, err := svc.CreateInstitution(ctx, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteInstitution_Cascades(t *testing.T) {
	ctx := context.Background()
	svc := NewRegistryService(memory.New())

	for _, name := range []string{"A", "B", "C"} {
		if _, err := svc.RegisterDonor(ctx, "Doomed", donor(name, 30)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.RegisterDonor(ctx, "Survivor", donor("D", 30)); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteInstitution(ctx, "Doomed"); err != nil {
		t.Fatalf("DeleteInstitution: %v", err)
	}
	listing, _ := svc.ListDonorsByInstitution(ctx)
	if _, ok := listing["Doomed"]; ok {
		t.Error("deleted institution still listed")
	}
	if len(listing["Survivor"]) != 1 {
		t.Error("other institution affected by cascade")
	}
	if err := svc.DeleteInstitution(ctx, "Doomed"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDonorByIndex(t *testing.T) {
	ctx := context.Background()
	svc := NewRegistryService(memory.New())

	a, _ := svc.RegisterDonor(ctx, "Clinic", donor("A", 30))
	b, _ := svc.RegisterDonor(ctx, "Clinic", donor("B", 31))

	if _, err := svc.DeleteDonorByIndex(ctx, "Clinic", 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("index 2 of 2: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.DeleteDonorByIndex(ctx, "Clinic", -1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("negative index: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.DeleteDonorByIndex(ctx, "Nowhere", 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown institution: expected ErrNotFound, got %v", err)
	}

	id, err := svc.DeleteDonorByIndex(ctx, "Clinic", 0)
	if err != nil {
		t.Fatalf("DeleteDonorByIndex: %v", err)
	}
	if id != a.ID {
		t.Errorf("deleted %q; want %q", id, a.ID)
	}
	listing, _ := svc.ListDonorsByInstitution(ctx)
	left := listing["Clinic"]
	if len(left) != 1 || left[0].ID != b.ID {
		t.Errorf("expected only B to remain, got %+v", left)
	}
}

func TestDeleteDonor(t *testing.T) {
	ctx := context.Background()
	svc := NewRegistryService(memory.New())

	d, _ := svc.RegisterDonor(ctx, "Clinic", donor("A", 30))
	if err := svc.DeleteDonor(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDonor: %v", err)
	}
	if err := svc.DeleteDonor(ctx, d.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
