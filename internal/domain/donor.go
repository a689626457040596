package domain

import (
	"context"
	"strings"
	"time"
)

// MinDonorAge is the youngest age accepted for registration.
const MinDonorAge = 17

// BloodGroups lists the canonical ABO/Rh groups.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// NormalizeBloodGroup returns the canonical spelling of g and whether it is
// one of BloodGroups.
func NormalizeBloodGroup(g string) (string, bool) {
	g = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(g), " ", ""))
	for _, bg := range BloodGroups {
		if g == bg {
			return bg, true
		}
	}
	return "", false
}

// Institution owns a set of donors.
type Institution struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Donor is an immutable registration record owned by one institution.
type Donor struct {
	ID            string    `json:"id"`
	InstitutionID int64     `json:"-"`
	Name          string    `json:"name"`
	Age           int       `json:"age"`
	BloodGroup    string    `json:"bloodGroup"`
	Contact       string    `json:"contact"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Normalize trims all text fields and canonicalizes the blood group, then
// validates the record.
func (d *Donor) Normalize() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Contact = strings.TrimSpace(d.Contact)
	d.Address = strings.TrimSpace(d.Address)
	switch {
	case d.Name == "":
		return Errorf(ErrInvalidInput, "name is required")
	case d.BloodGroup == "":
		return Errorf(ErrInvalidInput, "bloodGroup is required")
	case d.Contact == "":
		return Errorf(ErrInvalidInput, "contact is required")
	case d.Address == "":
		return Errorf(ErrInvalidInput, "address is required")
	case d.Age < MinDonorAge:
		return Errorf(ErrInvalidInput, "age must be at least %d", MinDonorAge)
	}
	bg, ok := NormalizeBloodGroup(d.BloodGroup)
	if !ok {
		return Errorf(ErrInvalidInput, "bloodGroup must be one of %s", strings.Join(BloodGroups, ", "))
	}
	d.BloodGroup = bg
	return nil
}

// RegistryRepository is the port for institution and donor persistence.
// ListDonors returns donors in registration order.
type RegistryRepository interface {
	CreateInstitution(ctx context.Context, name string) (*Institution, error)
	GetInstitution(ctx context.Context, name string) (*Institution, error)
	// DeleteInstitution removes the institution and all of its donors.
	DeleteInstitution(ctx context.Context, name string) error
	AddDonor(ctx context.Context, institutionID int64, d Donor) (*Donor, error)
	ListDonors(ctx context.Context, institutionID int64) ([]Donor, error)
	// ListDonorsByInstitution maps every institution name to its donors.
	ListDonorsByInstitution(ctx context.Context) (map[string][]Donor, error)
	DeleteDonor(ctx context.Context, id string) error
}
