package domain_test

import (
	"errors"
	"testing"

	"donorregistry/internal/domain"
)

func TestDonorNormalize(t *testing.T) {
	valid := func() domain.Donor {
		return domain.Donor{Name: " Asha ", Age: 30, BloodGroup: "ab+", Contact: "+911234567", Address: "1 Main St"}
	}

	tests := []struct {
		name    string
		mutate  func(d *domain.Donor)
		wantErr bool
	}{
		{"valid", func(d *domain.Donor) {}, false},
		{"age exactly minimum", func(d *domain.Donor) { d.Age = 17 }, false},
		{"age below minimum", func(d *domain.Donor) { d.Age = 16 }, true},
		{"missing name", func(d *domain.Donor) { d.Name = "  " }, true},
		{"missing contact", func(d *domain.Donor) { d.Contact = "" }, true},
		{"missing address", func(d *domain.Donor) { d.Address = "" }, true},
		{"missing blood group", func(d *domain.Donor) { d.BloodGroup = "" }, true},
		{"unknown blood group", func(d *domain.Donor) { d.BloodGroup = "C+" }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := valid()
			tc.mutate(&d)
			err := d.Normalize()
			if tc.wantErr {
				if !errors.Is(err, domain.ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeBloodGroup(t *testing.T) {
	for _, in := range []string{"o-", " O- ", "O -"} {
		got, ok := domain.NormalizeBloodGroup(in)
		if !ok || got != "O-" {
			t.Errorf("NormalizeBloodGroup(%q) = %q, %v; want O-, true", in, got, ok)
		}
	}
	if _, ok := domain.NormalizeBloodGroup("AO+"); ok {
		t.Error("expected AO+ to be rejected")
	}
}

func TestParseAccess(t *testing.T) {
	for _, want := range []domain.Access{domain.AccessOpen, domain.AccessAuthenticated, domain.AccessAdmin} {
		got, err := domain.ParseAccess(want.String())
		if err != nil || got != want {
			t.Errorf("ParseAccess(%q) = %v, %v", want.String(), got, err)
		}
	}
	if _, err := domain.ParseAccess("everyone"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
