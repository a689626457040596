package postgres

import (
	"context"
	"database/sql"

	"donorregistry/internal/domain"

	"github.com/google/uuid"
)

// CreateInstitution inserts a new institution.
func (d *DB) CreateInstitution(ctx context.Context, name string) (*domain.Institution, error) {
	inst := domain.Institution{Name: name}
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO institutions (name) VALUES ($1) RETURNING id, created_at",
		name,
	).Scan(&inst.ID, &inst.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &inst, nil
}

// GetInstitution retrieves an institution by name.
func (d *DB) GetInstitution(ctx context.Context, name string) (*domain.Institution, error) {
	var inst domain.Institution
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM institutions WHERE name = $1",
		name,
	).Scan(&inst.ID, &inst.Name, &inst.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &inst, nil
}

// DeleteInstitution deletes an institution; its donors go with it through
// ON DELETE CASCADE.
func (d *DB) DeleteInstitution(ctx context.Context, name string) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM institutions WHERE name = $1", name)
	return affected(res, err)
}

// AddDonor inserts a donor under an institution.
func (d *DB) AddDonor(ctx context.Context, institutionID int64, donor domain.Donor) (*domain.Donor, error) {
	donor.ID = uuid.NewString()
	donor.InstitutionID = institutionID
	err := d.sql.QueryRowContext(ctx,
		`INSERT INTO donors (id, institution_id, name, age, blood_group, contact, address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		donor.ID, institutionID, donor.Name, donor.Age, donor.BloodGroup, donor.Contact, donor.Address,
	).Scan(&donor.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &donor, nil
}

// ListDonors returns the donors of an institution in registration order.
func (d *DB) ListDonors(ctx context.Context, institutionID int64) ([]domain.Donor, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, institution_id, name, age, blood_group, contact, address, created_at
		 FROM donors WHERE institution_id = $1 ORDER BY seq`,
		institutionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.Donor{}
	for rows.Next() {
		var dn domain.Donor
		if err := rows.Scan(&dn.ID, &dn.InstitutionID, &dn.Name, &dn.Age, &dn.BloodGroup, &dn.Contact, &dn.Address, &dn.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, dn)
	}
	return out, rows.Err()
}

// ListDonorsByInstitution maps every institution name to its donors, in
// registration order. Institutions without donors map to an empty list.
func (d *DB) ListDonorsByInstitution(ctx context.Context) (map[string][]domain.Donor, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT i.id, i.name, d.id, d.name, d.age, d.blood_group, d.contact, d.address, d.created_at
		 FROM institutions i LEFT JOIN donors d ON d.institution_id = i.id
		 ORDER BY i.name, d.seq`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string][]domain.Donor)
	for rows.Next() {
		var (
			instID                                 int64
			instName                               string
			id, name, bloodGroup, contact, address sql.NullString
			age                                    sql.NullInt64
			createdAt                              sql.NullTime
		)
		if err := rows.Scan(&instID, &instName, &id, &name, &age, &bloodGroup, &contact, &address, &createdAt); err != nil {
			return nil, err
		}
		if _, ok := out[instName]; !ok {
			out[instName] = []domain.Donor{}
		}
		if !id.Valid {
			continue
		}
		out[instName] = append(out[instName], domain.Donor{
			ID:            id.String,
			InstitutionID: instID,
			Name:          name.String,
			Age:           int(age.Int64),
			BloodGroup:    bloodGroup.String,
			Contact:       contact.String,
			Address:       address.String,
			CreatedAt:     createdAt.Time,
		})
	}
	return out, rows.Err()
}

// DeleteDonor deletes a donor by ID.
func (d *DB) DeleteDonor(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Errorf(domain.ErrNotFound, "donor %q", id)
	}
	res, err := d.sql.ExecContext(ctx, "DELETE FROM donors WHERE id = $1", id)
	return affected(res, err)
}
