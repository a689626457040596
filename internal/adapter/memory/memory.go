// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sync"
	"time"

	"donorregistry/internal/domain"

	"github.com/google/uuid"
)

// DB implements an in-memory database storage.
type DB struct {
	mu           sync.Mutex
	users        map[int64]*domain.User
	institutions map[int64]*domain.Institution
	donors       []domain.Donor

	userIDCounter        int64
	institutionIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		users:        make(map[int64]*domain.User),
		institutions: make(map[int64]*domain.Institution),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.RegistryRepository = (*DB)(nil)

// --- UserRepository ---

// GetUser retrieves a user by ID.
func (db *DB) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneUser(u), nil
}

// FindByCredential retrieves the user owning the given credential.
func (db *DB) FindByCredential(ctx context.Context, method domain.CredentialMethod, subject string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u := db.byCredential(method, subject); u != nil {
		return cloneUser(u), nil
	}
	return nil, domain.ErrNotFound
}

// FindByEmail retrieves a user by email.
func (db *DB) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u := db.byEmail(email); u != nil {
		return cloneUser(u), nil
	}
	return nil, domain.ErrNotFound
}

// CreateUser creates a new user with its credentials.
func (db *DB) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.insertUser(u)
}

// AddCredential links another credential to an existing user.
func (db *DB) AddCredential(ctx context.Context, userID int64, c domain.Credential) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if db.byCredential(c.Method, c.Subject) != nil {
		return domain.Errorf(domain.ErrConflict, "%s credential already linked", c.Method)
	}
	u.Credentials = append(u.Credentials, c)
	return nil
}

// UpdateProfile sets the display name and, when non-empty, the email.
func (db *DB) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	if email != "" {
		if other := db.byEmail(email); other != nil && other.ID != id {
			return domain.Errorf(domain.ErrConflict, "email already registered")
		}
		u.Email = email
	}
	u.Name = name
	return nil
}

// SetAdmin sets the admin flag of a user.
func (db *DB) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

// CreateFirstAdmin creates u only while no password administrator exists.
func (db *DB) CreateFirstAdmin(ctx context.Context, u *domain.User) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.countPasswordAdmins() > 0 {
		return nil, domain.ErrAdminsExist
	}
	return db.insertUser(u)
}

// CountPasswordAdmins returns the number of users with a password credential.
func (db *DB) CountPasswordAdmins(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.countPasswordAdmins(), nil
}

func (db *DB) insertUser(u *domain.User) (*domain.User, error) {
	if !u.Identifiable() {
		return nil, domain.Errorf(domain.ErrInvalidInput, "user needs an email or a credential")
	}
	if u.Email != "" && db.byEmail(u.Email) != nil {
		return nil, domain.Errorf(domain.ErrConflict, "email already registered")
	}
	for _, c := range u.Credentials {
		if db.byCredential(c.Method, c.Subject) != nil {
			return nil, domain.Errorf(domain.ErrConflict, "%s credential already linked", c.Method)
		}
	}

	db.userIDCounter++
	stored := cloneUser(u)
	stored.ID = db.userIDCounter
	stored.CreatedAt = time.Now().UTC()
	db.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (db *DB) byCredential(method domain.CredentialMethod, subject string) *domain.User {
	for _, u := range db.users {
		for _, c := range u.Credentials {
			if c.Method == method && c.Subject == subject {
				return u
			}
		}
	}
	return nil
}

func (db *DB) byEmail(email string) *domain.User {
	for _, u := range db.users {
		if u.Email != "" && u.Email == email {
			return u
		}
	}
	return nil
}

func (db *DB) countPasswordAdmins() int {
	n := 0
	for _, u := range db.users {
		if _, ok := u.Credential(domain.CredentialPassword); ok {
			n++
		}
	}
	return n
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Credentials = append([]domain.Credential(nil), u.Credentials...)
	return &c
}

// --- RegistryRepository ---

// CreateInstitution creates a new institution.
func (db *DB) CreateInstitution(ctx context.Context, name string) (*domain.Institution, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.institutionByName(name) != nil {
		return nil, domain.Errorf(domain.ErrConflict, "institution already exists")
	}
	db.institutionIDCounter++
	inst := &domain.Institution{ID: db.institutionIDCounter, Name: name, CreatedAt: time.Now().UTC()}
	db.institutions[inst.ID] = inst
	ret := *inst
	return &ret, nil
}

// GetInstitution retrieves an institution by name.
func (db *DB) GetInstitution(ctx context.Context, name string) (*domain.Institution, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	inst := db.institutionByName(name)
	if inst == nil {
		return nil, domain.ErrNotFound
	}
	ret := *inst
	return &ret, nil
}

// DeleteInstitution deletes an institution and its donors.
func (db *DB) DeleteInstitution(ctx context.Context, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	inst := db.institutionByName(name)
	if inst == nil {
		return domain.ErrNotFound
	}
	kept := db.donors[:0]
	for _, d := range db.donors {
		if d.InstitutionID != inst.ID {
			kept = append(kept, d)
		}
	}
	db.donors = kept
	delete(db.institutions, inst.ID)
	return nil
}

// AddDonor stores a donor under an institution.
func (db *DB) AddDonor(ctx context.Context, institutionID int64, d domain.Donor) (*domain.Donor, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.institutions[institutionID]; !ok {
		return nil, domain.ErrNotFound
	}
	d.ID = uuid.NewString()
	d.InstitutionID = institutionID
	d.CreatedAt = time.Now().UTC()
	db.donors = append(db.donors, d)
	return &d, nil
}

// ListDonors lists the donors of an institution in registration order.
func (db *DB) ListDonors(ctx context.Context, institutionID int64) ([]domain.Donor, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []domain.Donor{}
	for _, d := range db.donors {
		if d.InstitutionID == institutionID {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListDonorsByInstitution maps each institution name to its donors.
func (db *DB) ListDonorsByInstitution(ctx context.Context) (map[string][]domain.Donor, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make(map[string][]domain.Donor, len(db.institutions))
	for _, inst := range db.institutions {
		out[inst.Name] = []domain.Donor{}
	}
	for _, d := range db.donors {
		name := db.institutions[d.InstitutionID].Name
		out[name] = append(out[name], d)
	}
	return out, nil
}

// DeleteDonor deletes a donor by ID.
func (db *DB) DeleteDonor(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, d := range db.donors {
		if d.ID == id {
			db.donors = append(db.donors[:i], db.donors[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (db *DB) institutionByName(name string) *domain.Institution {
	for _, inst := range db.institutions {
		if inst.Name == name {
			return inst
		}
	}
	return nil
}
