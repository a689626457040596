// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"donorregistry/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidAssertion indicates that an external identity assertion failed
	// verification or lacks required claims.
	ErrInvalidAssertion = errors.New("invalid identity assertion")
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAdminsAlreadyExist indicates that the first administrator was already created.
	ErrAdminsAlreadyExist = domain.ErrAdminsExist
	// ErrExternalAuthDisabled indicates that no assertion verifier is configured.
	ErrExternalAuthDisabled = errors.New("external sign-in disabled")
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

// ValidPhone reports whether phone is an optional "+" followed by 6 to 15 digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ExternalIdentity is the verified content of an identity assertion.
type ExternalIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// AssertionVerifier verifies a third-party ID token.
type AssertionVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (ExternalIdentity, error)
}

// AdminSeed is a username/password administrator provisioned at startup.
type AdminSeed struct {
	Username string
	Password string
}

// IdentityService resolves credential proofs into durable users.
type IdentityService struct {
	users      domain.UserRepository
	verifier   AssertionVerifier
	logger     *slog.Logger
	bcryptCost int
	dummyHash  []byte
}

// NewIdentityService creates an identity service. verifier may be nil when
// external sign-in is not configured.
func NewIdentityService(users domain.UserRepository, verifier AssertionVerifier, logger *slog.Logger) *IdentityService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &IdentityService{
		users:      users,
		verifier:   verifier,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), s.bcryptCost)
	return s
}

// ExternalAuthEnabled reports whether ID-token sign-in is available.
func (s *IdentityService) ExternalAuthEnabled() bool {
	return s.verifier != nil
}

// ResolveByExternalAssertion verifies rawIDToken and returns the linked user,
// creating one on first sight.
func (s *IdentityService) ResolveByExternalAssertion(ctx context.Context, rawIDToken string) (*domain.User, error) {
	if s.verifier == nil {
		return nil, ErrExternalAuthDisabled
	}
	if strings.TrimSpace(rawIDToken) == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "missing ID token")
	}
	ident, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}
	if ident.Subject == "" || ident.Email == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "token payload lacks subject or email")
	}
	// Only provider-verified emails may key account linking.
	if !ident.EmailVerified {
		return nil, fmt.Errorf("%w: email %q is not verified", ErrInvalidAssertion, ident.Email)
	}
	cred := domain.Credential{Method: domain.CredentialGoogle, Subject: ident.Subject}

	return s.upsert(ctx, cred, func(u *domain.User) error {
		name := ident.Name
		if name == "" {
			name = u.Name
		}
		err := s.users.UpdateProfile(ctx, u.ID, name, ident.Email)
		if errors.Is(err, domain.ErrConflict) {
			// Another user already holds the new email; keep the old profile.
			s.logger.WarnContext(ctx, "could not refresh user profile", "user_id", u.ID, "err", err)
			return nil
		}
		if err != nil {
			return err
		}
		u.Name, u.Email = name, ident.Email
		return nil
	}, func() (*domain.User, error) {
		placeholder, err := s.users.FindByEmail(ctx, ident.Email)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return s.users.CreateUser(ctx, &domain.User{
				Name:        ident.Name,
				Email:       ident.Email,
				Credentials: []domain.Credential{cred},
			})
		case err != nil:
			return nil, err
		}
		if _, linked := placeholder.Credential(domain.CredentialGoogle); linked {
			return nil, domain.Errorf(domain.ErrConflict, "email belongs to another Google account")
		}
		if err := s.users.AddCredential(ctx, placeholder.ID, cred); err != nil {
			return nil, err
		}
		if ident.Name != "" {
			if err := s.users.UpdateProfile(ctx, placeholder.ID, ident.Name, ""); err != nil {
				return nil, err
			}
			placeholder.Name = ident.Name
		}
		placeholder.Credentials = append(placeholder.Credentials, cred)
		return placeholder, nil
	})
}

// ResolveByPhone returns the user linked to phone, creating one on first
// sight and refreshing the display name otherwise.
func (s *IdentityService) ResolveByPhone(ctx context.Context, name, phone string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "name and phone are required")
	}
	if !ValidPhone(phone) {
		return nil, domain.Errorf(domain.ErrInvalidInput, "phone format invalid")
	}
	cred := domain.Credential{Method: domain.CredentialPhone, Subject: phone}

	return s.upsert(ctx, cred, func(u *domain.User) error {
		if err := s.users.UpdateProfile(ctx, u.ID, name, ""); err != nil {
			return err
		}
		u.Name = name
		return nil
	}, func() (*domain.User, error) {
		return s.users.CreateUser(ctx, &domain.User{Name: name, Credentials: []domain.Credential{cred}})
	})
}

// upsert looks up cred; an existing user is passed to refresh, otherwise
// create runs. A create that loses a uniqueness race is retried as a lookup
// once before the conflict is surfaced.
func (s *IdentityService) upsert(ctx context.Context, cred domain.Credential, refresh func(*domain.User) error, create func() (*domain.User, error)) (*domain.User, error) {
	u, err := s.users.FindByCredential(ctx, cred.Method, cred.Subject)
	if err == nil {
		return refreshed(u, refresh)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	u, err = create()
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, err
	}
	u, lookupErr := s.users.FindByCredential(ctx, cred.Method, cred.Subject)
	if lookupErr != nil {
		return nil, err
	}
	return refreshed(u, refresh)
}

func refreshed(u *domain.User, refresh func(*domain.User) error) (*domain.User, error) {
	if err := refresh(u); err != nil {
		return nil, err
	}
	return u, nil
}

// ResolveByPassword authenticates a username/password administrator.
func (s *IdentityService) ResolveByPassword(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "username and password are required")
	}
	u, err := s.users.FindByCredential(ctx, domain.CredentialPassword, username)
	if errors.Is(err, domain.ErrNotFound) {
		// Spend the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	cred, _ := u.Credential(domain.CredentialPassword)
	if err := bcrypt.CompareHashAndPassword([]byte(cred.SecretHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// AdministratorsExist reports whether any username/password administrator
// has been created.
func (s *IdentityService) AdministratorsExist(ctx context.Context) (bool, error) {
	n, err := s.users.CountPasswordAdmins(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateFirstAdministrator creates the first username/password administrator.
// It fails with ErrAdminsAlreadyExist once any such administrator exists.
func (s *IdentityService) CreateFirstAdministrator(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.newPasswordAdmin(username, password)
	if err != nil {
		return nil, err
	}
	return s.users.CreateFirstAdmin(ctx, u)
}

// CreatePasswordAdministrator adds another username/password administrator.
func (s *IdentityService) CreatePasswordAdministrator(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.newPasswordAdmin(username, password)
	if err != nil {
		return nil, err
	}
	return s.users.CreateUser(ctx, u)
}

func (s *IdentityService) newPasswordAdmin(username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		Name:    username,
		IsAdmin: true,
		Credentials: []domain.Credential{{
			Method:     domain.CredentialPassword,
			Subject:    username,
			SecretHash: string(hash),
		}},
	}, nil
}

// PromoteAdministrator grants the admin role to the user matching email (or
// phone when email is empty). When no such user exists an administrator
// placeholder is created; it reports whether that happened.
func (s *IdentityService) PromoteAdministrator(ctx context.Context, email, phone, name string) (bool, error) {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return false, domain.Errorf(domain.ErrInvalidInput, "provide email or phone")
	}
	if phone != "" && !ValidPhone(phone) {
		return false, domain.Errorf(domain.ErrInvalidInput, "phone format invalid")
	}

	var (
		u   *domain.User
		err error
	)
	if email != "" {
		u, err = s.users.FindByEmail(ctx, email)
	} else {
		u, err = s.users.FindByCredential(ctx, domain.CredentialPhone, phone)
	}
	if err == nil {
		return false, s.users.SetAdmin(ctx, u.ID, true)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	placeholder := &domain.User{Name: strings.TrimSpace(name), Email: email, IsAdmin: true}
	if phone != "" {
		placeholder.Credentials = []domain.Credential{{Method: domain.CredentialPhone, Subject: phone}}
	}
	if _, err := s.users.CreateUser(ctx, placeholder); err != nil {
		return false, err
	}
	return true, nil
}

// SeedAdministrators creates the given username/password administrators,
// leaving usernames that already exist untouched.
func (s *IdentityService) SeedAdministrators(ctx context.Context, seeds []AdminSeed) error {
	for _, seed := range seeds {
		_, err := s.CreatePasswordAdministrator(ctx, seed.Username, seed.Password)
		switch {
		case err == nil:
			s.logger.InfoContext(ctx, "admin account seeded", "username", seed.Username)
		case errors.Is(err, domain.ErrConflict):
			s.logger.InfoContext(ctx, "admin account already present", "username", seed.Username)
		default:
			return fmt.Errorf("seed admin %q: %w", seed.Username, err)
		}
	}
	return nil
}
