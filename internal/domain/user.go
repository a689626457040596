// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// CredentialMethod discriminates how a user proves their identity.
type CredentialMethod string

const (
	// CredentialGoogle links a Google account; the subject is the ID token "sub".
	CredentialGoogle CredentialMethod = "google"
	// CredentialPhone links a phone number; the subject is the number itself.
	CredentialPhone CredentialMethod = "phone"
	// CredentialPassword links a username/password administrator login.
	CredentialPassword CredentialMethod = "password"
)

// Valid reports whether m is one of the known credential methods.
func (m CredentialMethod) Valid() bool {
	switch m {
	case CredentialGoogle, CredentialPhone, CredentialPassword:
		return true
	}
	return false
}

// Credential is a single login method linked to a user. Method and Subject
// together are unique across all users.
type Credential struct {
	Method     CredentialMethod
	Subject    string
	SecretHash string
}

// User represents a registered identity. Email is empty when unknown.
type User struct {
	ID          int64
	Name        string
	Email       string
	IsAdmin     bool
	Credentials []Credential
	CreatedAt   time.Time
}

// Credential returns the user's credential for method, if linked.
func (u *User) Credential(method CredentialMethod) (Credential, bool) {
	for _, c := range u.Credentials {
		if c.Method == method {
			return c, true
		}
	}
	return Credential{}, false
}

// GoogleID returns the linked Google subject or "".
func (u *User) GoogleID() string {
	c, _ := u.Credential(CredentialGoogle)
	return c.Subject
}

// Phone returns the linked phone number or "".
func (u *User) Phone() string {
	c, _ := u.Credential(CredentialPhone)
	return c.Subject
}

// Username returns the password-login username or "".
func (u *User) Username() string {
	c, _ := u.Credential(CredentialPassword)
	return c.Subject
}

// Identifiable reports whether the user carries at least one unique key.
func (u *User) Identifiable() bool {
	return u.Email != "" || len(u.Credentials) > 0
}

// Claims converts the user into the claims embedded in a session token.
func (u *User) Claims() Claims {
	return Claims{
		UserID:   u.ID,
		Email:    u.Email,
		Phone:    u.Phone(),
		Username: u.Username(),
		IsAdmin:  u.IsAdmin,
	}
}

// UserRepository defines the port for identity persistence. Lookups return
// ErrNotFound when nothing matches; writes return ErrConflict when a unique
// key (email or credential) is already taken.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	FindByCredential(ctx context.Context, method CredentialMethod, subject string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// CreateUser inserts the user and all of its credentials atomically.
	CreateUser(ctx context.Context, u *User) (*User, error)
	AddCredential(ctx context.Context, userID int64, c Credential) error
	// UpdateProfile sets the display name, and the email when email != "".
	UpdateProfile(ctx context.Context, id int64, name, email string) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
	// CreateFirstAdmin inserts u only if no password credential exists yet,
	// checking and inserting atomically. It returns ErrAdminsExist otherwise.
	CreateFirstAdmin(ctx context.Context, u *User) (*User, error)
	CountPasswordAdmins(ctx context.Context) (int, error)
}
