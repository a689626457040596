package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates a malformed request body or field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized indicates a missing, invalid or expired session token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a valid token without the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates that a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAdminsExist indicates that the first-administrator bootstrap is closed.
	ErrAdminsExist = errors.New("admins already exist")
)

// Errorf wraps kind with a formatted detail so callers can classify the
// result with errors.Is.
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
