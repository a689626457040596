package domain

// Claims is the identity and role information carried by a session token.
type Claims struct {
	UserID   int64
	Email    string
	Phone    string
	Username string
	IsAdmin  bool
}

// Access is the level of authorization a route demands.
type Access int

const (
	// AccessOpen admits every request.
	AccessOpen Access = iota
	// AccessAuthenticated admits requests carrying a valid session token.
	AccessAuthenticated
	// AccessAdmin admits requests whose token carries the admin claim.
	AccessAdmin
)

// String returns the configuration spelling of the access level.
func (a Access) String() string {
	switch a {
	case AccessOpen:
		return "open"
	case AccessAuthenticated:
		return "authenticated"
	case AccessAdmin:
		return "admin"
	}
	return "unknown"
}

// ParseAccess parses "open", "authenticated" or "admin".
func ParseAccess(s string) (Access, error) {
	switch s {
	case "open":
		return AccessOpen, nil
	case "authenticated":
		return AccessAuthenticated, nil
	case "admin":
		return AccessAdmin, nil
	}
	return 0, Errorf(ErrInvalidInput, "unknown access level %q", s)
}
