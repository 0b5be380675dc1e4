package user

type Role string

const (
	RoleAdmin   Role = "admin"   // Portal administrator - full access
	RoleManager Role = "manager" // Reviews attendance of their team
	RoleUser    Role = "user"    // Regular staff member
)

// Identity is the authenticated caller as carried by the access token.
// Profiles themselves live in the external auth provider.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// IsReviewer checks if the caller may review other users' attendance
func (i Identity) IsReviewer() bool {
	return i.Role == RoleManager || i.Role == RoleAdmin
}

// ParseRole returns the role for s, or false when s is not a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleUser:
		return Role(s), true
	}
	return "", false
}
