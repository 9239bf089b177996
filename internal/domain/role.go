package domain

// Role enumerates employee privilege levels.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleHR       Role = "hr"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// DefaultRole is assigned when the caller does not ask for one.
const DefaultRole = RoleEmployee

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleHR, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}
