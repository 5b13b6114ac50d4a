package courier

// Role is the authenticated identity class of a session.
type Role string

const (
	// RoleAdmin is a tenant administrator using the web dashboard.
	RoleAdmin Role = "admin"
	// RoleStaff is a delivery staff member using the mobile app.
	RoleStaff Role = "staff"
)

// IsValid checks if the role is one of the predefined roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStaff:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleStaff,
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}
