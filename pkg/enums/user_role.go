package enums

import "fmt"

// UserRole represents a system-level permissions role. SUPER_ADMIN is the
// operator role exempt from tenant licensing; ADMIN and SALESMAN are
// pharmacy staff roles.
type UserRole string

const (
	UserRoleSuperAdmin UserRole = "SUPER_ADMIN"
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleSalesman   UserRole = "SALESMAN"
)

var validUserRoles = []UserRole{
	UserRoleSuperAdmin,
	UserRoleAdmin,
	UserRoleSalesman,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
