package enums

import (
	"fmt"
	"strings"
)

// UserRole distinguishes back-office admins from storefront customers.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleCliente UserRole = "cliente"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleCliente,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if strings.EqualFold(string(candidate), strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
