package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of identity roles.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole normalises a role name. Unknown names are rejected.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleOwner, RoleAdmin, RoleUser:
		return r, nil
	default:
		return "", fmt.Errorf("role must be one of: owner, admin, user")
	}
}

func (r Role) String() string {
	return string(r)
}

// TenantBound reports whether identities with this role must belong to a company.
func (r Role) TenantBound() bool {
	return r == RoleAdmin || r == RoleUser
}
