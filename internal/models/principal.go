package models

import (
	"errors"

	"github.com/google/uuid"
)

// Principal is the resolved caller of a request. It is either an OwnerPrincipal
// (no tenant) or a TenantPrincipal (admin or user bound to one company).
type Principal interface {
	UserID() uuid.UUID
	Role() Role
	isPrincipal()
}

type OwnerPrincipal struct {
	ID uuid.UUID
}

func (p OwnerPrincipal) UserID() uuid.UUID { return p.ID }
func (p OwnerPrincipal) Role() Role        { return RoleOwner }
func (OwnerPrincipal) isPrincipal()        {}

type TenantPrincipal struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	UserRole Role
}

func (p TenantPrincipal) UserID() uuid.UUID { return p.ID }
func (p TenantPrincipal) Role() Role        { return p.UserRole }
func (TenantPrincipal) isPrincipal()        {}

var ErrInconsistentIdentity = errors.New("identity role and company binding disagree")

// PrincipalFor converts a stored user into its principal variant.
func PrincipalFor(u *User) (Principal, error) {
	switch u.Role {
	case RoleOwner:
		if u.CompanyID != nil {
			return nil, ErrInconsistentIdentity
		}
		return OwnerPrincipal{ID: u.ID}, nil
	case RoleAdmin, RoleUser:
		if u.CompanyID == nil {
			return nil, ErrInconsistentIdentity
		}
		return TenantPrincipal{ID: u.ID, TenantID: *u.CompanyID, UserRole: u.Role}, nil
	default:
		return nil, ErrInconsistentIdentity
	}
}
