package services

import (
	"fmt"

	"timetracker/internal/common"
	"timetracker/internal/metrics"
	"timetracker/internal/models"

	"github.com/google/uuid"
)

type Resource string

const (
	ResourceCompany   Resource = "company"
	ResourceUser      Resource = "user"
	ResourceEmployee  Resource = "employee"
	ResourceTimeEntry Resource = "time_entry"
	ResourceJob       Resource = "job"
)

type Action string

const (
	ActionList      Action = "list"
	ActionRead      Action = "read"
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionIssueCode Action = "issue_code"
	ActionRun       Action = "run"
)

// Grant is the outcome of a table lookup before the target tenant is known.
type Grant int

const (
	GrantDeny Grant = iota
	GrantAll
	GrantOwnTenant
)

func (g Grant) String() string {
	switch g {
	case GrantAll:
		return "allow"
	case GrantOwnTenant:
		return "own-tenant"
	default:
		return "deny"
	}
}

type grants struct {
	owner, admin, user Grant
}

var (
	ownerOnly      = grants{owner: GrantAll, admin: GrantDeny, user: GrantDeny}
	adminScoped    = grants{owner: GrantAll, admin: GrantOwnTenant, user: GrantDeny}
	everyoneScoped = grants{owner: GrantAll, admin: GrantOwnTenant, user: GrantOwnTenant}
	everyone       = grants{owner: GrantAll, admin: GrantAll, user: GrantAll}
)

var policyTable = map[Resource]map[Action]grants{
	ResourceCompany: {
		ActionList:   ownerOnly,
		ActionRead:   ownerOnly,
		ActionCreate: ownerOnly,
		ActionUpdate: ownerOnly,
		ActionDelete: ownerOnly,
	},
	ResourceUser: {
		ActionList:   adminScoped,
		ActionRead:   adminScoped,
		ActionCreate: adminScoped,
		ActionUpdate: adminScoped,
		ActionDelete: ownerOnly,
	},
	ResourceEmployee: {
		ActionList:      everyoneScoped,
		ActionRead:      everyoneScoped,
		ActionCreate:    adminScoped,
		ActionUpdate:    adminScoped,
		ActionDelete:    adminScoped,
		ActionIssueCode: adminScoped,
	},
	ResourceTimeEntry: {
		ActionList:   everyoneScoped,
		ActionRead:   everyoneScoped,
		ActionCreate: everyone,
		ActionUpdate: adminScoped,
		ActionDelete: adminScoped,
	},
	ResourceJob: {
		ActionList: ownerOnly,
		ActionRun:  ownerOnly,
	},
}

// Decide looks up the caller's grant for an operation. Unknown resources or
// actions are denied.
func Decide(p models.Principal, res Resource, act Action) Grant {
	row, ok := policyTable[res][act]
	if !ok {
		return GrantDeny
	}
	switch pr := p.(type) {
	case models.OwnerPrincipal:
		return row.owner
	case models.TenantPrincipal:
		switch pr.UserRole {
		case models.RoleAdmin:
			return row.admin
		case models.RoleUser:
			return row.user
		}
	}
	return GrantDeny
}

// AccessPolicy applies Decide to concrete targets and records every decision.
type AccessPolicy struct {
	rec metrics.Recorder
}

func NewAccessPolicy(rec metrics.Recorder) *AccessPolicy {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AccessPolicy{rec: rec}
}

func forbidden(res Resource, act Action) error {
	return fmt.Errorf("%w: %s %s", common.ErrForbidden, act, res)
}

func (a *AccessPolicy) record(res Resource, act Action, err error) error {
	a.rec.RecordPolicyDecision(string(res), string(act), err == nil)
	return err
}

// Authorize checks an operation on a single record owned by targetTenant.
// A tenant-scoped caller acting on another tenant's record is Forbidden even
// though the record exists.
func (a *AccessPolicy) Authorize(p models.Principal, res Resource, act Action, targetTenant uuid.UUID) error {
	return a.record(res, act, authorize(p, res, act, targetTenant))
}

func authorize(p models.Principal, res Resource, act Action, targetTenant uuid.UUID) error {
	switch Decide(p, res, act) {
	case GrantAll:
		return nil
	case GrantOwnTenant:
		tp, ok := p.(models.TenantPrincipal)
		if !ok || tp.TenantID != targetTenant {
			return forbidden(res, act)
		}
		return nil
	default:
		return forbidden(res, act)
	}
}

// ScopeList authorizes a list operation and returns the company filter the
// directory query must use. The requested filter is kept for unrestricted
// callers and replaced with the caller's tenant for scoped ones.
func (a *AccessPolicy) ScopeList(p models.Principal, res Resource, requested *uuid.UUID) (*uuid.UUID, error) {
	switch Decide(p, res, ActionList) {
	case GrantAll:
		return requested, a.record(res, ActionList, nil)
	case GrantOwnTenant:
		tp, ok := p.(models.TenantPrincipal)
		if !ok {
			return nil, a.record(res, ActionList, forbidden(res, ActionList))
		}
		tenant := tp.TenantID
		return &tenant, a.record(res, ActionList, nil)
	default:
		return nil, a.record(res, ActionList, forbidden(res, ActionList))
	}
}

// AuthorizeUserWrite guards identity create and update. existing is nil on
// create. For a tenant-scoped admin the resulting identity must stay a
// non-owner of the admin's own company, and an updated identity must already
// be one.
func (a *AccessPolicy) AuthorizeUserWrite(p models.Principal, act Action, existing *models.User, role models.Role, companyID *uuid.UUID) error {
	return a.record(ResourceUser, act, authorizeUserWrite(p, act, existing, role, companyID))
}

func authorizeUserWrite(p models.Principal, act Action, existing *models.User, role models.Role, companyID *uuid.UUID) error {
	switch Decide(p, ResourceUser, act) {
	case GrantAll:
		return nil
	case GrantOwnTenant:
		tp, ok := p.(models.TenantPrincipal)
		if !ok {
			return forbidden(ResourceUser, act)
		}
		if role == models.RoleOwner || companyID == nil || *companyID != tp.TenantID {
			return forbidden(ResourceUser, act)
		}
		if existing != nil {
			if existing.Role == models.RoleOwner || existing.CompanyID == nil || *existing.CompanyID != tp.TenantID {
				return forbidden(ResourceUser, act)
			}
		}
		return nil
	default:
		return forbidden(ResourceUser, act)
	}
}

// tenantOf returns the company of an optional binding. Tenant-less records
// map to uuid.Nil, which never matches a tenant-scoped caller.
func tenantOf(companyID *uuid.UUID) uuid.UUID {
	if companyID == nil {
		return uuid.Nil
	}
	return *companyID
}
