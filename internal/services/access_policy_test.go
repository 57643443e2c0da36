package services

import (
	"fmt"
	"testing"

	"timetracker/internal/common"
	"timetracker/internal/metrics"
	"timetracker/internal/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tenantA = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	tenantB = uuid.MustParse("00000000-0000-0000-0000-0000000000b2")

	ownerP = models.OwnerPrincipal{ID: uuid.New()}
	adminA = models.TenantPrincipal{ID: uuid.New(), TenantID: tenantA, UserRole: models.RoleAdmin}
	userA  = models.TenantPrincipal{ID: uuid.New(), TenantID: tenantA, UserRole: models.RoleUser}
)

// Each row is {owner, admin, user}: A = any tenant, R = own tenant only, D = denied.
var expectedGrid = []struct {
	res   Resource
	act   Action
	cells [3]string
}{
	{ResourceCompany, ActionList, [3]string{"A", "D", "D"}},
	{ResourceCompany, ActionRead, [3]string{"A", "D", "D"}},
	{ResourceCompany, ActionCreate, [3]string{"A", "D", "D"}},
	{ResourceCompany, ActionUpdate, [3]string{"A", "D", "D"}},
	{ResourceCompany, ActionDelete, [3]string{"A", "D", "D"}},
	{ResourceUser, ActionList, [3]string{"A", "R", "D"}},
	{ResourceUser, ActionRead, [3]string{"A", "R", "D"}},
	{ResourceUser, ActionCreate, [3]string{"A", "R", "D"}},
	{ResourceUser, ActionUpdate, [3]string{"A", "R", "D"}},
	{ResourceUser, ActionDelete, [3]string{"A", "D", "D"}},
	{ResourceEmployee, ActionList, [3]string{"A", "R", "R"}},
	{ResourceEmployee, ActionRead, [3]string{"A", "R", "R"}},
	{ResourceEmployee, ActionCreate, [3]string{"A", "R", "D"}},
	{ResourceEmployee, ActionUpdate, [3]string{"A", "R", "D"}},
	{ResourceEmployee, ActionDelete, [3]string{"A", "R", "D"}},
	{ResourceEmployee, ActionIssueCode, [3]string{"A", "R", "D"}},
	{ResourceTimeEntry, ActionList, [3]string{"A", "R", "R"}},
	{ResourceTimeEntry, ActionRead, [3]string{"A", "R", "R"}},
	{ResourceTimeEntry, ActionCreate, [3]string{"A", "A", "A"}},
	{ResourceTimeEntry, ActionUpdate, [3]string{"A", "R", "D"}},
	{ResourceTimeEntry, ActionDelete, [3]string{"A", "R", "D"}},
	{ResourceJob, ActionList, [3]string{"A", "D", "D"}},
	{ResourceJob, ActionRun, [3]string{"A", "D", "D"}},
}

func TestAuthorize_MatchesPolicyGrid(t *testing.T) {
	policy := NewAccessPolicy(metrics.Nop{})
	callers := []models.Principal{ownerP, adminA, userA}

	for _, row := range expectedGrid {
		for i, caller := range callers {
			cell := row.cells[i]
			name := fmt.Sprintf("%s/%s/%s", row.res, row.act, caller.Role())
			t.Run(name, func(t *testing.T) {
				own := policy.Authorize(caller, row.res, row.act, tenantA)
				foreign := policy.Authorize(caller, row.res, row.act, tenantB)

				switch cell {
				case "A":
					assert.NoError(t, own)
					assert.NoError(t, foreign)
				case "R":
					assert.NoError(t, own)
					assert.ErrorIs(t, foreign, common.ErrForbidden)
				case "D":
					assert.ErrorIs(t, own, common.ErrForbidden)
					assert.ErrorIs(t, foreign, common.ErrForbidden)
				}
			})
		}
	}
}

func TestAuthorize_ForeignTenantIsForbiddenNotNotFound(t *testing.T) {
	policy := NewAccessPolicy(nil)

	err := policy.Authorize(adminA, ResourceEmployee, ActionUpdate, tenantB)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.NotErrorIs(t, err, common.ErrNotFound)
}

func TestDecide_UnknownActionDenied(t *testing.T) {
	assert.Equal(t, GrantDeny, Decide(ownerP, ResourceCompany, ActionIssueCode))
	assert.Equal(t, GrantDeny, Decide(ownerP, Resource("invoice"), ActionRead))
}

func TestDecide_TenantPrincipalWithOwnerRoleDenied(t *testing.T) {
	odd := models.TenantPrincipal{ID: uuid.New(), TenantID: tenantA, UserRole: models.RoleOwner}
	assert.Equal(t, GrantDeny, Decide(odd, ResourceEmployee, ActionList))
}

func TestScopeList_RewritesFilter(t *testing.T) {
	policy := NewAccessPolicy(nil)

	for _, res := range []Resource{ResourceEmployee, ResourceTimeEntry} {
		scope, err := policy.ScopeList(ownerP, res, nil)
		require.NoError(t, err)
		assert.Nil(t, scope, "owner lists are unfiltered")

		scope, err = policy.ScopeList(ownerP, res, &tenantB)
		require.NoError(t, err)
		assert.Equal(t, tenantB, *scope)

		for _, caller := range []models.Principal{adminA, userA} {
			scope, err := policy.ScopeList(caller, res, nil)
			require.NoError(t, err)
			require.NotNil(t, scope)
			assert.Equal(t, tenantA, *scope)

			scope, err = policy.ScopeList(caller, res, &tenantB)
			require.NoError(t, err)
			assert.Equal(t, tenantA, *scope, "caller supplied company filter is overridden")
		}
	}
}

func TestScopeList_Denied(t *testing.T) {
	policy := NewAccessPolicy(nil)

	_, err := policy.ScopeList(adminA, ResourceCompany, nil)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = policy.ScopeList(userA, ResourceUser, nil)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestAuthorizeUserWrite_EscalationGuard(t *testing.T) {
	policy := NewAccessPolicy(nil)
	a, b := tenantA, tenantB

	tests := []struct {
		name     string
		caller   models.Principal
		act      Action
		existing *models.User
		role     models.Role
		company  *uuid.UUID
		wantErr  bool
	}{
		{"admin creates user in own tenant", adminA, ActionCreate, nil, models.RoleUser, &a, false},
		{"admin creates admin in own tenant", adminA, ActionCreate, nil, models.RoleAdmin, &a, false},
		{"admin creates owner", adminA, ActionCreate, nil, models.RoleOwner, nil, true},
		{"admin creates owner bound to own tenant", adminA, ActionCreate, nil, models.RoleOwner, &a, true},
		{"admin creates user in foreign tenant", adminA, ActionCreate, nil, models.RoleUser, &b, true},
		{"admin creates user without tenant", adminA, ActionCreate, nil, models.RoleUser, nil, true},
		{"admin promotes own user to owner", adminA, ActionUpdate, &models.User{Role: models.RoleUser, CompanyID: &a}, models.RoleOwner, &a, true},
		{"admin moves own user to foreign tenant", adminA, ActionUpdate, &models.User{Role: models.RoleUser, CompanyID: &a}, models.RoleUser, &b, true},
		{"admin edits foreign user into own tenant", adminA, ActionUpdate, &models.User{Role: models.RoleUser, CompanyID: &b}, models.RoleUser, &a, true},
		{"admin edits the owner", adminA, ActionUpdate, &models.User{Role: models.RoleOwner}, models.RoleUser, &a, true},
		{"admin edits own user", adminA, ActionUpdate, &models.User{Role: models.RoleUser, CompanyID: &a}, models.RoleAdmin, &a, false},
		{"user creates user", userA, ActionCreate, nil, models.RoleUser, &a, true},
		{"owner creates admin anywhere", ownerP, ActionCreate, nil, models.RoleAdmin, &b, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.AuthorizeUserWrite(tt.caller, tt.act, tt.existing, tt.role, tt.company)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrForbidden)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccessPolicy_RecordsDecisions(t *testing.T) {
	reg := prometheus.NewRegistry()
	policy := NewAccessPolicy(metrics.NewCollector(reg))

	_ = policy.Authorize(adminA, ResourceEmployee, ActionRead, tenantA)
	_ = policy.Authorize(adminA, ResourceEmployee, ActionRead, tenantB)

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() == "timetracker_policy_decisions_total" {
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, total)
}
