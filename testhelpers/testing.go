package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"timetracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// MemoryCache implements caching.CacheService without redis. TTLs are ignored
// except for the rate limiter window count.
type MemoryCache struct {
	mu        sync.Mutex
	employees map[string]models.Employee
	summaries map[string][]*models.AttendanceSummary
	attempts  map[string]int
	Fail      error
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		employees: map[string]models.Employee{},
		summaries: map[string][]*models.AttendanceSummary{},
		attempts:  map[string]int{},
	}
}

func summaryKey(companyID *uuid.UUID, date string) string {
	if companyID == nil {
		return "all:" + date
	}
	return companyID.String() + ":" + date
}

func (m *MemoryCache) GetEmployeeByCode(_ context.Context, code string) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	e, ok := m.employees[code]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *MemoryCache) SetEmployeeByCode(_ context.Context, e *models.Employee, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.employees[e.Code] = *e
	return nil
}

func (m *MemoryCache) DeleteEmployeeByCode(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.employees, code)
	return m.Fail
}

// HasEmployee reports whether code is cached.
func (m *MemoryCache) HasEmployee(code string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.employees[code]
	return ok
}

func (m *MemoryCache) GetDailySummary(_ context.Context, companyID *uuid.UUID, date string) ([]*models.AttendanceSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return m.summaries[summaryKey(companyID, date)], nil
}

func (m *MemoryCache) SetDailySummary(_ context.Context, companyID *uuid.UUID, date string, s []*models.AttendanceSummary, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.summaries[summaryKey(companyID, date)] = s
	return nil
}

func (m *MemoryCache) InvalidateDailySummary(_ context.Context, companyID uuid.UUID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.summaries, summaryKey(&companyID, date))
	delete(m.summaries, summaryKey(nil, date))
	return m.Fail
}

// HasSummary reports whether a summary is cached for the company (nil for all) and date.
func (m *MemoryCache) HasSummary(companyID *uuid.UUID, date string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.summaries[summaryKey(companyID, date)]
	return ok
}

func (m *MemoryCache) IsRateLimited(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return true, m.Fail
	}
	m.attempts[key]++
	return m.attempts[key] > limit, nil
}

func (m *MemoryCache) ResetRateLimit(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, key)
	return m.Fail
}

func (m *MemoryCache) Ping(context.Context) error { return m.Fail }
func (m *MemoryCache) Close() error               { return nil }

// SeedCompany stores a company directly and returns its id.
func SeedCompany(t *testing.T, d *Directory, name string) uuid.UUID {
	t.Helper()
	c := &models.Company{ID: uuid.New(), Name: name}
	require.NoError(t, d.Companies().Create(context.Background(), c))
	return c.ID
}

// SeedEmployee stores an active employee of company with a unique code.
func SeedEmployee(t *testing.T, d *Directory, companyID uuid.UUID, name string) *models.Employee {
	t.Helper()
	id := uuid.New()
	e := &models.Employee{
		ID:        id,
		CompanyID: companyID,
		Name:      name,
		Code:      fmt.Sprintf("EMP-%s", id.String()[:8]),
		IsActive:  true,
	}
	require.NoError(t, d.Employees().Create(context.Background(), e))
	return e
}

// SeedUser stores a user with an unusable password hash.
func SeedUser(t *testing.T, d *Directory, username string, role models.Role, companyID *uuid.UUID) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.New(), Username: username, PasswordHash: "x", Role: role, CompanyID: companyID}
	require.NoError(t, d.Users().Create(context.Background(), u))
	return u
}

// Owner, Admin and Member build principals without touching storage.
func Owner() models.Principal { return models.OwnerPrincipal{ID: uuid.New()} }

func Admin(companyID uuid.UUID) models.Principal {
	return models.TenantPrincipal{ID: uuid.New(), TenantID: companyID, UserRole: models.RoleAdmin}
}

func Member(companyID uuid.UUID) models.Principal {
	return models.TenantPrincipal{ID: uuid.New(), TenantID: companyID, UserRole: models.RoleUser}
}
