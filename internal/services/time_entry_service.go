package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"timetracker/internal/caching"
	"timetracker/internal/common"
	"timetracker/internal/models"
	"timetracker/internal/repositories"

	"github.com/google/uuid"
)

type TimeEntryService interface {
	Create(ctx context.Context, p models.Principal, req *CreateTimeEntryRequest) (*models.TimeEntry, error)
	GetByID(ctx context.Context, p models.Principal, id uuid.UUID) (*models.TimeEntry, error)
	Update(ctx context.Context, p models.Principal, id uuid.UUID, patch models.TimeEntryPatch) (*models.TimeEntry, error)
	Delete(ctx context.Context, p models.Principal, id uuid.UUID) error
	List(ctx context.Context, p models.Principal, filter models.TimeEntryFilter) ([]*models.TimeEntry, error)
}

type timeEntryService struct {
	entryRepo    repositories.TimeEntryRepository
	employeeRepo repositories.EmployeeRepository
	cacheSvc     caching.CacheService
	policy       *AccessPolicy
	now          func() time.Time
}

func NewTimeEntryService(entryRepo repositories.TimeEntryRepository, employeeRepo repositories.EmployeeRepository, cacheSvc caching.CacheService, policy *AccessPolicy) TimeEntryService {
	return &timeEntryService{
		entryRepo:    entryRepo,
		employeeRepo: employeeRepo,
		cacheSvc:     cacheSvc,
		policy:       policy,
		now:          time.Now,
	}
}

// CreateTimeEntryRequest opens or records an attendance entry. A missing
// check_in means now. Derived fields are never accepted from the caller.
type CreateTimeEntryRequest struct {
	EmployeeID uuid.UUID  `json:"employee_id"`
	CheckIn    *time.Time `json:"check_in"`
	CheckOut   *time.Time `json:"check_out"`
}

func (r *CreateTimeEntryRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		EmployeeID uuid.UUID            `json:"employee_id"`
		CheckIn    *models.FlexibleTime `json:"check_in"`
		CheckOut   *models.FlexibleTime `json:"check_out"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.EmployeeID = raw.EmployeeID
	r.CheckIn = raw.CheckIn.Ptr()
	r.CheckOut = raw.CheckOut.Ptr()
	return nil
}

// employeeFor resolves the employee an entry refers to. A dangling reference
// is a validation failure, not a missing entry.
func (s *timeEntryService) employeeFor(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	if id == uuid.Nil {
		return nil, validationError("employee_id is required")
	}
	employee, err := s.employeeRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, validationError("employee_id does not reference an existing employee")
	}
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *timeEntryService) Create(ctx context.Context, p models.Principal, req *CreateTimeEntryRequest) (*models.TimeEntry, error) {
	employee, err := s.employeeFor(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, ResourceTimeEntry, ActionCreate, employee.CompanyID); err != nil {
		return nil, err
	}
	if !employee.IsActive {
		return nil, validationError("employee is not active")
	}

	checkIn := s.now().UTC()
	if req.CheckIn != nil {
		checkIn = *req.CheckIn
	}
	entry := &models.TimeEntry{
		ID:         uuid.New(),
		EmployeeID: employee.ID,
		CompanyID:  employee.CompanyID,
		CheckIn:    checkIn,
		CheckOut:   req.CheckOut,
	}
	entry.Date, entry.TotalHours = Derive(entry.CheckIn, entry.CheckOut)
	if err := validateDuration(entry); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, mapRepoError(err, "time entry")
	}
	s.invalidate(ctx, entry)
	return entry, nil
}

func (s *timeEntryService) load(ctx context.Context, p models.Principal, id uuid.UUID, act Action) (*models.TimeEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "time entry")
	}
	if err := s.policy.Authorize(p, ResourceTimeEntry, act, entry.CompanyID); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *timeEntryService) GetByID(ctx context.Context, p models.Principal, id uuid.UUID) (*models.TimeEntry, error) {
	return s.load(ctx, p, id, ActionRead)
}

// Update applies a partial update and re-derives date and hours from the
// resulting check-in/check-out pair.
func (s *timeEntryService) Update(ctx context.Context, p models.Principal, id uuid.UUID, patch models.TimeEntryPatch) (*models.TimeEntry, error) {
	existing, err := s.load(ctx, p, id, ActionUpdate)
	if err != nil {
		return nil, err
	}

	updated := ApplyPatch(*existing, patch)
	if patch.EmployeeID != nil && *patch.EmployeeID != existing.EmployeeID {
		employee, err := s.employeeFor(ctx, *patch.EmployeeID)
		if err != nil {
			return nil, err
		}
		if err := s.policy.Authorize(p, ResourceTimeEntry, ActionUpdate, employee.CompanyID); err != nil {
			return nil, err
		}
		updated.CompanyID = employee.CompanyID
	}
	if err := validateDuration(&updated); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Update(ctx, &updated); err != nil {
		return nil, mapRepoError(err, "time entry")
	}
	s.invalidate(ctx, existing)
	s.invalidate(ctx, &updated)
	return &updated, nil
}

func (s *timeEntryService) Delete(ctx context.Context, p models.Principal, id uuid.UUID) error {
	existing, err := s.load(ctx, p, id, ActionDelete)
	if err != nil {
		return err
	}
	deleted, err := s.entryRepo.Delete(ctx, id)
	if err != nil {
		return mapRepoError(err, "time entry")
	}
	if !deleted {
		return mapRepoError(repositories.ErrNotFound, "time entry")
	}
	s.invalidate(ctx, existing)
	return nil
}

func (s *timeEntryService) List(ctx context.Context, p models.Principal, filter models.TimeEntryFilter) ([]*models.TimeEntry, error) {
	if err := common.ValidateDateRange(filter.From, filter.To); err != nil {
		return nil, err
	}
	scope, err := s.policy.ScopeList(p, ResourceTimeEntry, filter.CompanyID)
	if err != nil {
		return nil, err
	}
	filter.CompanyID = scope
	filter.Limit, filter.Offset = common.ValidatePaginationParams(filter.Limit, filter.Offset)
	return s.entryRepo.List(ctx, filter)
}

// invalidate drops cached summaries covering the entry's day.
func (s *timeEntryService) invalidate(ctx context.Context, entry *models.TimeEntry) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.InvalidateDailySummary(ctx, entry.CompanyID, entry.Date); err != nil {
		slog.Warn("summary cache invalidation failed", "company_id", entry.CompanyID, "date", entry.Date, "error", err)
	}
}
