package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"timetracker/internal/caching"
	"timetracker/internal/common"
	"timetracker/internal/models"
	"timetracker/internal/repositories"

	"github.com/google/uuid"
)

const (
	employeeCacheTTL  = 10 * time.Minute
	codeIssueAttempts = 3
)

type EmployeeService interface {
	Create(ctx context.Context, p models.Principal, req *CreateEmployeeRequest) (*models.Employee, error)
	GetByID(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Employee, error)
	GetByCode(ctx context.Context, p models.Principal, code string) (*models.Employee, error)
	Update(ctx context.Context, p models.Principal, id uuid.UUID, req *UpdateEmployeeRequest) (*models.Employee, error)
	Delete(ctx context.Context, p models.Principal, id uuid.UUID) error
	List(ctx context.Context, p models.Principal, filter models.EmployeeFilter) ([]*models.Employee, error)
	IssueCode(ctx context.Context, p models.Principal, id uuid.UUID) (*models.EmployeeCode, error)
}

type employeeService struct {
	employeeRepo repositories.EmployeeRepository
	companyRepo  repositories.CompanyRepository
	cacheSvc     caching.CacheService
	qr           QRService
	store        ObjectStore
	linkTTL      time.Duration
	policy       *AccessPolicy
}

// NewEmployeeService wires the employee operations. cacheSvc and store may be nil.
func NewEmployeeService(employeeRepo repositories.EmployeeRepository, companyRepo repositories.CompanyRepository, cacheSvc caching.CacheService, qr QRService, store ObjectStore, linkTTL time.Duration, policy *AccessPolicy) EmployeeService {
	return &employeeService{
		employeeRepo: employeeRepo,
		companyRepo:  companyRepo,
		cacheSvc:     cacheSvc,
		qr:           qr,
		store:        store,
		linkTTL:      linkTTL,
		policy:       policy,
	}
}

type CreateEmployeeRequest struct {
	Name      string     `json:"name"`
	CompanyID *uuid.UUID `json:"company_id"`
	IsActive  *bool      `json:"is_active"`
}

type UpdateEmployeeRequest struct {
	Name      *string    `json:"name"`
	CompanyID *uuid.UUID `json:"company_id"`
	IsActive  *bool      `json:"is_active"`
}

// newEmployeeCode returns a fresh opaque code for QR issuance.
func newEmployeeCode() string {
	return "EMP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func (s *employeeService) Create(ctx context.Context, p models.Principal, req *CreateEmployeeRequest) (*models.Employee, error) {
	companyID := req.CompanyID
	if companyID == nil {
		if tp, ok := p.(models.TenantPrincipal); ok {
			id := tp.TenantID
			companyID = &id
		}
	}
	if err := s.policy.Authorize(p, ResourceEmployee, ActionCreate, tenantOf(companyID)); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := common.ValidateRequiredString(name, "name"); err != nil {
		return nil, err
	}
	if err := s.requireCompany(ctx, companyID); err != nil {
		return nil, err
	}

	employee := &models.Employee{
		CompanyID: *companyID,
		Name:      name,
		IsActive:  true,
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}

	var err error
	for attempt := 0; attempt < codeIssueAttempts; attempt++ {
		employee.ID = uuid.New()
		employee.Code = newEmployeeCode()
		err = s.employeeRepo.Create(ctx, employee)
		if !errors.Is(err, repositories.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, mapRepoError(err, "employee code")
	}
	return employee, nil
}

func (s *employeeService) requireCompany(ctx context.Context, companyID *uuid.UUID) error {
	if companyID == nil {
		return validationError("company_id is required")
	}
	_, err := s.companyRepo.GetByID(ctx, *companyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return validationError("company_id does not reference an existing company")
	}
	return err
}

func (s *employeeService) load(ctx context.Context, p models.Principal, id uuid.UUID, act Action) (*models.Employee, error) {
	employee, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "employee")
	}
	if err := s.policy.Authorize(p, ResourceEmployee, act, employee.CompanyID); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeService) GetByID(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Employee, error) {
	return s.load(ctx, p, id, ActionRead)
}

// GetByCode resolves a scanned code. Lookups are served from the cache when possible.
func (s *employeeService) GetByCode(ctx context.Context, p models.Principal, code string) (*models.Employee, error) {
	code = strings.TrimSpace(code)
	if err := common.ValidateRequiredString(code, "code"); err != nil {
		return nil, err
	}

	var employee *models.Employee
	if s.cacheSvc != nil {
		cached, err := s.cacheSvc.GetEmployeeByCode(ctx, code)
		if err != nil {
			slog.Warn("employee cache read failed", "error", err)
		}
		employee = cached
	}
	if employee == nil {
		found, err := s.employeeRepo.GetByCode(ctx, code)
		if err != nil {
			return nil, mapRepoError(err, "employee")
		}
		employee = found
		if s.cacheSvc != nil {
			if err := s.cacheSvc.SetEmployeeByCode(ctx, employee, employeeCacheTTL); err != nil {
				slog.Warn("employee cache write failed", "error", err)
			}
		}
	}

	if err := s.policy.Authorize(p, ResourceEmployee, ActionRead, employee.CompanyID); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeService) Update(ctx context.Context, p models.Principal, id uuid.UUID, req *UpdateEmployeeRequest) (*models.Employee, error) {
	existing, err := s.load(ctx, p, id, ActionUpdate)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.CompanyID != nil && *req.CompanyID != existing.CompanyID {
		// Moving an employee needs rights on both companies.
		if err := s.policy.Authorize(p, ResourceEmployee, ActionUpdate, *req.CompanyID); err != nil {
			return nil, err
		}
		if err := s.requireCompany(ctx, req.CompanyID); err != nil {
			return nil, err
		}
		updated.CompanyID = *req.CompanyID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := common.ValidateRequiredString(name, "name"); err != nil {
			return nil, err
		}
		updated.Name = name
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}

	if err := s.employeeRepo.Update(ctx, &updated); err != nil {
		return nil, mapRepoError(err, "employee")
	}
	s.forget(ctx, &updated)
	if updated.CompanyID != existing.CompanyID {
		s.forgetSummaries(ctx, existing.CompanyID, updated.CompanyID)
	}
	return &updated, nil
}

// forgetSummaries drops today's cached summaries of companies whose
// attendance changed because an employee moved between them.
func (s *employeeService) forgetSummaries(ctx context.Context, companyIDs ...uuid.UUID) {
	if s.cacheSvc == nil {
		return
	}
	date := time.Now().UTC().Format(models.DateLayout)
	for _, id := range companyIDs {
		if err := s.cacheSvc.InvalidateDailySummary(ctx, id, date); err != nil {
			slog.Warn("summary cache invalidation failed", "company_id", id, "error", err)
		}
	}
}

func (s *employeeService) Delete(ctx context.Context, p models.Principal, id uuid.UUID) error {
	existing, err := s.load(ctx, p, id, ActionDelete)
	if err != nil {
		return err
	}
	deleted, err := s.employeeRepo.Delete(ctx, id)
	if err != nil {
		return mapRepoError(err, "employee")
	}
	if !deleted {
		return mapRepoError(repositories.ErrNotFound, "employee")
	}
	s.forget(ctx, existing)
	if s.store != nil {
		if err := s.store.Remove(ctx, codeObjectName(existing)); err != nil {
			slog.Warn("failed to remove employee code image", "employee_id", existing.ID, "error", err)
		}
	}
	return nil
}

func codeObjectName(employee *models.Employee) string {
	return fmt.Sprintf("%s/%s.png", employee.CompanyID, employee.ID)
}

func (s *employeeService) forget(ctx context.Context, employee *models.Employee) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.DeleteEmployeeByCode(ctx, employee.Code); err != nil {
		slog.Warn("employee cache invalidation failed", "employee_id", employee.ID, "error", err)
	}
}

func (s *employeeService) List(ctx context.Context, p models.Principal, filter models.EmployeeFilter) ([]*models.Employee, error) {
	scope, err := s.policy.ScopeList(p, ResourceEmployee, filter.CompanyID)
	if err != nil {
		return nil, err
	}
	filter.CompanyID = scope
	filter.Limit, filter.Offset = common.ValidatePaginationParams(filter.Limit, filter.Offset)
	return s.employeeRepo.List(ctx, filter)
}

// IssueCode renders the employee's code as a QR image and, when object
// storage is configured, stores it and attaches a download link.
func (s *employeeService) IssueCode(ctx context.Context, p models.Principal, id uuid.UUID) (*models.EmployeeCode, error) {
	employee, err := s.load(ctx, p, id, ActionIssueCode)
	if err != nil {
		return nil, err
	}

	encoded, raw, err := s.qr.RenderBase64(employee.Code)
	if err != nil {
		return nil, err
	}
	result := &models.EmployeeCode{
		EmployeeID:  employee.ID,
		Data:        employee.Code,
		ImageBase64: encoded,
	}

	if s.store != nil {
		objectName := codeObjectName(employee)
		if err := s.store.PutPNG(ctx, objectName, raw); err != nil {
			slog.Warn("failed to store employee code image", "employee_id", employee.ID, "error", err)
			return result, nil
		}
		url, err := s.store.PresignedURL(ctx, objectName, s.linkTTL)
		if err != nil {
			slog.Warn("failed to presign employee code image", "employee_id", employee.ID, "error", err)
			return result, nil
		}
		result.DownloadURL = url
	}
	return result, nil
}
