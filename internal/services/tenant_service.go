package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"timetracker/internal/caching"
	"timetracker/internal/common"
	"timetracker/internal/models"
	"timetracker/internal/repositories"

	"github.com/google/uuid"
)

type CompanyService interface {
	Create(ctx context.Context, p models.Principal, req *CreateCompanyRequest) (*models.Company, error)
	GetByID(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Company, error)
	Update(ctx context.Context, p models.Principal, id uuid.UUID, req *UpdateCompanyRequest) (*models.Company, error)
	Delete(ctx context.Context, p models.Principal, id uuid.UUID) error
	List(ctx context.Context, p models.Principal, limit, offset int) ([]*models.Company, error)
}

// employeeCodePage bounds each read of a deleted company's employees.
const employeeCodePage = 500

type companyService struct {
	companyRepo  repositories.CompanyRepository
	employeeRepo repositories.EmployeeRepository
	cacheSvc     caching.CacheService
	policy       *AccessPolicy
}

// NewCompanyService wires the company operations. employeeRepo and cacheSvc
// may be nil, in which case deletes leave cached employee lookups to expire.
func NewCompanyService(companyRepo repositories.CompanyRepository, employeeRepo repositories.EmployeeRepository, cacheSvc caching.CacheService, policy *AccessPolicy) CompanyService {
	return &companyService{
		companyRepo:  companyRepo,
		employeeRepo: employeeRepo,
		cacheSvc:     cacheSvc,
		policy:       policy,
	}
}

type CreateCompanyRequest struct {
	Name string `json:"name"`
}

type UpdateCompanyRequest struct {
	Name string `json:"name"`
}

func (s *companyService) Create(ctx context.Context, p models.Principal, req *CreateCompanyRequest) (*models.Company, error) {
	if err := s.policy.Authorize(p, ResourceCompany, ActionCreate, uuid.Nil); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := common.ValidateRequiredString(name, "name"); err != nil {
		return nil, err
	}

	company := &models.Company{
		ID:   uuid.New(),
		Name: name,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, mapRepoError(err, "company")
	}
	return company, nil
}

// load fetches the company before any policy decision so a missing id is NotFound.
func (s *companyService) load(ctx context.Context, p models.Principal, id uuid.UUID, act Action) (*models.Company, error) {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "company")
	}
	if err := s.policy.Authorize(p, ResourceCompany, act, company.ID); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *companyService) GetByID(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Company, error) {
	return s.load(ctx, p, id, ActionRead)
}

func (s *companyService) Update(ctx context.Context, p models.Principal, id uuid.UUID, req *UpdateCompanyRequest) (*models.Company, error) {
	existing, err := s.load(ctx, p, id, ActionUpdate)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := common.ValidateRequiredString(name, "name"); err != nil {
		return nil, err
	}

	existing.Name = name
	if err := s.companyRepo.Update(ctx, existing); err != nil {
		return nil, mapRepoError(err, "company")
	}
	return existing, nil
}

// Delete removes the company together with its users, employees and time entries.
func (s *companyService) Delete(ctx context.Context, p models.Principal, id uuid.UUID) error {
	if _, err := s.load(ctx, p, id, ActionDelete); err != nil {
		return err
	}
	codes := s.employeeCodes(ctx, id)
	deleted, err := s.companyRepo.Delete(ctx, id)
	if err != nil {
		return mapRepoError(err, "company")
	}
	if !deleted {
		return mapRepoError(repositories.ErrNotFound, "company")
	}
	s.forget(ctx, id, codes)
	return nil
}

// employeeCodes collects the codes of the company's employees so their cached
// lookups can be dropped once the cascade has removed them.
func (s *companyService) employeeCodes(ctx context.Context, companyID uuid.UUID) []string {
	if s.employeeRepo == nil || s.cacheSvc == nil {
		return nil
	}
	var codes []string
	for offset := 0; ; offset += employeeCodePage {
		employees, err := s.employeeRepo.List(ctx, models.EmployeeFilter{CompanyID: &companyID, Limit: employeeCodePage, Offset: offset})
		if err != nil {
			slog.Warn("failed to list employees of deleted company", "company_id", companyID, "error", err)
			return codes
		}
		for _, e := range employees {
			codes = append(codes, e.Code)
		}
		if len(employees) < employeeCodePage {
			return codes
		}
	}
}

func (s *companyService) forget(ctx context.Context, companyID uuid.UUID, codes []string) {
	if s.cacheSvc == nil {
		return
	}
	for _, code := range codes {
		if err := s.cacheSvc.DeleteEmployeeByCode(ctx, code); err != nil {
			slog.Warn("employee cache invalidation failed", "company_id", companyID, "error", err)
		}
	}
	date := time.Now().UTC().Format(models.DateLayout)
	if err := s.cacheSvc.InvalidateDailySummary(ctx, companyID, date); err != nil {
		slog.Warn("summary cache invalidation failed", "company_id", companyID, "error", err)
	}
}

func (s *companyService) List(ctx context.Context, p models.Principal, limit, offset int) ([]*models.Company, error) {
	if _, err := s.policy.ScopeList(p, ResourceCompany, nil); err != nil {
		return nil, err
	}
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.companyRepo.List(ctx, limit, offset)
}
