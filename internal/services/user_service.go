package services

import (
	"context"
	"errors"
	"strings"

	"timetracker/internal/common"
	"timetracker/internal/models"
	"timetracker/internal/repositories"

	"github.com/google/uuid"
)

const minPasswordLength = 6

type UserService interface {
	Create(ctx context.Context, p models.Principal, req *CreateUserRequest) (*models.User, error)
	GetByID(ctx context.Context, p models.Principal, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, p models.Principal, id uuid.UUID, req *UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, p models.Principal, id uuid.UUID) error
	List(ctx context.Context, p models.Principal, filter models.UserFilter) ([]*models.User, error)
}

type userService struct {
	userRepo    repositories.UserRepository
	companyRepo repositories.CompanyRepository
	creds       CredentialStore
	policy      *AccessPolicy
}

func NewUserService(userRepo repositories.UserRepository, companyRepo repositories.CompanyRepository, creds CredentialStore, policy *AccessPolicy) UserService {
	return &userService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		creds:       creds,
		policy:      policy,
	}
}

// CreateUserRequest accepts the legacy "type" field as an alias of "role".
type CreateUserRequest struct {
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	Role      string     `json:"role"`
	Type      string     `json:"type"`
	CompanyID *uuid.UUID `json:"company_id"`
}

type UpdateUserRequest struct {
	Username  *string    `json:"username"`
	Password  *string    `json:"password"`
	Role      *string    `json:"role"`
	Type      *string    `json:"type"`
	CompanyID *uuid.UUID `json:"company_id"`
}

// requestedRole picks role over its legacy alias. An empty result means the field was absent.
func requestedRole(role, legacy string) string {
	if strings.TrimSpace(role) != "" {
		return role
	}
	return legacy
}

func (s *userService) Create(ctx context.Context, p models.Principal, req *CreateUserRequest) (*models.User, error) {
	raw := requestedRole(req.Role, req.Type)
	role, roleErr := models.RoleUser, error(nil)
	if strings.TrimSpace(raw) != "" {
		role, roleErr = models.ParseRole(raw)
	}

	// Tenant-bound callers default to their own company, as employee create does.
	companyID := req.CompanyID
	if companyID == nil && role != models.RoleOwner {
		if tp, ok := p.(models.TenantPrincipal); ok {
			id := tp.TenantID
			companyID = &id
		}
	}

	// The escalation guard runs before any validation or write.
	if err := s.policy.AuthorizeUserWrite(p, ActionCreate, nil, role, companyID); err != nil {
		return nil, err
	}
	if roleErr != nil {
		return nil, validationError("%s", roleErr.Error())
	}

	username := strings.TrimSpace(req.Username)
	if err := common.ValidateRequiredString(username, "username"); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, validationError("password must be at least %d characters", minPasswordLength)
	}

	user := &models.User{
		ID:       uuid.New(),
		Username: username,
		Role:     role,
	}
	if err := s.bindCompany(ctx, user, role, companyID); err != nil {
		return nil, err
	}

	hash, err := s.creds.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, mapRepoError(err, "username")
	}
	return user, nil
}

// bindCompany validates the role/company pairing and sets the user's binding.
func (s *userService) bindCompany(ctx context.Context, user *models.User, role models.Role, companyID *uuid.UUID) error {
	if !role.TenantBound() {
		return validationError("only one owner may exist")
	}
	if companyID == nil {
		return validationError("company_id is required for role %s", role)
	}
	company, err := s.companyRepo.GetByID(ctx, *companyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return validationError("company_id does not reference an existing company")
	}
	if err != nil {
		return err
	}
	id := company.ID
	user.CompanyID = &id
	user.CompanyName = company.Name
	return nil
}

func (s *userService) load(ctx context.Context, p models.Principal, id uuid.UUID, act Action) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	if err := s.policy.Authorize(p, ResourceUser, act, tenantOf(user.CompanyID)); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, p models.Principal, id uuid.UUID) (*models.User, error) {
	return s.load(ctx, p, id, ActionRead)
}

func (s *userService) Update(ctx context.Context, p models.Principal, id uuid.UUID, req *UpdateUserRequest) (*models.User, error) {
	existing, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}

	role, roleErr := existing.Role, error(nil)
	var rawRole string
	if req.Role != nil {
		rawRole = *req.Role
	}
	if req.Type != nil && strings.TrimSpace(rawRole) == "" {
		rawRole = *req.Type
	}
	if strings.TrimSpace(rawRole) != "" {
		role, roleErr = models.ParseRole(rawRole)
	}
	companyID := existing.CompanyID
	if req.CompanyID != nil {
		companyID = req.CompanyID
	}

	if err := s.policy.AuthorizeUserWrite(p, ActionUpdate, existing, role, companyID); err != nil {
		return nil, err
	}
	if roleErr != nil {
		return nil, validationError("%s", roleErr.Error())
	}

	updated := *existing
	if existing.Role == models.RoleOwner {
		if role != models.RoleOwner || req.CompanyID != nil {
			return nil, validationError("the owner cannot be demoted or bound to a company")
		}
	} else {
		updated.Role = role
		if err := s.bindCompany(ctx, &updated, role, companyID); err != nil {
			return nil, err
		}
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if err := common.ValidateRequiredString(username, "username"); err != nil {
			return nil, err
		}
		updated.Username = username
	}
	if req.Password != nil {
		if len(*req.Password) < minPasswordLength {
			return nil, validationError("password must be at least %d characters", minPasswordLength)
		}
		hash, err := s.creds.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		updated.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, &updated); err != nil {
		return nil, mapRepoError(err, "username")
	}
	return &updated, nil
}

func (s *userService) Delete(ctx context.Context, p models.Principal, id uuid.UUID) error {
	existing, err := s.load(ctx, p, id, ActionDelete)
	if err != nil {
		return err
	}
	if existing.Role == models.RoleOwner {
		return validationError("the owner cannot be deleted")
	}
	deleted, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return mapRepoError(err, "user")
	}
	if !deleted {
		return mapRepoError(repositories.ErrNotFound, "user")
	}
	return nil
}

func (s *userService) List(ctx context.Context, p models.Principal, filter models.UserFilter) ([]*models.User, error) {
	scope, err := s.policy.ScopeList(p, ResourceUser, filter.CompanyID)
	if err != nil {
		return nil, err
	}
	filter.CompanyID = scope
	filter.Limit, filter.Offset = common.ValidatePaginationParams(filter.Limit, filter.Offset)
	return s.userRepo.List(ctx, filter)
}
