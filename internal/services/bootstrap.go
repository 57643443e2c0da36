package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"timetracker/internal/models"
	"timetracker/internal/repositories"

	"github.com/google/uuid"
)

// Bootstrapper prepares an empty directory for first use.
type Bootstrapper struct {
	users     repositories.UserRepository
	companies repositories.CompanyRepository
	employees repositories.EmployeeRepository
	creds     CredentialStore
}

func NewBootstrapper(users repositories.UserRepository, companies repositories.CompanyRepository, employees repositories.EmployeeRepository, creds CredentialStore) *Bootstrapper {
	return &Bootstrapper{users: users, companies: companies, employees: employees, creds: creds}
}

// EnsureOwner creates the owner identity unless one already exists.
func (b *Bootstrapper) EnsureOwner(ctx context.Context, username, password string) error {
	count, err := b.users.CountByRole(ctx, models.RoleOwner)
	if err != nil {
		return fmt.Errorf("failed to count owners: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := b.creds.HashPassword(password)
	if err != nil {
		return err
	}
	owner := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleOwner,
	}
	if err := b.users.Create(ctx, owner); err != nil {
		return fmt.Errorf("failed to create owner: %w", err)
	}
	slog.Info("owner account created", "username", username)
	return nil
}

type demoUser struct {
	username, password string
	role               models.Role
}

var (
	demoCompanyName = "Demo Company"
	demoUsers       = []demoUser{
		{"admin", "admin123", models.RoleAdmin},
		{"user", "user123", models.RoleUser},
	}
	demoEmployees = []string{"Alice Johnson", "Bob Smith"}
)

// SeedDemo creates a demo company with an admin, a user and two employees.
// It does nothing when the demo admin already exists.
func (b *Bootstrapper) SeedDemo(ctx context.Context) error {
	if _, err := b.users.GetByUsername(ctx, demoUsers[0].username); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	company := &models.Company{ID: uuid.New(), Name: demoCompanyName}
	if err := b.companies.Create(ctx, company); err != nil {
		return fmt.Errorf("failed to create demo company: %w", err)
	}

	for _, du := range demoUsers {
		hash, err := b.creds.HashPassword(du.password)
		if err != nil {
			return err
		}
		companyID := company.ID
		user := &models.User{
			ID:           uuid.New(),
			Username:     du.username,
			PasswordHash: hash,
			Role:         du.role,
			CompanyID:    &companyID,
		}
		if err := b.users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create demo user %s: %w", du.username, err)
		}
	}

	for _, name := range demoEmployees {
		employee := &models.Employee{
			ID:        uuid.New(),
			CompanyID: company.ID,
			Name:      name,
			Code:      newEmployeeCode(),
			IsActive:  true,
		}
		if err := b.employees.Create(ctx, employee); err != nil {
			return fmt.Errorf("failed to create demo employee: %w", err)
		}
	}

	slog.Info("demo data seeded", "company_id", company.ID)
	return nil
}
