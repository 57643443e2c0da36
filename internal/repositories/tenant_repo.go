package repositories

import (
	"context"

	"timetracker/internal/models"

	"github.com/google/uuid"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	Update(ctx context.Context, company *models.Company) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*models.Company, error)
}

type companyRepo struct {
	db DBTX
}

func NewCompanyRepo(db DBTX) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) Create(ctx context.Context, company *models.Company) error {
	query := `
		INSERT INTO companies (id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, company.ID, company.Name).Scan(&company.CreatedAt, &company.UpdatedAt)
	return translate(err, "create company")
}

func (r *companyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company := &models.Company{}
	query := `
		SELECT id, name, created_at, updated_at
		FROM companies
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&company.ID, &company.Name, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		return nil, translate(err, "get company")
	}
	return company, nil
}

func (r *companyRepo) Update(ctx context.Context, company *models.Company) error {
	query := `
		UPDATE companies
		SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, company.Name, company.ID).Scan(&company.CreatedAt, &company.UpdatedAt)
	return translate(err, "update company")
}

// Delete removes the company. Users, employees and time entries go with it
// through the foreign keys.
func (r *companyRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return false, translate(err, "delete company")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *companyRepo) List(ctx context.Context, limit, offset int) ([]*models.Company, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM companies
		ORDER BY name ASC, id ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, translate(err, "list companies")
	}
	defer rows.Close()

	companies := []*models.Company{}
	for rows.Next() {
		company := &models.Company{}
		if err := rows.Scan(&company.ID, &company.Name, &company.CreatedAt, &company.UpdatedAt); err != nil {
			return nil, translate(err, "scan company")
		}
		companies = append(companies, company)
	}
	return companies, translate(rows.Err(), "list companies")
}
