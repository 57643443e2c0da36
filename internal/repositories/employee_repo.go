package repositories

import (
	"context"

	"timetracker/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	GetByCode(ctx context.Context, code string) (*models.Employee, error)
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter models.EmployeeFilter) ([]*models.Employee, error)
}

type employeeRepo struct {
	db DBTX
}

func NewEmployeeRepo(db DBTX) EmployeeRepository {
	return &employeeRepo{db: db}
}

const employeeColumns = `id, company_id, name, code, is_active, created_at, updated_at`

func scanEmployee(row pgx.Row) (*models.Employee, error) {
	e := &models.Employee{}
	if err := row.Scan(&e.ID, &e.CompanyID, &e.Name, &e.Code, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *employeeRepo) Create(ctx context.Context, employee *models.Employee) error {
	query := `
		INSERT INTO employees (id, company_id, name, code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, employee.ID, employee.CompanyID, employee.Name, employee.Code, employee.IsActive).
		Scan(&employee.CreatedAt, &employee.UpdatedAt)
	return translate(err, "create employee")
}

func (r *employeeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	e, err := scanEmployee(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get employee")
	}
	return e, nil
}

func (r *employeeRepo) GetByCode(ctx context.Context, code string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE code = $1`
	e, err := scanEmployee(r.db.QueryRow(ctx, query, code))
	if err != nil {
		return nil, translate(err, "get employee by code")
	}
	return e, nil
}

// Update persists name, company and active flag. The code column is never written after insert.
// The employee's time entries follow it to its company in the same statement.
func (r *employeeRepo) Update(ctx context.Context, employee *models.Employee) error {
	query := `
		WITH moved AS (
			UPDATE employees
			SET name = $1, company_id = $2, is_active = $3, updated_at = NOW()
			WHERE id = $4
			RETURNING id, company_id, code, created_at, updated_at
		), entries AS (
			UPDATE time_entries t
			SET company_id = moved.company_id, updated_at = NOW()
			FROM moved
			WHERE t.employee_id = moved.id AND t.company_id <> moved.company_id
		)
		SELECT code, created_at, updated_at FROM moved
	`
	err := r.db.QueryRow(ctx, query, employee.Name, employee.CompanyID, employee.IsActive, employee.ID).
		Scan(&employee.Code, &employee.CreatedAt, &employee.UpdatedAt)
	return translate(err, "update employee")
}

func (r *employeeRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return false, translate(err, "delete employee")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *employeeRepo) List(ctx context.Context, filter models.EmployeeFilter) ([]*models.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE ($1::uuid IS NULL OR company_id = $1)
		  AND ($2::boolean IS NULL OR is_active = $2)
		ORDER BY name ASC, id ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, filter.CompanyID, filter.Active, filter.Limit, filter.Offset)
	if err != nil {
		return nil, translate(err, "list employees")
	}
	defer rows.Close()

	employees := []*models.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, translate(err, "scan employee")
		}
		employees = append(employees, e)
	}
	return employees, translate(rows.Err(), "list employees")
}
