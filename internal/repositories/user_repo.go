package repositories

import (
	"context"

	"timetracker/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
}

type userRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `u.id, u.username, u.password_hash, u.role, u.company_id, COALESCE(c.name, ''), u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	var role string
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.CompanyID, &user.CompanyName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	return user, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, role, company_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, user.ID, user.Username, user.PasswordHash, string(user.Role), user.CompanyID).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	return translate(err, "create user")
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN companies c ON c.id = u.company_id
		WHERE u.id = $1
	`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get user")
	}
	return user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN companies c ON c.id = u.company_id
		WHERE u.username = $1
	`
	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		return nil, translate(err, "get user by username")
	}
	return user, nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $1, password_hash = $2, role = $3, company_id = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, user.Username, user.PasswordHash, string(user.Role), user.CompanyID, user.ID).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	return translate(err, "update user")
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, translate(err, "delete user")
	}
	return tag.RowsAffected() > 0, nil
}

// List returns users ordered by username. A nil CompanyID in the filter lists
// every company, owner included.
func (r *userRepo) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN companies c ON c.id = u.company_id
		WHERE ($1::uuid IS NULL OR u.company_id = $1)
		ORDER BY u.username ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, filter.CompanyID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, translate(err, "list users")
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, translate(err, "scan user")
		}
		users = append(users, user)
	}
	return users, translate(rows.Err(), "list users")
}

func (r *userRepo) CountByRole(ctx context.Context, role models.Role) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, string(role)).Scan(&count)
	if err != nil {
		return 0, translate(err, "count users")
	}
	return count, nil
}
