package repositories

import (
	"context"
	"time"

	"timetracker/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TimeEntryRepository interface {
	Create(ctx context.Context, entry *models.TimeEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TimeEntry, error)
	Update(ctx context.Context, entry *models.TimeEntry) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter models.TimeEntryFilter) ([]*models.TimeEntry, error)
	Summarize(ctx context.Context, filter models.TimeEntryFilter) ([]*models.AttendanceSummary, error)
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]*models.TimeEntry, error)
}

type timeEntryRepo struct {
	db DBTX
}

func NewTimeEntryRepo(db DBTX) TimeEntryRepository {
	return &timeEntryRepo{db: db}
}

const timeEntryColumns = `id, employee_id, company_id, check_in, check_out, work_date::text, total_hours, created_at, updated_at`

func scanTimeEntry(row pgx.Row) (*models.TimeEntry, error) {
	t := &models.TimeEntry{}
	err := row.Scan(&t.ID, &t.EmployeeID, &t.CompanyID, &t.CheckIn, &t.CheckOut, &t.Date, &t.TotalHours, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *timeEntryRepo) Create(ctx context.Context, entry *models.TimeEntry) error {
	query := `
		INSERT INTO time_entries (id, employee_id, company_id, check_in, check_out, work_date, total_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, entry.ID, entry.EmployeeID, entry.CompanyID, entry.CheckIn, entry.CheckOut, entry.Date, entry.TotalHours).
		Scan(&entry.CreatedAt, &entry.UpdatedAt)
	return translate(err, "create time entry")
}

func (r *timeEntryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = $1`
	t, err := scanTimeEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get time entry")
	}
	return t, nil
}

func (r *timeEntryRepo) Update(ctx context.Context, entry *models.TimeEntry) error {
	query := `
		UPDATE time_entries
		SET employee_id = $1, company_id = $2, check_in = $3, check_out = $4, work_date = $5::date, total_hours = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, entry.EmployeeID, entry.CompanyID, entry.CheckIn, entry.CheckOut, entry.Date, entry.TotalHours, entry.ID).
		Scan(&entry.CreatedAt, &entry.UpdatedAt)
	return translate(err, "update time entry")
}

func (r *timeEntryRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM time_entries WHERE id = $1`, id)
	if err != nil {
		return false, translate(err, "delete time entry")
	}
	return tag.RowsAffected() > 0, nil
}

func dateArg(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}

func (r *timeEntryRepo) List(ctx context.Context, filter models.TimeEntryFilter) ([]*models.TimeEntry, error) {
	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE ($1::uuid IS NULL OR company_id = $1)
		  AND ($2::uuid IS NULL OR employee_id = $2)
		  AND ($3::date IS NULL OR work_date >= $3::date)
		  AND ($4::date IS NULL OR work_date <= $4::date)
		ORDER BY check_in DESC, id ASC
		LIMIT $5 OFFSET $6
	`
	rows, err := r.db.Query(ctx, query, filter.CompanyID, filter.EmployeeID, dateArg(filter.From), dateArg(filter.To), filter.Limit, filter.Offset)
	if err != nil {
		return nil, translate(err, "list time entries")
	}
	defer rows.Close()

	entries := []*models.TimeEntry{}
	for rows.Next() {
		t, err := scanTimeEntry(rows)
		if err != nil {
			return nil, translate(err, "scan time entry")
		}
		entries = append(entries, t)
	}
	return entries, translate(rows.Err(), "list time entries")
}

// Summarize aggregates worked hours per employee for entries matching the
// filter. Limit and offset are ignored.
func (r *timeEntryRepo) Summarize(ctx context.Context, filter models.TimeEntryFilter) ([]*models.AttendanceSummary, error) {
	query := `
		SELECT e.id, e.name, e.company_id,
		       COUNT(t.id)::int,
		       COUNT(t.id) FILTER (WHERE t.check_out IS NULL)::int,
		       COALESCE(SUM(t.total_hours), 0)::double precision
		FROM time_entries t
		JOIN employees e ON e.id = t.employee_id
		WHERE ($1::uuid IS NULL OR t.company_id = $1)
		  AND ($2::uuid IS NULL OR t.employee_id = $2)
		  AND ($3::date IS NULL OR t.work_date >= $3::date)
		  AND ($4::date IS NULL OR t.work_date <= $4::date)
		GROUP BY e.id, e.name, e.company_id
		ORDER BY e.name ASC, e.id ASC
	`
	rows, err := r.db.Query(ctx, query, filter.CompanyID, filter.EmployeeID, dateArg(filter.From), dateArg(filter.To))
	if err != nil {
		return nil, translate(err, "summarize time entries")
	}
	defer rows.Close()

	summaries := []*models.AttendanceSummary{}
	for rows.Next() {
		s := &models.AttendanceSummary{}
		if err := rows.Scan(&s.EmployeeID, &s.EmployeeName, &s.CompanyID, &s.Entries, &s.OpenEntries, &s.TotalHours); err != nil {
			return nil, translate(err, "scan summary")
		}
		summaries = append(summaries, s)
	}
	return summaries, translate(rows.Err(), "summarize time entries")
}

// ListOpenBefore returns entries without a check-out whose check-in is older than cutoff.
func (r *timeEntryRepo) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]*models.TimeEntry, error) {
	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE check_out IS NULL AND check_in < $1
		ORDER BY check_in ASC
	`
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, translate(err, "list open time entries")
	}
	defer rows.Close()

	entries := []*models.TimeEntry{}
	for rows.Next() {
		t, err := scanTimeEntry(rows)
		if err != nil {
			return nil, translate(err, "scan time entry")
		}
		entries = append(entries, t)
	}
	return entries, translate(rows.Err(), "list open time entries")
}
