package testhelpers

import (
	"context"
	"sort"
	"sync"
	"time"

	"timetracker/internal/models"
	"timetracker/internal/repositories"

	"github.com/google/uuid"
)

// Directory is an in-memory stand-in for the PostgreSQL repositories. It
// enforces the same unique keys and cascades as the schema.
type Directory struct {
	mu        sync.Mutex
	companies map[uuid.UUID]models.Company
	users     map[uuid.UUID]models.User
	employees map[uuid.UUID]models.Employee
	entries   map[uuid.UUID]models.TimeEntry
	now       func() time.Time
}

func NewDirectory() *Directory {
	return &Directory{
		companies: map[uuid.UUID]models.Company{},
		users:     map[uuid.UUID]models.User{},
		employees: map[uuid.UUID]models.Employee{},
		entries:   map[uuid.UUID]models.TimeEntry{},
		now:       time.Now,
	}
}

func (d *Directory) Companies() repositories.CompanyRepository     { return companyStore{d} }
func (d *Directory) Users() repositories.UserRepository            { return userStore{d} }
func (d *Directory) Employees() repositories.EmployeeRepository    { return employeeStore{d} }
func (d *Directory) TimeEntries() repositories.TimeEntryRepository { return entryStore{d} }

// Counts reports the number of stored companies, users, employees and entries.
func (d *Directory) Counts() (companies, users, employees, entries int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.companies), len(d.users), len(d.employees), len(d.entries)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// companies

type companyStore struct{ d *Directory }

func (s companyStore) Create(_ context.Context, c *models.Company) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, existing := range s.d.companies {
		if existing.Name == c.Name {
			return repositories.ErrDuplicate
		}
	}
	c.CreatedAt, c.UpdatedAt = s.d.now(), s.d.now()
	s.d.companies[c.ID] = *c
	return nil
}

func (s companyStore) GetByID(_ context.Context, id uuid.UUID) (*models.Company, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	c, ok := s.d.companies[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (s companyStore) Update(_ context.Context, c *models.Company) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	existing, ok := s.d.companies[c.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	c.CreatedAt, c.UpdatedAt = existing.CreatedAt, s.d.now()
	s.d.companies[c.ID] = *c
	return nil
}

func (s companyStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.companies[id]; !ok {
		return false, nil
	}
	delete(s.d.companies, id)
	for uid, u := range s.d.users {
		if u.CompanyID != nil && *u.CompanyID == id {
			delete(s.d.users, uid)
		}
	}
	for eid, e := range s.d.employees {
		if e.CompanyID == id {
			delete(s.d.employees, eid)
		}
	}
	for tid, t := range s.d.entries {
		if t.CompanyID == id {
			delete(s.d.entries, tid)
		}
	}
	return true, nil
}

func (s companyStore) List(_ context.Context, limit, offset int) ([]*models.Company, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := []*models.Company{}
	for _, c := range s.d.companies {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

// users

type userStore struct{ d *Directory }

func (s userStore) withCompanyName(u models.User) *models.User {
	u.CompanyName = ""
	if u.CompanyID != nil {
		if c, ok := s.d.companies[*u.CompanyID]; ok {
			u.CompanyName = c.Name
		}
	}
	return &u
}

func (s userStore) Create(_ context.Context, u *models.User) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, existing := range s.d.users {
		if existing.Username == u.Username {
			return repositories.ErrDuplicate
		}
	}
	u.CreatedAt, u.UpdatedAt = s.d.now(), s.d.now()
	s.d.users[u.ID] = *u
	return nil
}

func (s userStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	u, ok := s.d.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return s.withCompanyName(u), nil
}

func (s userStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, u := range s.d.users {
		if u.Username == username {
			return s.withCompanyName(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s userStore) Update(_ context.Context, u *models.User) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	existing, ok := s.d.users[u.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	for id, other := range s.d.users {
		if id != u.ID && other.Username == u.Username {
			return repositories.ErrDuplicate
		}
	}
	u.CreatedAt, u.UpdatedAt = existing.CreatedAt, s.d.now()
	s.d.users[u.ID] = *u
	return nil
}

func (s userStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.users[id]; !ok {
		return false, nil
	}
	delete(s.d.users, id)
	return true, nil
}

func (s userStore) List(_ context.Context, filter models.UserFilter) ([]*models.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := []*models.User{}
	for _, u := range s.d.users {
		if filter.CompanyID != nil && (u.CompanyID == nil || *u.CompanyID != *filter.CompanyID) {
			continue
		}
		out = append(out, s.withCompanyName(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return page(out, filter.Limit, filter.Offset), nil
}

func (s userStore) CountByRole(_ context.Context, role models.Role) (int, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	n := 0
	for _, u := range s.d.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// employees

type employeeStore struct{ d *Directory }

func (s employeeStore) Create(_ context.Context, e *models.Employee) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.companies[e.CompanyID]; !ok {
		return repositories.ErrNotFound
	}
	for _, existing := range s.d.employees {
		if existing.Code == e.Code {
			return repositories.ErrDuplicate
		}
	}
	e.CreatedAt, e.UpdatedAt = s.d.now(), s.d.now()
	s.d.employees[e.ID] = *e
	return nil
}

func (s employeeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Employee, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	e, ok := s.d.employees[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &e, nil
}

func (s employeeStore) GetByCode(_ context.Context, code string) (*models.Employee, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, e := range s.d.employees {
		if e.Code == code {
			return &e, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s employeeStore) Update(_ context.Context, e *models.Employee) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	existing, ok := s.d.employees[e.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	e.Code = existing.Code
	e.CreatedAt, e.UpdatedAt = existing.CreatedAt, s.d.now()
	s.d.employees[e.ID] = *e
	if e.CompanyID != existing.CompanyID {
		for tid, t := range s.d.entries {
			if t.EmployeeID == e.ID {
				t.CompanyID = e.CompanyID
				t.UpdatedAt = e.UpdatedAt
				s.d.entries[tid] = t
			}
		}
	}
	return nil
}

func (s employeeStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.employees[id]; !ok {
		return false, nil
	}
	delete(s.d.employees, id)
	for tid, t := range s.d.entries {
		if t.EmployeeID == id {
			delete(s.d.entries, tid)
		}
	}
	return true, nil
}

func (s employeeStore) List(_ context.Context, filter models.EmployeeFilter) ([]*models.Employee, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := []*models.Employee{}
	for _, e := range s.d.employees {
		if filter.CompanyID != nil && e.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.Active != nil && e.IsActive != *filter.Active {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter.Limit, filter.Offset), nil
}

// time entries

type entryStore struct{ d *Directory }

func (s entryStore) Create(_ context.Context, t *models.TimeEntry) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.employees[t.EmployeeID]; !ok {
		return repositories.ErrNotFound
	}
	t.CreatedAt, t.UpdatedAt = s.d.now(), s.d.now()
	s.d.entries[t.ID] = *t
	return nil
}

func (s entryStore) GetByID(_ context.Context, id uuid.UUID) (*models.TimeEntry, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	t, ok := s.d.entries[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (s entryStore) Update(_ context.Context, t *models.TimeEntry) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	existing, ok := s.d.entries[t.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	t.CreatedAt, t.UpdatedAt = existing.CreatedAt, s.d.now()
	s.d.entries[t.ID] = *t
	return nil
}

func (s entryStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.entries[id]; !ok {
		return false, nil
	}
	delete(s.d.entries, id)
	return true, nil
}

func (s entryStore) matching(filter models.TimeEntryFilter) []models.TimeEntry {
	var from, to string
	if filter.From != nil {
		from = filter.From.Format(models.DateLayout)
	}
	if filter.To != nil {
		to = filter.To.Format(models.DateLayout)
	}
	out := []models.TimeEntry{}
	for _, t := range s.d.entries {
		if filter.CompanyID != nil && t.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.EmployeeID != nil && t.EmployeeID != *filter.EmployeeID {
			continue
		}
		if from != "" && t.Date < from {
			continue
		}
		if to != "" && t.Date > to {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.After(out[j].CheckIn) })
	return out
}

func (s entryStore) List(_ context.Context, filter models.TimeEntryFilter) ([]*models.TimeEntry, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := []*models.TimeEntry{}
	for _, t := range s.matching(filter) {
		t := t
		out = append(out, &t)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

func (s entryStore) Summarize(_ context.Context, filter models.TimeEntryFilter) ([]*models.AttendanceSummary, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	byEmployee := map[uuid.UUID]*models.AttendanceSummary{}
	for _, t := range s.matching(filter) {
		sum, ok := byEmployee[t.EmployeeID]
		if !ok {
			e := s.d.employees[t.EmployeeID]
			sum = &models.AttendanceSummary{EmployeeID: t.EmployeeID, EmployeeName: e.Name, CompanyID: e.CompanyID}
			byEmployee[t.EmployeeID] = sum
		}
		sum.Entries++
		if t.CheckOut == nil {
			sum.OpenEntries++
		}
		if t.TotalHours != nil {
			sum.TotalHours += *t.TotalHours
		}
	}
	out := []*models.AttendanceSummary{}
	for _, sum := range byEmployee {
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeName < out[j].EmployeeName })
	return out, nil
}

func (s entryStore) ListOpenBefore(_ context.Context, cutoff time.Time) ([]*models.TimeEntry, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := []*models.TimeEntry{}
	for _, t := range s.d.entries {
		if t.CheckOut == nil && t.CheckIn.Before(cutoff) {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}
