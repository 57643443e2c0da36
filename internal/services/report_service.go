package services

import (
	"context"
	"log/slog"
	"time"

	"timetracker/internal/caching"
	"timetracker/internal/common"
	"timetracker/internal/metrics"
	"timetracker/internal/models"
	"timetracker/internal/repositories"

	"github.com/google/uuid"
)

const summaryCacheTTL = 15 * time.Minute

// ReportService aggregates attendance within the caller's visible scope.
type ReportService interface {
	Attendance(ctx context.Context, p models.Principal, filter models.TimeEntryFilter) ([]*models.AttendanceSummary, error)
	Today(ctx context.Context, p models.Principal) ([]*models.AttendanceSummary, error)
	RefreshToday(ctx context.Context) error
	FlagStaleEntries(ctx context.Context, olderThan time.Duration) (int, error)
}

type reportService struct {
	entryRepo   repositories.TimeEntryRepository
	companyRepo repositories.CompanyRepository
	cacheSvc    caching.CacheService
	policy      *AccessPolicy
	rec         metrics.Recorder
	now         func() time.Time
}

func NewReportService(entryRepo repositories.TimeEntryRepository, companyRepo repositories.CompanyRepository, cacheSvc caching.CacheService, policy *AccessPolicy, rec metrics.Recorder) ReportService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &reportService{
		entryRepo:   entryRepo,
		companyRepo: companyRepo,
		cacheSvc:    cacheSvc,
		policy:      policy,
		rec:         rec,
		now:         time.Now,
	}
}

// Attendance sums hours per employee for the filter, rewritten to the caller's scope.
func (s *reportService) Attendance(ctx context.Context, p models.Principal, filter models.TimeEntryFilter) ([]*models.AttendanceSummary, error) {
	if err := common.ValidateDateRange(filter.From, filter.To); err != nil {
		return nil, err
	}
	scope, err := s.policy.ScopeList(p, ResourceTimeEntry, filter.CompanyID)
	if err != nil {
		return nil, err
	}
	filter.CompanyID = scope
	return s.entryRepo.Summarize(ctx, filter)
}

func (s *reportService) today() (string, time.Time) {
	day := s.now().UTC().Truncate(24 * time.Hour)
	return day.Format(models.DateLayout), day
}

// Today returns the current day's summary, from the cache when fresh.
func (s *reportService) Today(ctx context.Context, p models.Principal) ([]*models.AttendanceSummary, error) {
	scope, err := s.policy.ScopeList(p, ResourceTimeEntry, nil)
	if err != nil {
		return nil, err
	}
	date, day := s.today()

	if s.cacheSvc != nil {
		cached, err := s.cacheSvc.GetDailySummary(ctx, scope, date)
		if err != nil {
			slog.Warn("summary cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}
	return s.computeDay(ctx, scope, date, day)
}

func (s *reportService) computeDay(ctx context.Context, scope *uuid.UUID, date string, day time.Time) ([]*models.AttendanceSummary, error) {
	summaries, err := s.entryRepo.Summarize(ctx, models.TimeEntryFilter{CompanyID: scope, From: &day, To: &day})
	if err != nil {
		return nil, err
	}
	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetDailySummary(ctx, scope, date, summaries, summaryCacheTTL); err != nil {
			slog.Warn("summary cache write failed", "error", err)
		}
	}
	return summaries, nil
}

// RefreshToday recomputes the cached summaries of every company and the global view.
func (s *reportService) RefreshToday(ctx context.Context) error {
	date, day := s.today()
	if _, err := s.computeDay(ctx, nil, date, day); err != nil {
		return err
	}

	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		companies, err := s.companyRepo.List(ctx, pageSize, offset)
		if err != nil {
			return err
		}
		for _, c := range companies {
			id := c.ID
			if _, err := s.computeDay(ctx, &id, date, day); err != nil {
				return err
			}
		}
		if len(companies) < pageSize {
			return nil
		}
	}
}

// FlagStaleEntries reports entries left open for longer than olderThan. They
// are logged and counted, not closed: the real check-out time is unknown.
func (s *reportService) FlagStaleEntries(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := s.entryRepo.ListOpenBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		slog.Warn("time entry still open",
			"entry_id", e.ID,
			"employee_id", e.EmployeeID,
			"company_id", e.CompanyID,
			"check_in", e.CheckIn,
		)
	}
	s.rec.RecordStaleEntries(len(entries))
	return len(entries), nil
}
