package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	JobSummaryRefresh = "daily-summary-refresh"
	JobStaleEntries   = "stale-entry-check"
)

var ErrUnknownJob = errors.New("unknown job")

// SummaryMaintainer is the slice of the report service the jobs drive.
type SummaryMaintainer interface {
	RefreshToday(ctx context.Context) error
	FlagStaleEntries(ctx context.Context, olderThan time.Duration) (int, error)
}

// JobScheduler runs periodic maintenance of the attendance summaries
type JobScheduler struct {
	scheduler  gocron.Scheduler
	reports    SummaryMaintainer
	staleAfter time.Duration
	timeout    time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]gocron.Job
}

// NewJobScheduler registers the summary refresh every refreshEvery and the
// stale-entry check every hour.
func NewJobScheduler(reports SummaryMaintainer, refreshEvery, staleAfter time.Duration, opts ...gocron.SchedulerOption) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobScheduler{
		scheduler:  scheduler,
		reports:    reports,
		staleAfter: staleAfter,
		timeout:    time.Minute,
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[string]gocron.Job),
	}

	specs := []struct {
		name  string
		every time.Duration
		task  func() error
	}{
		{JobSummaryRefresh, refreshEvery, js.refreshSummaries},
		{JobStaleEntries, time.Hour, js.flagStaleEntries},
	}
	for _, spec := range specs {
		if err := js.register(spec.name, spec.every, spec.task); err != nil {
			cancel()
			_ = scheduler.Shutdown()
			return nil, err
		}
	}

	slog.Info("registered background jobs", "count", len(js.jobs))
	return js, nil
}

func (js *JobScheduler) register(name string, every time.Duration, task func() error) error {
	if every <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", name, err)
	}

	js.mu.Lock()
	js.jobs[name] = job
	js.mu.Unlock()
	return nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	slog.Info("starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels in-flight jobs and waits for the scheduler to drain
func (js *JobScheduler) Stop() error {
	slog.Info("stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

// RunNow triggers a registered job outside its schedule.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, ok := js.jobs[name]
	js.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return job.RunNow()
}

// JobNames lists the registered jobs, sorted.
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (js *JobScheduler) refreshSummaries() error {
	ctx, cancel := context.WithTimeout(js.ctx, js.timeout)
	defer cancel()

	start := time.Now()
	if err := js.reports.RefreshToday(ctx); err != nil {
		slog.Error("daily summary refresh failed", "error", err)
		return err
	}
	slog.Debug("daily summaries refreshed", "duration", time.Since(start))
	return nil
}

func (js *JobScheduler) flagStaleEntries() error {
	ctx, cancel := context.WithTimeout(js.ctx, js.timeout)
	defer cancel()

	count, err := js.reports.FlagStaleEntries(ctx, js.staleAfter)
	if err != nil {
		slog.Error("stale entry check failed", "error", err)
		return err
	}
	if count > 0 {
		slog.Warn("open time entries exceed the stale threshold", "count", count, "threshold", js.staleAfter)
	}
	return nil
}
