package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"timetracker/internal/common"
	"timetracker/internal/jobs/background"
	"timetracker/internal/middleware"
	"timetracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// JobRunner is the part of the scheduler exposed over HTTP.
type JobRunner interface {
	JobNames() []string
	RunNow(name string) error
}

// JobHandlers lets the owner inspect and trigger background jobs
type JobHandlers struct {
	runner JobRunner
	policy *services.AccessPolicy
}

func NewJobHandlers(runner JobRunner, policy *services.AccessPolicy) *JobHandlers {
	return &JobHandlers{runner: runner, policy: policy}
}

func (h *JobHandlers) ListJobs(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	if err := h.policy.Authorize(p, services.ResourceJob, services.ActionList, uuid.Nil); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"jobs": h.runner.JobNames(),
	})
}

// RunJob schedules an immediate run. The job executes asynchronously.
func (h *JobHandlers) RunJob(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	if err := h.policy.Authorize(p, services.ResourceJob, services.ActionRun, uuid.Nil); err != nil {
		return err
	}

	name := c.Param("name")
	if err := h.runner.RunNow(name); err != nil {
		if errors.Is(err, background.ErrUnknownJob) {
			return fmt.Errorf("%w: job %s", common.ErrNotFound, name)
		}
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"job":    name,
		"status": "triggered",
	})
}
