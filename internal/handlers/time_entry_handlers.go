package handlers

import (
	"net/http"
	"time"

	"timetracker/internal/common"
	"timetracker/internal/middleware"
	"timetracker/internal/models"
	"timetracker/internal/services"

	"github.com/labstack/echo/v4"
)

// TimeEntryHandlers handles attendance records
type TimeEntryHandlers struct {
	entryService services.TimeEntryService
}

func NewTimeEntryHandlers(entryService services.TimeEntryService) *TimeEntryHandlers {
	return &TimeEntryHandlers{entryService: entryService}
}

// entryFilter reads company_id, employee_id, from and to (YYYY-MM-DD).
func entryFilter(c echo.Context) (models.TimeEntryFilter, error) {
	var filter models.TimeEntryFilter
	var err error
	if filter.CompanyID, err = queryUUID(c, "company_id"); err != nil {
		return filter, err
	}
	if filter.EmployeeID, err = queryUUID(c, "employee_id"); err != nil {
		return filter, err
	}
	var from, to *time.Time
	if from, err = common.ValidateDateFormat(c.QueryParam("from"), "from"); err != nil {
		return filter, err
	}
	if to, err = common.ValidateDateFormat(c.QueryParam("to"), "to"); err != nil {
		return filter, err
	}
	filter.From, filter.To = from, to
	return filter, nil
}

func (h *TimeEntryHandlers) ListTimeEntries(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	filter, err := entryFilter(c)
	if err != nil {
		return err
	}
	if filter.Limit, filter.Offset, err = pagination(c); err != nil {
		return err
	}

	entries, err := h.entryService.List(c.Request().Context(), p, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"time_entries": entries,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

// CreateTimeEntry records a check-in, optionally with its check-out
func (h *TimeEntryHandlers) CreateTimeEntry(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	var req services.CreateTimeEntryRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	entry, err := h.entryService.Create(c.Request().Context(), p, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *TimeEntryHandlers) GetTimeEntry(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	entry, err := h.entryService.GetByID(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

// UpdateTimeEntry applies a partial update. "check_out": null reopens the entry.
func (h *TimeEntryHandlers) UpdateTimeEntry(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var patch models.TimeEntryPatch
	if err := bindBody(c, &patch); err != nil {
		return err
	}

	entry, err := h.entryService.Update(c.Request().Context(), p, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *TimeEntryHandlers) DeleteTimeEntry(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.entryService.Delete(c.Request().Context(), p, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
