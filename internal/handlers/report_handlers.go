package handlers

import (
	"net/http"

	"timetracker/internal/middleware"
	"timetracker/internal/services"

	"github.com/labstack/echo/v4"
)

// ReportHandlers serves attendance summaries
type ReportHandlers struct {
	reportService services.ReportService
}

func NewReportHandlers(reportService services.ReportService) *ReportHandlers {
	return &ReportHandlers{reportService: reportService}
}

// Attendance sums worked hours per employee over from..to
func (h *ReportHandlers) Attendance(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	filter, err := entryFilter(c)
	if err != nil {
		return err
	}

	summaries, err := h.reportService.Attendance(c.Request().Context(), p, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"from":      c.QueryParam("from"),
		"to":        c.QueryParam("to"),
		"employees": summaries,
	})
}

func (h *ReportHandlers) Today(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}

	summaries, err := h.reportService.Today(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"employees": summaries,
	})
}
