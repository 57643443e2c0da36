package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"timetracker/internal/common"
	"timetracker/internal/metrics"

	"github.com/labstack/echo/v4"
)

// Audit logs every mutating request and every failure with the acting
// principal, and counts response statuses.
func Audit(rec metrics.Recorder) echo.MiddlewareFunc {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := statusOf(c, err)
			rec.RecordHTTPStatus(status)

			method := c.Request().Method
			if !isMutation(method) && err == nil {
				return err
			}

			attrs := []any{
				"method", method,
				"path", c.Path(),
				"status", status,
				"ip", c.RealIP(),
				"latency_ms", time.Since(start).Milliseconds(),
			}
			attrs = append(attrs, principalAttrs(c)...)
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}

			ctx := c.Request().Context()
			switch {
			case status >= http.StatusInternalServerError:
				slog.ErrorContext(ctx, "audit", attrs...)
			case status == http.StatusForbidden || status == http.StatusUnauthorized:
				slog.WarnContext(ctx, "audit", attrs...)
			default:
				slog.InfoContext(ctx, "audit", attrs...)
			}
			return err
		}
	}
}

func principalAttrs(c echo.Context) []any {
	ctx := c.Request().Context()
	p, ok := common.GetPrincipalFromContext(ctx)
	if !ok {
		return nil
	}
	userID, _ := common.GetUserIDFromContext(ctx)
	attrs := []any{"user_id", userID, "role", p.Role()}
	if tenantID, ok := common.GetTenantIDFromContext(ctx); ok {
		attrs = append(attrs, "tenant_id", tenantID)
	}
	return attrs
}

// statusOf predicts the status the error handler will write for err.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	status, _, _ := common.Classify(err)
	return status
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
