package common

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Caller-visible failure kinds. Every error leaving the service layer wraps
// exactly one of them.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrTooManyRequests = errors.New("too many requests")
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// Classify maps an error to its HTTP status, error code and public message.
func Classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		// never say why
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized access"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "Insufficient permissions"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many attempts, try again later"
	default:
		return http.StatusInternalServerError, "SERVER_ERROR", "Internal server error"
	}
}

// HTTPErrorHandler renders both domain errors and echo errors as ErrorResponse.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status  int
		code    string
		message string
	)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		code = http.StatusText(he.Code)
		message = http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			message = m
		}
		if status == http.StatusUnauthorized {
			code, message = "UNAUTHORIZED", "Unauthorized access"
		}
	} else {
		status, code, message = Classify(err)
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, CreateErrorResponse(code, message, nil))
	}
	if writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr)
	}
}
