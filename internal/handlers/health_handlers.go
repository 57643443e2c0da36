package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is any dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles liveness and readiness probes
type HealthHandlers struct {
	db      Pinger
	cache   Pinger
	version string
	started time.Time
}

// NewHealthHandlers creates a new health handlers instance. cache may be nil.
func NewHealthHandlers(db, cache Pinger, version string) *HealthHandlers {
	return &HealthHandlers{db: db, cache: cache, version: version, started: time.Now()}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

func (h *HealthHandlers) status(state string) *HealthStatus {
	return &HealthStatus{
		Status:    state,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	}
}

// HealthCheck reports that the process is up
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status("healthy"))
}

// ReadinessCheck pings the database and the cache. Only the database is required.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	health := h.status("ready")
	health.Services = map[string]string{}
	statusCode := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		health.Services["database"] = "unhealthy"
		health.Status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	} else {
		health.Services["database"] = "healthy"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			health.Services["redis"] = "unhealthy"
			if health.Status == "ready" {
				health.Status = "degraded"
			}
		} else {
			health.Services["redis"] = "healthy"
		}
	}

	return c.JSON(statusCode, health)
}
