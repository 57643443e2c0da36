package middleware

import (
	"github.com/labstack/echo/v4"
)

// VersionRoute creates a version-specific route group under prefix.
func VersionRoute(e *echo.Echo, prefix, version string) *echo.Group {
	group := e.Group(prefix + "/" + version)
	group.Use(VersionHeader(version))
	return group
}

// VersionHeader adds the API version to response headers
func VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)
			c.Set("api_version", version)
			return next(c)
		}
	}
}
