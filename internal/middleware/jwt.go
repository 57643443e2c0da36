package middleware

import (
	"fmt"
	"log/slog"

	"timetracker/internal/common"
	"timetracker/internal/models"
	"timetracker/internal/services"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const principalContextKey = "principal"

// JWTAuth resolves the bearer token into a principal. The subject is re-read
// from the directory on every request, so role changes and deletions apply
// to tokens that were already issued.
func JWTAuth(tokens services.TokenService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: principalContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			user, err := tokens.Resolve(c.Request().Context(), auth)
			if err != nil {
				return nil, err
			}
			p, err := models.PrincipalFor(user)
			if err != nil {
				slog.Warn("bearer token subject has inconsistent binding", "user_id", user.ID, "role", user.Role)
				return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
			}
			return p, nil
		},
		SuccessHandler: func(c echo.Context) {
			if p, ok := c.Get(principalContextKey).(models.Principal); ok {
				c.SetRequest(c.Request().WithContext(common.WithPrincipal(c.Request().Context(), p)))
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return fmt.Errorf("%w: %v", common.ErrUnauthenticated, err)
		},
	})
}

// PrincipalFrom returns the caller resolved by JWTAuth.
func PrincipalFrom(c echo.Context) (models.Principal, error) {
	p, ok := common.GetPrincipalFromContext(c.Request().Context())
	if !ok {
		return nil, common.ErrUnauthenticated
	}
	return p, nil
}
