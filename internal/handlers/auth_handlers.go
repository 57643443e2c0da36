package handlers

import (
	"errors"
	"net/http"

	"timetracker/internal/common"
	"timetracker/internal/middleware"
	"timetracker/internal/models"
	"timetracker/internal/repositories"
	"timetracker/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles login and the caller's own identity
type AuthHandlers struct {
	authService services.AuthService
	creds       services.CredentialStore
}

func NewAuthHandlers(authService services.AuthService, creds services.CredentialStore) *AuthHandlers {
	return &AuthHandlers{authService: authService, creds: creds}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        *models.User `json:"user"`
}

// Login exchanges a username and password for a bearer token
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req.Username, req.Password, c.RealIP())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: result.Token.AccessToken,
		TokenType:   result.Token.TokenType,
		ExpiresIn:   result.Token.ExpiresIn,
		User:        result.User,
	})
}

// Me returns the authenticated identity
func (h *AuthHandlers) Me(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	user, err := h.creds.Lookup(c.Request().Context(), p.UserID())
	if errors.Is(err, repositories.ErrNotFound) {
		return common.ErrUnauthenticated
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
