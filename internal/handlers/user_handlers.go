package handlers

import (
	"net/http"

	"timetracker/internal/middleware"
	"timetracker/internal/models"
	"timetracker/internal/services"

	"github.com/labstack/echo/v4"
)

// UserHandlers handles identity management
type UserHandlers struct {
	userService services.UserService
}

func NewUserHandlers(userService services.UserService) *UserHandlers {
	return &UserHandlers{userService: userService}
}

// ListUsers lists identities. company_id is honoured for the owner only.
func (h *UserHandlers) ListUsers(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	companyID, err := queryUUID(c, "company_id")
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	users, err := h.userService.List(c.Request().Context(), p, models.UserFilter{CompanyID: companyID, Limit: limit, Offset: offset})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *UserHandlers) CreateUser(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	var req services.CreateUserRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Create(c.Request().Context(), p, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandlers) GetUser(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.GetByID(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) UpdateUser(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req services.UpdateUserRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Update(c.Request().Context(), p, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) DeleteUser(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.userService.Delete(c.Request().Context(), p, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
