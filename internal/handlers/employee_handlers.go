package handlers

import (
	"net/http"

	"timetracker/internal/middleware"
	"timetracker/internal/models"
	"timetracker/internal/services"

	"github.com/labstack/echo/v4"
)

// EmployeeHandlers handles employee records and their QR codes
type EmployeeHandlers struct {
	employeeService services.EmployeeService
}

func NewEmployeeHandlers(employeeService services.EmployeeService) *EmployeeHandlers {
	return &EmployeeHandlers{employeeService: employeeService}
}

func (h *EmployeeHandlers) ListEmployees(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	companyID, err := queryUUID(c, "company_id")
	if err != nil {
		return err
	}
	active, err := queryBool(c, "active")
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	employees, err := h.employeeService.List(c.Request().Context(), p, models.EmployeeFilter{
		CompanyID: companyID,
		Active:    active,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"employees": employees,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *EmployeeHandlers) CreateEmployee(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	var req services.CreateEmployeeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	employee, err := h.employeeService.Create(c.Request().Context(), p, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, employee)
}

func (h *EmployeeHandlers) GetEmployee(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	employee, err := h.employeeService.GetByID(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, employee)
}

// GetEmployeeByCode resolves a scanned QR code
func (h *EmployeeHandlers) GetEmployeeByCode(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}

	employee, err := h.employeeService.GetByCode(c.Request().Context(), p, c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandlers) UpdateEmployee(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req services.UpdateEmployeeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	employee, err := h.employeeService.Update(c.Request().Context(), p, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandlers) DeleteEmployee(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.employeeService.Delete(c.Request().Context(), p, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// IssueCode renders the employee's QR code
func (h *EmployeeHandlers) IssueCode(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	code, err := h.employeeService.IssueCode(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, code)
}
