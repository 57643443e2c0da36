package handlers

import (
	"net/http"

	"timetracker/internal/middleware"
	"timetracker/internal/services"

	"github.com/labstack/echo/v4"
)

// CompanyHandlers handles company (tenant) requests. All of them are owner-only.
type CompanyHandlers struct {
	companyService services.CompanyService
}

func NewCompanyHandlers(companyService services.CompanyService) *CompanyHandlers {
	return &CompanyHandlers{companyService: companyService}
}

func (h *CompanyHandlers) ListCompanies(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	companies, err := h.companyService.List(c.Request().Context(), p, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"companies": companies,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *CompanyHandlers) CreateCompany(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	var req services.CreateCompanyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	company, err := h.companyService.Create(c.Request().Context(), p, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, company)
}

func (h *CompanyHandlers) GetCompany(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	company, err := h.companyService.GetByID(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, company)
}

func (h *CompanyHandlers) UpdateCompany(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req services.UpdateCompanyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	company, err := h.companyService.Update(c.Request().Context(), p, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, company)
}

// DeleteCompany removes the company and everything bound to it
func (h *CompanyHandlers) DeleteCompany(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.companyService.Delete(c.Request().Context(), p, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
