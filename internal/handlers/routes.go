package handlers

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups the resource handlers mounted under the versioned API.
type Handlers struct {
	Auth        *AuthHandlers
	Companies   *CompanyHandlers
	Users       *UserHandlers
	Employees   *EmployeeHandlers
	TimeEntries *TimeEntryHandlers
	Reports     *ReportHandlers
	Jobs        *JobHandlers
}

// Register mounts every route on api. Only login is reachable without auth.
func (h *Handlers) Register(api *echo.Group, auth echo.MiddlewareFunc) {
	api.POST("/auth/login", h.Auth.Login)

	protected := api.Group("", auth)
	protected.GET("/auth/me", h.Auth.Me)

	companies := protected.Group("/companies")
	companies.GET("", h.Companies.ListCompanies)
	companies.POST("", h.Companies.CreateCompany)
	companies.GET("/:id", h.Companies.GetCompany)
	companies.PUT("/:id", h.Companies.UpdateCompany)
	companies.DELETE("/:id", h.Companies.DeleteCompany)

	users := protected.Group("/users")
	users.GET("", h.Users.ListUsers)
	users.POST("", h.Users.CreateUser)
	users.GET("/:id", h.Users.GetUser)
	users.PUT("/:id", h.Users.UpdateUser)
	users.DELETE("/:id", h.Users.DeleteUser)

	employees := protected.Group("/employees")
	employees.GET("", h.Employees.ListEmployees)
	employees.POST("", h.Employees.CreateEmployee)
	employees.GET("/by-code/:code", h.Employees.GetEmployeeByCode)
	employees.GET("/:id", h.Employees.GetEmployee)
	employees.PUT("/:id", h.Employees.UpdateEmployee)
	employees.DELETE("/:id", h.Employees.DeleteEmployee)
	employees.POST("/:id/qr", h.Employees.IssueCode)

	entries := protected.Group("/time-entries")
	entries.GET("", h.TimeEntries.ListTimeEntries)
	entries.POST("", h.TimeEntries.CreateTimeEntry)
	entries.GET("/:id", h.TimeEntries.GetTimeEntry)
	entries.PUT("/:id", h.TimeEntries.UpdateTimeEntry)
	entries.PATCH("/:id", h.TimeEntries.UpdateTimeEntry)
	entries.DELETE("/:id", h.TimeEntries.DeleteTimeEntry)

	reports := protected.Group("/reports")
	reports.GET("/attendance", h.Reports.Attendance)
	reports.GET("/today", h.Reports.Today)

	if h.Jobs != nil {
		jobs := protected.Group("/jobs")
		jobs.GET("", h.Jobs.ListJobs)
		jobs.POST("/:name/run", h.Jobs.RunJob)
	}
}
