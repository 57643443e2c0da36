package models

import (
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CompanyID uuid.UUID `json:"company_id" db:"company_id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"qr_code" db:"code"` // issued once, never changes
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type EmployeeFilter struct {
	CompanyID *uuid.UUID
	Active    *bool
	Limit     int
	Offset    int
}

// EmployeeCode is the response of a QR issuance.
type EmployeeCode struct {
	EmployeeID  uuid.UUID `json:"employee_id"`
	Data        string    `json:"qr_code_data"`
	ImageBase64 string    `json:"qr_code_image"`
	DownloadURL string    `json:"download_url,omitempty"`
}
