package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is a tenant. Employees, time entries and tenant-bound users all hang off one.
type Company struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
