package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize in JSON
	Role         Role       `json:"role" db:"role"`
	CompanyID    *uuid.UUID `json:"company_id" db:"company_id"`
	CompanyName  string     `json:"company_name,omitempty" db:"company_name"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// UserFilter narrows user listings. A nil CompanyID lists every company.
type UserFilter struct {
	CompanyID *uuid.UUID
	Limit     int
	Offset    int
}
