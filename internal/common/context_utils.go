package common

import (
	"context"
	"fmt"
	"strings"
	"time"

	"timetracker/internal/models"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	TenantIDKey  contextKey = "tenant_id"
	PrincipalKey contextKey = "principal"
)

// WithPrincipal stores the resolved caller and its ids in ctx.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	ctx = context.WithValue(ctx, PrincipalKey, p)
	ctx = context.WithValue(ctx, UserIDKey, p.UserID())
	if tp, ok := p.(models.TenantPrincipal); ok {
		ctx = context.WithValue(ctx, TenantIDKey, tp.TenantID)
	}
	return ctx
}

// GetPrincipalFromContext returns the caller resolved by the auth middleware.
func GetPrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(models.Principal)
	return p, ok && p != nil
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetTenantIDFromContext extracts the tenant ID from the request context.
// The owner has none.
func GetTenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return tenantID, ok
}

// ValidateUUID parses a path or body id.
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrValidation, fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid UUID", ErrValidation, fieldName)
	}
	return id, nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, fieldName)
	}
	return nil
}

// ValidateDateFormat parses an optional YYYY-MM-DD query value.
func ValidateDateFormat(dateStr, fieldName string) (*time.Time, error) {
	if strings.TrimSpace(dateStr) == "" {
		return nil, nil
	}
	date, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be in YYYY-MM-DD format", ErrValidation, fieldName)
	}
	return &date, nil
}

// ValidateDateRange rejects inverted ranges.
func ValidateDateRange(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return fmt.Errorf("%w: end date cannot be before start date", ErrValidation)
	}
	return nil
}

// ValidatePaginationParams clamps limit/offset to sane values.
func ValidatePaginationParams(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
