package services

import (
	"errors"
	"fmt"

	"timetracker/internal/common"
	"timetracker/internal/repositories"
)

// mapRepoError converts repository sentinels into caller-facing ones.
func mapRepoError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%s %w", what, common.ErrNotFound)
	case errors.Is(err, repositories.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", common.ErrConflict, what)
	default:
		return err
	}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}
