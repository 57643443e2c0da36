package services

import (
	"fmt"
	"time"

	"timetracker/internal/common"
	"timetracker/internal/models"
)

// Derive computes the attendance date and worked hours of a check-in/check-out
// pair. The date is the UTC calendar day of checkIn. Hours are nil while the
// entry is open. A check-out before the check-in yields negative hours.
func Derive(checkIn time.Time, checkOut *time.Time) (string, *float64) {
	date := checkIn.UTC().Format(models.DateLayout)
	if checkOut == nil {
		return date, nil
	}
	hours := checkOut.Sub(checkIn).Seconds() / 3600
	return date, &hours
}

// ApplyPatch merges patch into existing and re-derives date and hours from
// the resulting pair. existing is not modified.
func ApplyPatch(existing models.TimeEntry, patch models.TimeEntryPatch) models.TimeEntry {
	updated := existing
	if patch.EmployeeID != nil {
		updated.EmployeeID = *patch.EmployeeID
	}
	if patch.CheckIn != nil {
		updated.CheckIn = *patch.CheckIn
	}
	if patch.CheckOut.Set {
		updated.CheckOut = patch.CheckOut.Value
	}
	updated.Date, updated.TotalHours = Derive(updated.CheckIn, updated.CheckOut)
	return updated
}

// validateDuration rejects entries whose check-out precedes the check-in.
func validateDuration(entry *models.TimeEntry) error {
	if entry.TotalHours != nil && *entry.TotalHours < 0 {
		return fmt.Errorf("%w: check_out must not be before check_in", common.ErrValidation)
	}
	return nil
}
