package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the representation of an attendance date key.
const DateLayout = "2006-01-02"

type TimeEntry struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	EmployeeID uuid.UUID  `json:"employee_id" db:"employee_id"`
	CompanyID  uuid.UUID  `json:"company_id" db:"company_id"`
	CheckIn    time.Time  `json:"check_in" db:"check_in"`
	CheckOut   *time.Time `json:"check_out" db:"check_out"`
	Date       string     `json:"date" db:"work_date"`
	TotalHours *float64   `json:"total_hours" db:"total_hours"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

type TimeEntryFilter struct {
	CompanyID  *uuid.UUID
	EmployeeID *uuid.UUID
	From       *time.Time // inclusive, on the derived date
	To         *time.Time // inclusive, on the derived date
	Limit      int
	Offset     int
}

// naiveTimeLayout is ISO 8601 without a zone offset, as emitted by clients
// that serialize local timestamps.
const naiveTimeLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp accepts RFC 3339 and zone-less ISO 8601. Zone-less values are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(naiveTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: use RFC 3339 or YYYY-MM-DDTHH:MM:SS", s)
	}
	return t, nil
}

// FlexibleTime is a JSON timestamp decoded with ParseTimestamp.
type FlexibleTime struct {
	time.Time
}

func (f *FlexibleTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

// Ptr returns the decoded time, or nil when f is nil.
func (f *FlexibleTime) Ptr() *time.Time {
	if f == nil {
		return nil
	}
	t := f.Time
	return &t
}

// OptionalTime distinguishes a field left out of a JSON payload (Set=false)
// from one explicitly sent as null (Set=true, Value=nil).
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var f FlexibleTime
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	o.Value = f.Ptr()
	return nil
}

// Some returns an OptionalTime holding t.
func Some(t time.Time) OptionalTime {
	return OptionalTime{Set: true, Value: &t}
}

// TimeEntryPatch is a partial update. Absent fields keep their stored value.
type TimeEntryPatch struct {
	EmployeeID *uuid.UUID   `json:"employee_id"`
	CheckIn    *time.Time   `json:"check_in"`
	CheckOut   OptionalTime `json:"check_out"`
}

func (p *TimeEntryPatch) UnmarshalJSON(data []byte) error {
	var raw struct {
		EmployeeID *uuid.UUID    `json:"employee_id"`
		CheckIn    *FlexibleTime `json:"check_in"`
		CheckOut   OptionalTime  `json:"check_out"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.EmployeeID = raw.EmployeeID
	p.CheckIn = raw.CheckIn.Ptr()
	p.CheckOut = raw.CheckOut
	return nil
}

// AttendanceSummary aggregates worked hours per employee over a date range.
type AttendanceSummary struct {
	EmployeeID   uuid.UUID `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	CompanyID    uuid.UUID `json:"company_id"`
	Entries      int       `json:"entries"`
	OpenEntries  int       `json:"open_entries"`
	TotalHours   float64   `json:"total_hours"`
}
