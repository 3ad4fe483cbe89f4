package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type Staff struct {
	ID                     string    `json:"id"`
	TenantID               string    `json:"tenant_id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	Title                  string    `json:"title"`
	IsPrimary              bool      `json:"is_primary"`
	BufferTimeAfter        int       `json:"buffer_time_after"`
	MinAdvanceBookingHours int       `json:"min_advance_booking_hours"`
	Status                 Status    `json:"status"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

type StaffInput struct {
	Name                   string `json:"name"`
	Email                  string `json:"email"`
	Title                  string `json:"title"`
	BufferTimeAfter        int    `json:"buffer_time_after"`
	MinAdvanceBookingHours int    `json:"min_advance_booking_hours"`
}

type StaffPatch struct {
	Name                   *string `json:"name"`
	Email                  *string `json:"email"`
	Title                  *string `json:"title"`
	BufferTimeAfter        *int    `json:"buffer_time_after"`
	MinAdvanceBookingHours *int    `json:"min_advance_booking_hours"`
	Status                 *Status `json:"status"`
}

func (p StaffPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Title == nil &&
		p.BufferTimeAfter == nil && p.MinAdvanceBookingHours == nil && p.Status == nil
}

func (p StaffPatch) Apply(s *Staff) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.BufferTimeAfter != nil {
		s.BufferTimeAfter = *p.BufferTimeAfter
	}
	if p.MinAdvanceBookingHours != nil {
		s.MinAdvanceBookingHours = *p.MinAdvanceBookingHours
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
}

// ClockTime is a wall-clock time of day in minutes since midnight. 24:00 is allowed as a
// closing time.
type ClockTime int

const endOfDay ClockTime = 24 * 60

// ParseClockTime accepts HH:MM and HH:MM:SS (seconds must be zero).
func ParseClockTime(s string) (ClockTime, error) {
	if (len(s) != 5 && len(s) != 8) || s[2] != ':' {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, okH := twoDigits(s[0:2])
	m, okM := twoDigits(s[3:5])
	if !okH || !okM || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if len(s) == 8 {
		if sec, ok := twoDigits(s[6:8]); s[5] != ':' || !ok || sec != 0 {
			return 0, fmt.Errorf("invalid clock time %q", s)
		}
	}
	ct := ClockTime(h*60 + m)
	if ct > endOfDay {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return ct, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func (c ClockTime) Minutes() int { return int(c) }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

type AvailabilityRule struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	StaffID     string    `json:"staff_id"`
	DayOfWeek   int       `json:"day_of_week"`
	StartTime   ClockTime `json:"start_time"`
	EndTime     ClockTime `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}

// RuleInput is one entry of a weekly schedule replacement. Times are HH:MM strings.
type RuleInput struct {
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable *bool  `json:"is_available"`
}
