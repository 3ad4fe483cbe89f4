package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Appointment struct {
	ID                 string            `json:"id"`
	TenantID           string            `json:"tenant_id"`
	ServiceID          string            `json:"service_id"`
	StaffID            string            `json:"staff_id"`
	StartTime          time.Time         `json:"start_time"`
	EndTime            time.Time         `json:"end_time"`
	DurationMinutes    int               `json:"duration_minutes"`
	Timezone           string            `json:"timezone"`
	CustomerName       string            `json:"customer_name"`
	CustomerEmail      string            `json:"customer_email"`
	CustomerPhone      string            `json:"customer_phone,omitempty"`
	CustomerNotes      string            `json:"customer_notes,omitempty"`
	ConfirmationCode   string            `json:"confirmation_code"`
	BookingSource      string            `json:"booking_source"`
	Status             AppointmentStatus `json:"status"`
	TotalPriceCents    int64             `json:"total_price_cents"`
	RequiresApproval   bool              `json:"requires_approval"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	CancelledBy        CancelledBy       `json:"cancelled_by,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// AppointmentInput is a booking request. StartTime is either RFC 3339 with an offset or a
// local YYYY-MM-DDTHH:MM[:SS] read in Timezone.
type AppointmentInput struct {
	ServiceID     string `json:"service_id"`
	StaffID       string `json:"staff_id"`
	StartTime     string `json:"start_time"`
	Timezone      string `json:"timezone"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	CustomerNotes string `json:"customer_notes"`
	BookingSource string `json:"booking_source"`
}

// AppointmentFilter narrows a listing. Zero values mean "no constraint"; bounds are inclusive.
type AppointmentFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	StaffID       string
	ServiceID     string
	Status        AppointmentStatus
	CustomerEmail string
}

type CancelInput struct {
	Reason      string      `json:"reason"`
	CancelledBy CancelledBy `json:"cancelled_by"`
}

type LookupKind int

const (
	ByID LookupKind = iota
	ByCode
)

// Lookup names an appointment either by its row id or by its confirmation code.
type Lookup struct {
	Kind  LookupKind
	Value string
}

func LookupByID(id string) Lookup { return Lookup{Kind: ByID, Value: id} }

func LookupByCode(code string) Lookup {
	return Lookup{Kind: ByCode, Value: strings.ToUpper(strings.TrimSpace(code))}
}

// ParseReference guesses the lookup kind from the shape of ref: canonical UUIDs are ids,
// anything else is a confirmation code. Only for callers that cannot know which they hold.
func ParseReference(ref string) Lookup {
	ref = strings.TrimSpace(ref)
	if len(ref) == 36 {
		if _, err := uuid.Parse(ref); err == nil {
			return LookupByID(strings.ToLower(ref))
		}
	}
	return LookupByCode(ref)
}

// Slot is a bookable interval. Only free slots are ever produced, so Available is always true.
type Slot struct {
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	LocalStartTime time.Time `json:"local_start_time"`
	LocalEndTime   time.Time `json:"local_end_time"`
	DisplayTime    string    `json:"display_time"`
	Available      bool      `json:"available"`
}

type NotificationKind string

const (
	NotificationConfirmation NotificationKind = "confirmation"
	NotificationCancellation NotificationKind = "cancellation"
)

// NotificationRecord is one send attempt in the notification history.
type NotificationRecord struct {
	ID            string           `json:"id"`
	AppointmentID string           `json:"appointment_id"`
	Kind          NotificationKind `json:"kind"`
	Recipient     string           `json:"recipient"`
	Status        string           `json:"status"`
	ProviderID    string           `json:"provider_id,omitempty"`
	Error         string           `json:"error,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
