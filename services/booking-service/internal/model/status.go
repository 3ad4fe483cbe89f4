package model

// Status is the lifecycle flag for tenants, services and staff. Rows are never hard deleted;
// deactivation flips them to StatusInactive.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled:
		return true
	}
	return false
}

type CancelledBy string

const (
	CancelledByCustomer CancelledBy = "customer"
	CancelledByStaff    CancelledBy = "staff"
	CancelledByAdmin    CancelledBy = "admin"
)

func (c CancelledBy) Valid() bool {
	switch c {
	case CancelledByCustomer, CancelledByStaff, CancelledByAdmin:
		return true
	}
	return false
}
