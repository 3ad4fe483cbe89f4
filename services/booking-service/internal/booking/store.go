package booking

import (
	"context"
	"time"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

// Repository is the query surface of the relational store. Single-row getters return ErrNotFound
// when nothing matches; tenant-scoped getters treat rows of other tenants as missing.
type Repository interface {
	GetTenantByOwner(ctx context.Context, ownerID string) (*model.Tenant, error)
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	// InsertTenant returns the already existing tenant when the owner has one.
	InsertTenant(ctx context.Context, t model.Tenant) (*model.Tenant, error)
	LockTenant(ctx context.Context, id string) (*model.Tenant, error)

	InsertService(ctx context.Context, s model.Service) (*model.Service, error)
	ListServices(ctx context.Context, tenantID string, includeInactive bool) ([]model.Service, error)
	GetService(ctx context.Context, tenantID, id string) (*model.Service, error)
	SaveService(ctx context.Context, s model.Service) (*model.Service, error)

	InsertStaff(ctx context.Context, s model.Staff) (*model.Staff, error)
	ListStaff(ctx context.Context, tenantID string, includeInactive bool) ([]model.Staff, error)
	GetStaff(ctx context.Context, tenantID, id string) (*model.Staff, error)
	// LockStaff is the per-staff serialisation point for bookings.
	LockStaff(ctx context.Context, tenantID, id string) (*model.Staff, error)
	FirstStaff(ctx context.Context, tenantID string) (*model.Staff, error)
	SaveStaff(ctx context.Context, s model.Staff) (*model.Staff, error)

	DeleteAvailabilityRules(ctx context.Context, staffID string) error
	InsertAvailabilityRule(ctx context.Context, r model.AvailabilityRule) (*model.AvailabilityRule, error)
	// ListAvailabilityRules returns open rules ordered by day then start. day < 0 means all days.
	ListAvailabilityRules(ctx context.Context, staffID string, day int) ([]model.AvailabilityRule, error)

	// ListBusyAppointments returns non-cancelled appointments of staffID overlapping [from, to).
	ListBusyAppointments(ctx context.Context, staffID string, from, to time.Time) ([]model.Appointment, error)
	// LockOverlapping is ListBusyAppointments with write locks on the matched rows.
	LockOverlapping(ctx context.Context, staffID string, from, to time.Time) ([]model.Appointment, error)
	ConfirmationCodeExists(ctx context.Context, code string) (bool, error)
	// InsertAppointment fails with ErrConflict when the store itself detects an overlap.
	InsertAppointment(ctx context.Context, a model.Appointment) (*model.Appointment, error)
	// FindAppointment looks across all tenants when tenantID is empty.
	FindAppointment(ctx context.Context, tenantID string, l model.Lookup, forUpdate bool) (*model.Appointment, error)
	SaveAppointment(ctx context.Context, a model.Appointment) (*model.Appointment, error)
	ListAppointments(ctx context.Context, tenantID string, f model.AppointmentFilter) ([]model.Appointment, error)
}

// Store is a Repository that can also run a unit of work. Inside fn every call goes through the
// transaction; the work is committed when fn returns nil and rolled back otherwise.
type Store interface {
	Repository
	WithinTx(ctx context.Context, fn func(Repository) error) error
}

// AccountDirectory resolves the owning account of a tenant.
type AccountDirectory interface {
	GetOwnerByID(ctx context.Context, id string) (model.Owner, error)
}

// Notifier receives committed appointment changes. Implementations must not block the caller.
type Notifier interface {
	AppointmentConfirmed(ctx context.Context, a model.Appointment)
	AppointmentCancelled(ctx context.Context, a model.Appointment)
}

type nopNotifier struct{}

func (nopNotifier) AppointmentConfirmed(context.Context, model.Appointment) {}
func (nopNotifier) AppointmentCancelled(context.Context, model.Appointment) {}

// CodeSource produces candidate confirmation codes.
type CodeSource interface {
	Generate() (string, error)
}
