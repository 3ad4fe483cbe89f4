package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	otelx "github.com/PersyLopez/sitesprintz-sub001/libs/otel"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/confirmation"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/metrics"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	maxCodeAttempts      = 10
	defaultBookingSource = "online"
)

// Ledger owns appointment creation, lookup and cancellation.
type Ledger struct {
	store    Store
	codes    CodeSource
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

type LedgerOption func(*Ledger)

func WithNotifier(n Notifier) LedgerOption {
	return func(l *Ledger) {
		if n != nil {
			l.notifier = n
		}
	}
}

func WithCodeSource(c CodeSource) LedgerOption {
	return func(l *Ledger) {
		if c != nil {
			l.codes = c
		}
	}
}

func WithLogger(logger *slog.Logger) LedgerOption {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithClock(c Clock) LedgerOption {
	return func(l *Ledger) {
		if c != nil {
			l.now = c
		}
	}
}

func NewLedger(store Store, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:    store,
		codes:    confirmation.NewGenerator(nil),
		notifier: nopNotifier{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateAppointment reserves [start, start+duration) for the staff member. The overlap check and
// the insert share one transaction behind a lock on the staff row, so of two overlapping
// concurrent requests exactly one commits and the other gets ErrConflict.
func (l *Ledger) CreateAppointment(ctx context.Context, tenantID string, in model.AppointmentInput) (*model.Appointment, error) {
	ctx, span := otelx.Tracer("booking").Start(ctx, "booking.CreateAppointment")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID), attribute.String("staff.id", in.StaffID))

	if err := validateAppointmentInput(in); err != nil {
		return nil, err
	}
	loc, err := loadLocation("timezone", in.Timezone)
	if err != nil {
		return nil, err
	}
	start, err := parseStartTime(in.StartTime, loc)
	if err != nil {
		return nil, err
	}
	source := strings.TrimSpace(in.BookingSource)
	if source == "" {
		source = defaultBookingSource
	}

	var created *model.Appointment
	err = l.store.WithinTx(ctx, func(r Repository) error {
		svc, err := r.GetService(ctx, tenantID, in.ServiceID)
		if err != nil {
			return notFoundOr(err, "service", "get service")
		}
		staff, err := r.LockStaff(ctx, tenantID, in.StaffID)
		if err != nil {
			return notFoundOr(err, "staff", "lock staff")
		}

		end := start.Add(time.Duration(svc.DurationMinutes) * time.Minute)
		clashes, err := r.LockOverlapping(ctx, staff.ID, start, end)
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if len(clashes) > 0 {
			return ErrConflict
		}

		status := model.AppointmentConfirmed
		if svc.RequiresApproval {
			status = model.AppointmentPending
		}
		created, err = l.insertWithCode(ctx, r, model.Appointment{
			TenantID:         tenantID,
			ServiceID:        svc.ID,
			StaffID:          staff.ID,
			StartTime:        start,
			EndTime:          end,
			DurationMinutes:  svc.DurationMinutes,
			Timezone:         loc.String(),
			CustomerName:     strings.TrimSpace(in.CustomerName),
			CustomerEmail:    strings.TrimSpace(in.CustomerEmail),
			CustomerPhone:    strings.TrimSpace(in.CustomerPhone),
			CustomerNotes:    in.CustomerNotes,
			BookingSource:    source,
			Status:           status,
			TotalPriceCents:  svc.PriceCents,
			RequiresApproval: svc.RequiresApproval,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.IncBookingConflict()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.IncAppointmentCreated(string(created.Status))
	l.logger.InfoContext(ctx, "appointment created",
		"tenant_id", tenantID,
		"appointment_id", created.ID,
		"staff_id", created.StaffID,
		"status", created.Status,
	)
	l.notifier.AppointmentConfirmed(ctx, *created)
	return created, nil
}

// insertWithCode draws codes until one is free and the insert accepts it. A code that passes the
// existence check can still be claimed by a concurrent booking; the store reports that as
// ErrCodeTaken and it counts as one more attempt.
func (l *Ledger) insertWithCode(ctx context.Context, r Repository, a model.Appointment) (*model.Appointment, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := l.codes.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate confirmation code: %w", err)
		}
		taken, err := r.ConfirmationCodeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("check confirmation code: %w", err)
		}
		if taken {
			continue
		}
		a.ConfirmationCode = code
		created, err := r.InsertAppointment(ctx, a)
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		return created, err
	}
	return nil, ErrCodeExhausted
}

// ListAppointments returns the tenant's appointments, newest start first.
func (l *Ledger) ListAppointments(ctx context.Context, tenantID string, f model.AppointmentFilter) ([]model.Appointment, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("status", "must be pending, confirmed or cancelled")
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, invalid("end_date", "must not be before start_date")
	}
	out, err := l.store.ListAppointments(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

// GetAppointment returns nil, nil when nothing in the tenant matches.
func (l *Ledger) GetAppointment(ctx context.Context, tenantID string, lookup model.Lookup) (*model.Appointment, error) {
	if tenantID == "" {
		return nil, invalid("tenant_id", "is required")
	}
	return l.find(ctx, tenantID, lookup)
}

// GetAppointmentByCode searches every tenant. It backs self-service flows where the caller only
// holds the code.
func (l *Ledger) GetAppointmentByCode(ctx context.Context, code string) (*model.Appointment, error) {
	return l.find(ctx, "", model.LookupByCode(code))
}

// ResolveReference is GetAppointmentByCode for references that may also be appointment ids.
func (l *Ledger) ResolveReference(ctx context.Context, ref string) (*model.Appointment, error) {
	return l.find(ctx, "", model.ParseReference(ref))
}

func (l *Ledger) find(ctx context.Context, tenantID string, lookup model.Lookup) (*model.Appointment, error) {
	if !wellFormed(lookup) {
		return nil, nil
	}
	a, err := l.store.FindAppointment(ctx, tenantID, lookup, false)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return a, nil
}

// CancelAppointment cancels a live appointment. Missing and already cancelled appointments
// yield nil, nil and trigger no notification. An empty tenantID cancels across tenants and is
// reserved for the public cancellation link.
func (l *Ledger) CancelAppointment(ctx context.Context, tenantID string, lookup model.Lookup, in model.CancelInput) (*model.Appointment, error) {
	by := in.CancelledBy
	if by == "" {
		by = model.CancelledByCustomer
	}
	if !by.Valid() {
		return nil, invalid("cancelled_by", "must be customer, staff or admin")
	}
	if !wellFormed(lookup) {
		return nil, nil
	}

	var cancelled *model.Appointment
	err := l.store.WithinTx(ctx, func(r Repository) error {
		a, err := r.FindAppointment(ctx, tenantID, lookup, true)
		if err != nil {
			return err
		}
		if a.Status == model.AppointmentCancelled {
			return nil
		}
		at := l.now().UTC()
		a.Status = model.AppointmentCancelled
		a.CancelledAt = &at
		a.CancellationReason = strings.TrimSpace(in.Reason)
		a.CancelledBy = by
		cancelled, err = r.SaveAppointment(ctx, *a)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	if cancelled == nil {
		return nil, nil
	}

	metrics.IncAppointmentCancelled(string(by))
	l.logger.InfoContext(ctx, "appointment cancelled",
		"tenant_id", cancelled.TenantID,
		"appointment_id", cancelled.ID,
		"cancelled_by", by,
	)
	l.notifier.AppointmentCancelled(ctx, *cancelled)
	return cancelled, nil
}

// wellFormed rejects lookups that cannot match any row, such as codes outside the generator's
// alphabet, without a store round trip.
func wellFormed(lookup model.Lookup) bool {
	if lookup.Kind == model.ByCode {
		return confirmation.Valid(lookup.Value)
	}
	return strings.TrimSpace(lookup.Value) != ""
}

func validateAppointmentInput(in model.AppointmentInput) error {
	required := []struct{ field, value string }{
		{"service_id", in.ServiceID},
		{"staff_id", in.StaffID},
		{"start_time", in.StartTime},
		{"customer_name", in.CustomerName},
		{"customer_email", in.CustomerEmail},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalid(r.field, "is required")
		}
	}
	// Only a bare address is stored; it goes straight into the SMTP envelope.
	email := strings.TrimSpace(in.CustomerEmail)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return invalid("customer_email", "is not a valid email address")
	}
	return nil
}
