package storage

import (
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

type scanner interface {
	Scan(dest ...any) error
}

const tenantColumns = `id, owner_id, COALESCE(site_ref, ''), business_name, email, COALESCE(phone, ''),
	timezone, currency, status, created_at, updated_at`

func scanTenant(row scanner) (*model.Tenant, error) {
	var t model.Tenant
	var status string
	if err := row.Scan(&t.ID, &t.OwnerID, &t.SiteRef, &t.BusinessName, &t.Email, &t.Phone,
		&t.Timezone, &t.Currency, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = model.Status(status)
	return &t, nil
}

const serviceColumns = `id, tenant_id, name, description, category, duration_minutes, price_cents,
	online_booking_enabled, requires_approval, status, display_order, created_at, updated_at`

func scanService(row scanner) (*model.Service, error) {
	var s model.Service
	var status string
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Description, &s.Category, &s.DurationMinutes,
		&s.PriceCents, &s.OnlineBookingEnabled, &s.RequiresApproval, &status, &s.DisplayOrder,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = model.Status(status)
	return &s, nil
}

const staffColumns = `id, tenant_id, name, email, title, is_primary, buffer_time_after,
	min_advance_booking_hours, status, created_at, updated_at`

func scanStaff(row scanner) (*model.Staff, error) {
	var s model.Staff
	var status string
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Email, &s.Title, &s.IsPrimary, &s.BufferTimeAfter,
		&s.MinAdvanceBookingHours, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = model.Status(status)
	return &s, nil
}

const ruleColumns = `id, tenant_id, staff_id, day_of_week, start_minute, end_minute, is_available, created_at`

func scanRule(row scanner) (*model.AvailabilityRule, error) {
	var r model.AvailabilityRule
	var start, end int
	if err := row.Scan(&r.ID, &r.TenantID, &r.StaffID, &r.DayOfWeek, &start, &end, &r.IsAvailable, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.StartTime = model.ClockTime(start)
	r.EndTime = model.ClockTime(end)
	return &r, nil
}

const appointmentColumns = `id, tenant_id, service_id, staff_id, start_time, end_time, duration_minutes,
	timezone, customer_name, customer_email, customer_phone, customer_notes, confirmation_code,
	booking_source, status, total_price_cents, requires_approval, cancelled_at,
	COALESCE(cancellation_reason, ''), COALESCE(cancelled_by, ''), created_at, updated_at`

func scanAppointment(row scanner) (*model.Appointment, error) {
	var a model.Appointment
	var status, cancelledBy string
	var cancelledAt *time.Time
	if err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.ServiceID,
		&a.StaffID,
		&a.StartTime,
		&a.EndTime,
		&a.DurationMinutes,
		&a.Timezone,
		&a.CustomerName,
		&a.CustomerEmail,
		&a.CustomerPhone,
		&a.CustomerNotes,
		&a.ConfirmationCode,
		&a.BookingSource,
		&status,
		&a.TotalPriceCents,
		&a.RequiresApproval,
		&cancelledAt,
		&a.CancellationReason,
		&cancelledBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Status = model.AppointmentStatus(status)
	a.CancelledBy = model.CancelledBy(cancelledBy)
	a.CancelledAt = cancelledAt
	a.StartTime = a.StartTime.UTC()
	a.EndTime = a.EndTime.UTC()
	return &a, nil
}

// collect drains rows through scan. An empty result is a non-nil empty slice.
func collect[T any](rows pgx.Rows, scan func(scanner) (*T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
