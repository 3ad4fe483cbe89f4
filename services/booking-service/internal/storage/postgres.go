package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/PersyLopez/sitesprintz-sub001/libs/db"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/booking"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

// querier is the part of pgxpool.Pool and pgx.Tx the queries need.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BookingStore is the Postgres booking.Store.
type BookingStore struct {
	*queries
	pool *db.Pool
}

func NewBookingStore(pool *db.Pool) *BookingStore {
	return &BookingStore{queries: &queries{q: pool}, pool: pool}
}

func (s *BookingStore) WithinTx(ctx context.Context, fn func(booking.Repository) error) error {
	return s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&queries{q: tx})
	})
}

var _ booking.Store = (*BookingStore)(nil)

type queries struct {
	q querier
}

func (r *queries) GetTenantByOwner(ctx context.Context, ownerID string) (*model.Tenant, error) {
	t, err := scanTenant(r.q.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM booking_tenants
		WHERE owner_id = $1
	`, ownerID))
	return t, translate(err)
}

func (r *queries) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	return r.tenantByID(ctx, id, false)
}

func (r *queries) LockTenant(ctx context.Context, id string) (*model.Tenant, error) {
	return r.tenantByID(ctx, id, true)
}

func (r *queries) tenantByID(ctx context.Context, id string, lock bool) (*model.Tenant, error) {
	if !validID(id) {
		return nil, booking.ErrNotFound
	}
	sql := `SELECT ` + tenantColumns + ` FROM booking_tenants WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	t, err := scanTenant(r.q.QueryRow(ctx, sql, id))
	return t, translate(err)
}

// InsertTenant relies on the unique owner_id: a concurrent insert for the same owner does nothing
// and the existing row is returned.
func (r *queries) InsertTenant(ctx context.Context, t model.Tenant) (*model.Tenant, error) {
	out, err := scanTenant(r.q.QueryRow(ctx, `
		INSERT INTO booking_tenants (owner_id, site_ref, business_name, email, phone, timezone, currency, status)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6, $7, $8)
		ON CONFLICT (owner_id) DO NOTHING
		RETURNING `+tenantColumns,
		t.OwnerID, t.SiteRef, t.BusinessName, t.Email, t.Phone, t.Timezone, t.Currency, string(t.Status)))
	if IsNotFound(err) {
		return r.GetTenantByOwner(ctx, t.OwnerID)
	}
	return out, translate(err)
}

func (r *queries) InsertService(ctx context.Context, s model.Service) (*model.Service, error) {
	out, err := scanService(r.q.QueryRow(ctx, `
		INSERT INTO booking_services
			(tenant_id, name, description, category, duration_minutes, price_cents,
			 online_booking_enabled, requires_approval, status, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+serviceColumns,
		s.TenantID, s.Name, s.Description, s.Category, s.DurationMinutes, s.PriceCents,
		s.OnlineBookingEnabled, s.RequiresApproval, string(s.Status), s.DisplayOrder))
	return out, translate(err)
}

func (r *queries) ListServices(ctx context.Context, tenantID string, includeInactive bool) ([]model.Service, error) {
	if !validID(tenantID) {
		return []model.Service{}, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM booking_services
		WHERE tenant_id = $1
			AND ($2 OR status = 'active')
		ORDER BY display_order ASC, created_at DESC
	`, tenantID, includeInactive)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanService)
}

func (r *queries) GetService(ctx context.Context, tenantID, id string) (*model.Service, error) {
	if !validID(id) || !validID(tenantID) {
		return nil, booking.ErrNotFound
	}
	s, err := scanService(r.q.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM booking_services
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID))
	return s, translate(err)
}

func (r *queries) SaveService(ctx context.Context, s model.Service) (*model.Service, error) {
	out, err := scanService(r.q.QueryRow(ctx, `
		UPDATE booking_services
		SET name = $3,
			description = $4,
			category = $5,
			duration_minutes = $6,
			price_cents = $7,
			online_booking_enabled = $8,
			requires_approval = $9,
			status = $10,
			display_order = $11,
			updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+serviceColumns,
		s.ID, s.TenantID, s.Name, s.Description, s.Category, s.DurationMinutes, s.PriceCents,
		s.OnlineBookingEnabled, s.RequiresApproval, string(s.Status), s.DisplayOrder))
	return out, translate(err)
}

func (r *queries) InsertStaff(ctx context.Context, s model.Staff) (*model.Staff, error) {
	out, err := scanStaff(r.q.QueryRow(ctx, `
		INSERT INTO booking_staff
			(tenant_id, name, email, title, is_primary, buffer_time_after, min_advance_booking_hours, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+staffColumns,
		s.TenantID, s.Name, s.Email, s.Title, s.IsPrimary, s.BufferTimeAfter, s.MinAdvanceBookingHours, string(s.Status)))
	return out, translate(err)
}

func (r *queries) ListStaff(ctx context.Context, tenantID string, includeInactive bool) ([]model.Staff, error) {
	if !validID(tenantID) {
		return []model.Staff{}, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+staffColumns+`
		FROM booking_staff
		WHERE tenant_id = $1
			AND ($2 OR status = 'active')
		ORDER BY created_at ASC, id ASC
	`, tenantID, includeInactive)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanStaff)
}

func (r *queries) GetStaff(ctx context.Context, tenantID, id string) (*model.Staff, error) {
	return r.staffByID(ctx, tenantID, id, false)
}

func (r *queries) LockStaff(ctx context.Context, tenantID, id string) (*model.Staff, error) {
	return r.staffByID(ctx, tenantID, id, true)
}

func (r *queries) staffByID(ctx context.Context, tenantID, id string, lock bool) (*model.Staff, error) {
	if !validID(id) || !validID(tenantID) {
		return nil, booking.ErrNotFound
	}
	sql := `SELECT ` + staffColumns + ` FROM booking_staff WHERE id = $1 AND tenant_id = $2`
	if lock {
		sql += ` FOR UPDATE`
	}
	s, err := scanStaff(r.q.QueryRow(ctx, sql, id, tenantID))
	return s, translate(err)
}

func (r *queries) FirstStaff(ctx context.Context, tenantID string) (*model.Staff, error) {
	if !validID(tenantID) {
		return nil, booking.ErrNotFound
	}
	s, err := scanStaff(r.q.QueryRow(ctx, `
		SELECT `+staffColumns+`
		FROM booking_staff
		WHERE tenant_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, tenantID))
	return s, translate(err)
}

func (r *queries) SaveStaff(ctx context.Context, s model.Staff) (*model.Staff, error) {
	out, err := scanStaff(r.q.QueryRow(ctx, `
		UPDATE booking_staff
		SET name = $3,
			email = $4,
			title = $5,
			buffer_time_after = $6,
			min_advance_booking_hours = $7,
			status = $8,
			updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+staffColumns,
		s.ID, s.TenantID, s.Name, s.Email, s.Title, s.BufferTimeAfter, s.MinAdvanceBookingHours, string(s.Status)))
	return out, translate(err)
}

func (r *queries) DeleteAvailabilityRules(ctx context.Context, staffID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM booking_availability_rules WHERE staff_id = $1`, staffID)
	return err
}

func (r *queries) InsertAvailabilityRule(ctx context.Context, rule model.AvailabilityRule) (*model.AvailabilityRule, error) {
	out, err := scanRule(r.q.QueryRow(ctx, `
		INSERT INTO booking_availability_rules (tenant_id, staff_id, day_of_week, start_minute, end_minute, is_available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+ruleColumns,
		rule.TenantID, rule.StaffID, rule.DayOfWeek, rule.StartTime.Minutes(), rule.EndTime.Minutes(), rule.IsAvailable))
	return out, translate(err)
}

func (r *queries) ListAvailabilityRules(ctx context.Context, staffID string, day int) ([]model.AvailabilityRule, error) {
	if !validID(staffID) {
		return []model.AvailabilityRule{}, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM booking_availability_rules
		WHERE staff_id = $1
			AND is_available
			AND ($2 < 0 OR day_of_week = $2)
		ORDER BY day_of_week ASC, start_minute ASC, created_at ASC
	`, staffID, day)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRule)
}

func (r *queries) ListBusyAppointments(ctx context.Context, staffID string, from, to time.Time) ([]model.Appointment, error) {
	return r.overlapping(ctx, staffID, from, to, false)
}

func (r *queries) LockOverlapping(ctx context.Context, staffID string, from, to time.Time) ([]model.Appointment, error) {
	return r.overlapping(ctx, staffID, from, to, true)
}

// overlapping uses the half-open predicate start < to AND end > from.
func (r *queries) overlapping(ctx context.Context, staffID string, from, to time.Time, lock bool) ([]model.Appointment, error) {
	sql := `
		SELECT ` + appointmentColumns + `
		FROM booking_appointments
		WHERE staff_id = $1
			AND status <> 'cancelled'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC`
	if lock {
		sql += ` FOR UPDATE`
	}
	rows, err := r.q.Query(ctx, sql, staffID, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAppointment)
}

func (r *queries) ConfirmationCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM booking_appointments WHERE confirmation_code = $1)
	`, code).Scan(&exists)
	return exists, err
}

func (r *queries) InsertAppointment(ctx context.Context, a model.Appointment) (*model.Appointment, error) {
	out, err := scanAppointment(r.q.QueryRow(ctx, `
		INSERT INTO booking_appointments
			(tenant_id, service_id, staff_id, start_time, end_time, duration_minutes, timezone,
			 customer_name, customer_email, customer_phone, customer_notes, confirmation_code,
			 booking_source, status, total_price_cents, requires_approval)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (confirmation_code) DO NOTHING
		RETURNING `+appointmentColumns,
		a.TenantID, a.ServiceID, a.StaffID, a.StartTime, a.EndTime, a.DurationMinutes, a.Timezone,
		a.CustomerName, a.CustomerEmail, a.CustomerPhone, a.CustomerNotes, a.ConfirmationCode,
		a.BookingSource, string(a.Status), a.TotalPriceCents, a.RequiresApproval))
	// DO NOTHING keeps the transaction usable so the ledger can retry with a fresh code.
	// Overlaps still fail through the exclusion constraint.
	if IsNotFound(err) {
		return nil, booking.ErrCodeTaken
	}
	return out, translate(err)
}

func (r *queries) FindAppointment(ctx context.Context, tenantID string, l model.Lookup, forUpdate bool) (*model.Appointment, error) {
	var (
		where []string
		args  []any
	)
	switch l.Kind {
	case model.ByID:
		if !validID(l.Value) {
			return nil, booking.ErrNotFound
		}
		args = append(args, l.Value)
		where = append(where, "id = $1")
	case model.ByCode:
		args = append(args, l.Value)
		where = append(where, "confirmation_code = $1")
	default:
		return nil, fmt.Errorf("unknown lookup kind %d", l.Kind)
	}
	if tenantID != "" {
		if !validID(tenantID) {
			return nil, booking.ErrNotFound
		}
		args = append(args, tenantID)
		where = append(where, "tenant_id = $2")
	}

	sql := `SELECT ` + appointmentColumns + ` FROM booking_appointments WHERE ` + strings.Join(where, " AND ")
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	a, err := scanAppointment(r.q.QueryRow(ctx, sql, args...))
	return a, translate(err)
}

func (r *queries) SaveAppointment(ctx context.Context, a model.Appointment) (*model.Appointment, error) {
	out, err := scanAppointment(r.q.QueryRow(ctx, `
		UPDATE booking_appointments
		SET status = $2,
			cancelled_at = $3,
			cancellation_reason = NULLIF($4, ''),
			cancelled_by = NULLIF($5, ''),
			updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		a.ID, string(a.Status), a.CancelledAt, a.CancellationReason, string(a.CancelledBy)))
	return out, translate(err)
}

func (r *queries) ListAppointments(ctx context.Context, tenantID string, f model.AppointmentFilter) ([]model.Appointment, error) {
	if !validID(tenantID) {
		return []model.Appointment{}, nil
	}
	where, args := appointmentFilterSQL(tenantID, f)
	rows, err := r.q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM booking_appointments
		WHERE `+where+`
		ORDER BY start_time DESC`, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAppointment)
}

// appointmentFilterSQL builds the WHERE clause for a listing; every optional filter adds one
// positional argument.
func appointmentFilterSQL(tenantID string, f model.AppointmentFilter) (string, []any) {
	clauses := []string{"tenant_id = $1"}
	args := []any{tenantID}
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.StartDate != nil {
		add("start_time >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("start_time <= $%d", *f.EndDate)
	}
	if f.StaffID != "" {
		if !validID(f.StaffID) {
			return "false", nil
		}
		add("staff_id = $%d", f.StaffID)
	}
	if f.ServiceID != "" {
		if !validID(f.ServiceID) {
			return "false", nil
		}
		add("service_id = $%d", f.ServiceID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.CustomerEmail != "" {
		add("lower(customer_email) = lower($%d)", f.CustomerEmail)
	}
	return strings.Join(clauses, " AND "), args
}
