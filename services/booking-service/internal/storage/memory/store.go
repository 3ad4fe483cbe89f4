// Package memory is an in-process booking store. Transactions are serialised behind one mutex
// and work on a copy of the data that replaces the original only on commit, which gives the same
// all-or-nothing and locking-read guarantees as the Postgres store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/availability"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/booking"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

type dataset struct {
	owners        map[string]model.Owner
	tenants       map[string]model.Tenant
	services      map[string]model.Service
	staff         map[string]model.Staff
	rules         map[string][]model.AvailabilityRule
	appointments  map[string]model.Appointment
	notifications []model.NotificationRecord
}

func newDataset() *dataset {
	return &dataset{
		owners:       map[string]model.Owner{},
		tenants:      map[string]model.Tenant{},
		services:     map[string]model.Service{},
		staff:        map[string]model.Staff{},
		rules:        map[string][]model.AvailabilityRule{},
		appointments: map[string]model.Appointment{},
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.owners {
		c.owners[k] = v
	}
	for k, v := range d.tenants {
		c.tenants[k] = v
	}
	for k, v := range d.services {
		c.services[k] = v
	}
	for k, v := range d.staff {
		c.staff[k] = v
	}
	for k, v := range d.rules {
		c.rules[k] = append([]model.AvailabilityRule(nil), v...)
	}
	for k, v := range d.appointments {
		c.appointments[k] = v
	}
	c.notifications = append([]model.NotificationRecord(nil), d.notifications...)
	return c
}

type Store struct {
	*repo

	mu   sync.Mutex
	data *dataset
	last time.Time
	now  func() time.Time
}

func New() *Store {
	s := &Store{data: newDataset(), now: time.Now}
	s.repo = &repo{
		data:  func() *dataset { return s.data },
		lock:  func() func() { s.mu.Lock(); return s.mu.Unlock },
		clock: s.tick,
	}
	return s
}

// tick returns a strictly increasing timestamp so creation order is total. Callers hold mu.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) WithinTx(ctx context.Context, fn func(booking.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.data.clone()
	tx := &repo{
		data:  func() *dataset { return work },
		lock:  func() func() { return func() {} },
		clock: s.tick,
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = work
	return nil
}

// AddOwner registers an owning account for the account directory.
func (s *Store) AddOwner(id, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.owners[id] = model.Owner{ID: id, Email: email}
}

func (s *Store) GetOwnerByID(_ context.Context, id string) (model.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.data.owners[id]
	if !ok {
		return model.Owner{}, booking.ErrNotFound
	}
	return o, nil
}

func (s *Store) RecordNotification(_ context.Context, rec model.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.tick()
	}
	s.data.notifications = append(s.data.notifications, rec)
	return nil
}

func (s *Store) ListNotifications(_ context.Context, appointmentID string) ([]model.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.NotificationRecord
	for _, n := range s.data.notifications {
		if n.AppointmentID == appointmentID {
			out = append(out, n)
		}
	}
	return out, nil
}

// repo implements booking.Repository over one dataset. The top-level repo takes the store mutex
// per call; the transactional one runs with the mutex already held.
type repo struct {
	data  func() *dataset
	lock  func() func()
	clock func() time.Time
}

var _ booking.Store = (*Store)(nil)

func (r *repo) GetTenantByOwner(_ context.Context, ownerID string) (*model.Tenant, error) {
	defer r.lock()()
	for _, t := range r.data().tenants {
		if t.OwnerID == ownerID {
			return &t, nil
		}
	}
	return nil, booking.ErrNotFound
}

func (r *repo) GetTenant(_ context.Context, id string) (*model.Tenant, error) {
	defer r.lock()()
	t, ok := r.data().tenants[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &t, nil
}

func (r *repo) InsertTenant(_ context.Context, t model.Tenant) (*model.Tenant, error) {
	defer r.lock()()
	d := r.data()
	for _, existing := range d.tenants {
		if existing.OwnerID == t.OwnerID {
			return &existing, nil
		}
	}
	now := r.clock()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now
	d.tenants[t.ID] = t
	return &t, nil
}

func (r *repo) LockTenant(ctx context.Context, id string) (*model.Tenant, error) {
	return r.GetTenant(ctx, id)
}

func (r *repo) InsertService(_ context.Context, s model.Service) (*model.Service, error) {
	defer r.lock()()
	d := r.data()
	if _, ok := d.tenants[s.TenantID]; !ok {
		return nil, fmt.Errorf("tenant %s: %w", s.TenantID, booking.ErrNotFound)
	}
	now := r.clock()
	s.ID = uuid.NewString()
	s.CreatedAt, s.UpdatedAt = now, now
	d.services[s.ID] = s
	return &s, nil
}

func (r *repo) ListServices(_ context.Context, tenantID string, includeInactive bool) ([]model.Service, error) {
	defer r.lock()()
	out := []model.Service{}
	for _, s := range r.data().services {
		if s.TenantID != tenantID {
			continue
		}
		if !includeInactive && s.Status != model.StatusActive {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *repo) GetService(_ context.Context, tenantID, id string) (*model.Service, error) {
	defer r.lock()()
	s, ok := r.data().services[id]
	if !ok || s.TenantID != tenantID {
		return nil, booking.ErrNotFound
	}
	return &s, nil
}

func (r *repo) SaveService(_ context.Context, s model.Service) (*model.Service, error) {
	defer r.lock()()
	d := r.data()
	cur, ok := d.services[s.ID]
	if !ok || cur.TenantID != s.TenantID {
		return nil, booking.ErrNotFound
	}
	s.CreatedAt = cur.CreatedAt
	s.UpdatedAt = r.clock()
	d.services[s.ID] = s
	return &s, nil
}

func (r *repo) InsertStaff(_ context.Context, s model.Staff) (*model.Staff, error) {
	defer r.lock()()
	d := r.data()
	if _, ok := d.tenants[s.TenantID]; !ok {
		return nil, fmt.Errorf("tenant %s: %w", s.TenantID, booking.ErrNotFound)
	}
	now := r.clock()
	s.ID = uuid.NewString()
	s.CreatedAt, s.UpdatedAt = now, now
	d.staff[s.ID] = s
	return &s, nil
}

func (r *repo) ListStaff(_ context.Context, tenantID string, includeInactive bool) ([]model.Staff, error) {
	defer r.lock()()
	return r.staffOf(tenantID, includeInactive), nil
}

func (r *repo) staffOf(tenantID string, includeInactive bool) []model.Staff {
	out := []model.Staff{}
	for _, s := range r.data().staff {
		if s.TenantID != tenantID {
			continue
		}
		if !includeInactive && s.Status != model.StatusActive {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *repo) GetStaff(_ context.Context, tenantID, id string) (*model.Staff, error) {
	defer r.lock()()
	s, ok := r.data().staff[id]
	if !ok || s.TenantID != tenantID {
		return nil, booking.ErrNotFound
	}
	return &s, nil
}

func (r *repo) LockStaff(ctx context.Context, tenantID, id string) (*model.Staff, error) {
	return r.GetStaff(ctx, tenantID, id)
}

func (r *repo) FirstStaff(_ context.Context, tenantID string) (*model.Staff, error) {
	defer r.lock()()
	all := r.staffOf(tenantID, true)
	if len(all) == 0 {
		return nil, booking.ErrNotFound
	}
	return &all[0], nil
}

func (r *repo) SaveStaff(_ context.Context, s model.Staff) (*model.Staff, error) {
	defer r.lock()()
	d := r.data()
	cur, ok := d.staff[s.ID]
	if !ok || cur.TenantID != s.TenantID {
		return nil, booking.ErrNotFound
	}
	s.CreatedAt = cur.CreatedAt
	s.UpdatedAt = r.clock()
	d.staff[s.ID] = s
	return &s, nil
}

func (r *repo) DeleteAvailabilityRules(_ context.Context, staffID string) error {
	defer r.lock()()
	delete(r.data().rules, staffID)
	return nil
}

func (r *repo) InsertAvailabilityRule(_ context.Context, rule model.AvailabilityRule) (*model.AvailabilityRule, error) {
	defer r.lock()()
	d := r.data()
	rule.ID = uuid.NewString()
	rule.CreatedAt = r.clock()
	d.rules[rule.StaffID] = append(d.rules[rule.StaffID], rule)
	return &rule, nil
}

func (r *repo) ListAvailabilityRules(_ context.Context, staffID string, day int) ([]model.AvailabilityRule, error) {
	defer r.lock()()
	out := []model.AvailabilityRule{}
	for _, rule := range r.data().rules[staffID] {
		if !rule.IsAvailable || (day >= 0 && rule.DayOfWeek != day) {
			continue
		}
		out = append(out, rule)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *repo) ListBusyAppointments(_ context.Context, staffID string, from, to time.Time) ([]model.Appointment, error) {
	defer r.lock()()
	return r.overlapping(staffID, from, to), nil
}

func (r *repo) LockOverlapping(ctx context.Context, staffID string, from, to time.Time) ([]model.Appointment, error) {
	return r.ListBusyAppointments(ctx, staffID, from, to)
}

func (r *repo) overlapping(staffID string, from, to time.Time) []model.Appointment {
	window := availability.Interval{Start: from, End: to}
	var out []model.Appointment
	for _, a := range r.data().appointments {
		if a.StaffID != staffID || a.Status == model.AppointmentCancelled {
			continue
		}
		if window.Overlaps(availability.Interval{Start: a.StartTime, End: a.EndTime}) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *repo) ConfirmationCodeExists(_ context.Context, code string) (bool, error) {
	defer r.lock()()
	for _, a := range r.data().appointments {
		if a.ConfirmationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *repo) InsertAppointment(_ context.Context, a model.Appointment) (*model.Appointment, error) {
	defer r.lock()()
	d := r.data()
	if a.Status != model.AppointmentCancelled && len(r.overlapping(a.StaffID, a.StartTime, a.EndTime)) > 0 {
		return nil, booking.ErrConflict
	}
	for _, existing := range d.appointments {
		if existing.ConfirmationCode == a.ConfirmationCode {
			return nil, booking.ErrCodeTaken
		}
	}
	now := r.clock()
	a.ID = uuid.NewString()
	a.CreatedAt, a.UpdatedAt = now, now
	d.appointments[a.ID] = a
	return &a, nil
}

func (r *repo) FindAppointment(_ context.Context, tenantID string, l model.Lookup, _ bool) (*model.Appointment, error) {
	defer r.lock()()
	for _, a := range r.data().appointments {
		if tenantID != "" && a.TenantID != tenantID {
			continue
		}
		switch l.Kind {
		case model.ByID:
			if a.ID == l.Value {
				return &a, nil
			}
		case model.ByCode:
			if a.ConfirmationCode == l.Value {
				return &a, nil
			}
		}
	}
	return nil, booking.ErrNotFound
}

func (r *repo) SaveAppointment(_ context.Context, a model.Appointment) (*model.Appointment, error) {
	defer r.lock()()
	d := r.data()
	cur, ok := d.appointments[a.ID]
	if !ok {
		return nil, booking.ErrNotFound
	}
	a.CreatedAt = cur.CreatedAt
	a.UpdatedAt = r.clock()
	d.appointments[a.ID] = a
	return &a, nil
}

func (r *repo) ListAppointments(_ context.Context, tenantID string, f model.AppointmentFilter) ([]model.Appointment, error) {
	defer r.lock()()
	out := []model.Appointment{}
	for _, a := range r.data().appointments {
		if a.TenantID != tenantID {
			continue
		}
		if f.StartDate != nil && a.StartTime.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && a.StartTime.After(*f.EndDate) {
			continue
		}
		if f.StaffID != "" && a.StaffID != f.StaffID {
			continue
		}
		if f.ServiceID != "" && a.ServiceID != f.ServiceID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.CustomerEmail != "" && !strings.EqualFold(a.CustomerEmail, f.CustomerEmail) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}
