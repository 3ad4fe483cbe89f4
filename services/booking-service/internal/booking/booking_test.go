package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/booking"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/storage/memory"
)

// 2026-03-02 is a Monday; 2026-03-04 a Wednesday; 2026-03-08 a Sunday.
var fixedNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func clockAt(t time.Time) booking.Clock {
	return func() time.Time { return t }
}

type fixture struct {
	store    *memory.Store
	dir      *booking.Directory
	catalog  *booking.Catalog
	staff    *booking.StaffDirectory
	engine   *booking.Engine
	ledger   *booking.Ledger
	notifier *countingNotifier
	tenant   *model.Tenant
}

type countingNotifier struct {
	mu        sync.Mutex
	confirmed []model.Appointment
	cancelled []model.Appointment
}

func (n *countingNotifier) AppointmentConfirmed(_ context.Context, a model.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, a)
}

func (n *countingNotifier) AppointmentCancelled(_ context.Context, a model.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, a)
}

func newFixture(t *testing.T, opts ...booking.LedgerOption) *fixture {
	t.Helper()
	store := memory.New()
	store.AddOwner("owner-1", "owner@example.com")
	store.AddOwner("owner-2", "other@example.com")

	f := &fixture{store: store, notifier: &countingNotifier{}}
	f.dir = booking.NewDirectory(store, store)
	f.catalog = booking.NewCatalog(store)
	f.staff = booking.NewStaffDirectory(store)
	f.engine = booking.NewEngine(store, clockAt(fixedNow))
	f.ledger = booking.NewLedger(store, append([]booking.LedgerOption{
		booking.WithNotifier(f.notifier),
		booking.WithClock(clockAt(fixedNow)),
	}, opts...)...)

	tenant, err := f.dir.GetOrCreateTenant(context.Background(), "owner-1", "site-1")
	require.NoError(t, err)
	f.tenant = tenant
	return f
}

func intPtr(v int) *int { return &v }

func (f *fixture) service(t *testing.T, duration int, requiresApproval bool) *model.Service {
	t.Helper()
	svc, err := f.catalog.CreateService(context.Background(), f.tenant.ID, model.ServiceInput{
		Name:             "Consultation",
		DurationMinutes:  intPtr(duration),
		PriceCents:       5000,
		RequiresApproval: requiresApproval,
	})
	require.NoError(t, err)
	return svc
}

// staffWithHours returns the default staff member open on Wednesdays for each window.
func (f *fixture) staffWithHours(t *testing.T, buffer, leadHours int, windows ...[2]string) *model.Staff {
	t.Helper()
	ctx := context.Background()
	st, err := f.staff.GetOrCreateDefaultStaff(ctx, f.tenant.ID)
	require.NoError(t, err)
	st, err = f.staff.UpdateStaff(ctx, st.ID, f.tenant.ID, model.StaffPatch{
		BufferTimeAfter:        intPtr(buffer),
		MinAdvanceBookingHours: intPtr(leadHours),
	})
	require.NoError(t, err)

	var rules []model.RuleInput
	for _, w := range windows {
		rules = append(rules, model.RuleInput{DayOfWeek: 3, StartTime: w[0], EndTime: w[1]})
	}
	_, err = f.staff.SetAvailabilityRules(ctx, st.ID, f.tenant.ID, rules)
	require.NoError(t, err)
	return st
}

func (f *fixture) book(ctx context.Context, svc *model.Service, st *model.Staff, start string) (*model.Appointment, error) {
	return f.ledger.CreateAppointment(ctx, f.tenant.ID, model.AppointmentInput{
		ServiceID:     svc.ID,
		StaffID:       st.ID,
		StartTime:     start,
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
	})
}

func TestGetOrCreateTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.Equal(t, "My Business", f.tenant.BusinessName)
	require.Equal(t, "owner@example.com", f.tenant.Email)
	require.Equal(t, "UTC", f.tenant.Timezone)
	require.Equal(t, "USD", f.tenant.Currency)
	require.Equal(t, model.StatusActive, f.tenant.Status)

	again, err := f.dir.GetOrCreateTenant(ctx, "owner-1", "site-1")
	require.NoError(t, err)
	require.Equal(t, f.tenant.ID, again.ID)

	_, err = f.dir.GetOrCreateTenant(ctx, "ghost", "")
	require.ErrorIs(t, err, booking.ErrNotFound)
}

func TestGetOrCreateTenantConcurrent(t *testing.T) {
	f := newFixture(t)
	ids := make([]string, 8)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tenant, err := f.dir.GetOrCreateTenant(context.Background(), "owner-2", "")
			require.NoError(t, err)
			ids[i] = tenant.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
}

func TestCreateServiceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]model.ServiceInput{
		"missing name":     {DurationMinutes: intPtr(30)},
		"missing duration": {Name: "Cut"},
		"zero duration":    {Name: "Cut", DurationMinutes: intPtr(0)},
		"too long":         {Name: "Cut", DurationMinutes: intPtr(481)},
	}
	for name, in := range cases {
		_, err := f.catalog.CreateService(ctx, f.tenant.ID, in)
		require.ErrorIs(t, err, booking.ErrValidation, name)
	}

	svc, err := f.catalog.CreateService(ctx, f.tenant.ID, model.ServiceInput{Name: "Cut", DurationMinutes: intPtr(480)})
	require.NoError(t, err)
	require.Equal(t, "general", svc.Category)
	require.Equal(t, "", svc.Description)
	require.EqualValues(t, 0, svc.PriceCents)
	require.True(t, svc.OnlineBookingEnabled)
	require.False(t, svc.RequiresApproval)
	require.Equal(t, model.StatusActive, svc.Status)
}

func TestServiceListingAndSoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.catalog.CreateService(ctx, f.tenant.ID, model.ServiceInput{Name: "A", DurationMinutes: intPtr(30), DisplayOrder: 1})
	require.NoError(t, err)
	second, err := f.catalog.CreateService(ctx, f.tenant.ID, model.ServiceInput{Name: "B", DurationMinutes: intPtr(30), DisplayOrder: 1})
	require.NoError(t, err)
	top, err := f.catalog.CreateService(ctx, f.tenant.ID, model.ServiceInput{Name: "C", DurationMinutes: intPtr(30), DisplayOrder: 0})
	require.NoError(t, err)

	list, err := f.catalog.ListServices(ctx, f.tenant.ID, false)
	require.NoError(t, err)
	require.Equal(t, []string{top.ID, second.ID, first.ID}, serviceIDs(list))

	deleted, err := f.catalog.DeleteService(ctx, second.ID, f.tenant.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	list, err = f.catalog.ListServices(ctx, f.tenant.ID, false)
	require.NoError(t, err)
	require.Equal(t, []string{top.ID, first.ID}, serviceIDs(list))

	list, err = f.catalog.ListServices(ctx, f.tenant.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 3)

	deleted, err = f.catalog.DeleteService(ctx, "missing", f.tenant.ID)
	require.NoError(t, err)
	require.False(t, deleted)
}

func serviceIDs(list []model.Service) []string {
	ids := make([]string, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestServiceTenantIsolationAndPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.service(t, 60, false)

	other, err := f.dir.GetOrCreateTenant(ctx, "owner-2", "")
	require.NoError(t, err)

	got, err := f.catalog.GetService(ctx, svc.ID, other.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	name := "Hijack"
	updated, err := f.catalog.UpdateService(ctx, svc.ID, other.ID, model.ServicePatch{Name: &name})
	require.NoError(t, err)
	require.Nil(t, updated)

	_, err = f.catalog.UpdateService(ctx, svc.ID, f.tenant.ID, model.ServicePatch{})
	require.ErrorIs(t, err, booking.ErrValidation)

	_, err = f.catalog.UpdateService(ctx, svc.ID, f.tenant.ID, model.ServicePatch{DurationMinutes: intPtr(500)})
	require.ErrorIs(t, err, booking.ErrValidation)

	bogus := model.Status("archived")
	_, err = f.catalog.UpdateService(ctx, svc.ID, f.tenant.ID, model.ServicePatch{Status: &bogus})
	require.ErrorIs(t, err, booking.ErrValidation)

	updated, err = f.catalog.UpdateService(ctx, svc.ID, f.tenant.ID, model.ServicePatch{DurationMinutes: intPtr(90)})
	require.NoError(t, err)
	require.Equal(t, 90, updated.DurationMinutes)
	require.Equal(t, svc.Name, updated.Name)
}

func TestDefaultStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 6)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := f.staff.GetOrCreateDefaultStaff(ctx, f.tenant.ID)
			require.NoError(t, err)
			ids[i] = st.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}

	all, err := f.staff.ListStaff(ctx, f.tenant.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, all[0].IsPrimary)
	require.Equal(t, f.tenant.BusinessName, all[0].Name)
	require.Equal(t, f.tenant.Email, all[0].Email)
	require.Zero(t, all[0].BufferTimeAfter)
	require.Zero(t, all[0].MinAdvanceBookingHours)

	_, err = f.staff.GetOrCreateDefaultStaff(ctx, "no-such-tenant")
	require.ErrorIs(t, err, booking.ErrNotFound)
}

func TestAvailabilityRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, err := f.staff.GetOrCreateDefaultStaff(ctx, f.tenant.ID)
	require.NoError(t, err)

	closed := false
	_, err = f.staff.SetAvailabilityRules(ctx, st.ID, f.tenant.ID, []model.RuleInput{
		{DayOfWeek: 2, StartTime: "13:00", EndTime: "17:00"},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: 2, StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: 5, StartTime: "09:00", EndTime: "12:00", IsAvailable: &closed},
	})
	require.NoError(t, err)

	rules, err := f.staff.GetAvailabilityRules(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	require.Equal(t, 1, rules[0].DayOfWeek)
	require.Equal(t, "09:00", rules[1].StartTime.String())
	require.Equal(t, "13:00", rules[2].StartTime.String())

	for _, bad := range [][]model.RuleInput{
		{{DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00"}},
		{{DayOfWeek: 1, StartTime: "9am", EndTime: "10:00"}},
		{{DayOfWeek: 1, StartTime: "10:00", EndTime: "10:00"}},
	} {
		_, err := f.staff.SetAvailabilityRules(ctx, st.ID, f.tenant.ID, bad)
		require.ErrorIs(t, err, booking.ErrValidation)
	}

	// Replacement is total: the old schedule is gone.
	_, err = f.staff.SetAvailabilityRules(ctx, st.ID, f.tenant.ID, []model.RuleInput{
		{DayOfWeek: 4, StartTime: "10:00", EndTime: "11:00"},
	})
	require.NoError(t, err)
	rules, err = f.staff.GetAvailabilityRules(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, 4, rules[0].DayOfWeek)

	_, err = f.staff.SetAvailabilityRules(ctx, "missing", f.tenant.ID, nil)
	require.ErrorIs(t, err, booking.ErrNotFound)
}

// flakyStore fails the nth rule insert inside a transaction.
type flakyStore struct {
	*memory.Store
	failOn int
}

func (s *flakyStore) WithinTx(ctx context.Context, fn func(booking.Repository) error) error {
	return s.Store.WithinTx(ctx, func(r booking.Repository) error {
		return fn(&flakyRepo{Repository: r, failOn: s.failOn})
	})
}

type flakyRepo struct {
	booking.Repository
	failOn int
	calls  int
}

func (r *flakyRepo) InsertAvailabilityRule(ctx context.Context, rule model.AvailabilityRule) (*model.AvailabilityRule, error) {
	r.calls++
	if r.calls == r.failOn {
		return nil, errors.New("connection reset")
	}
	return r.Repository.InsertAvailabilityRule(ctx, rule)
}

func TestSetAvailabilityRulesIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.staffWithHours(t, 0, 0, [2]string{"09:00", "12:00"}, [2]string{"13:00", "17:00"})

	flaky := booking.NewStaffDirectory(&flakyStore{Store: f.store, failOn: 2})
	_, err := flaky.SetAvailabilityRules(ctx, st.ID, f.tenant.ID, []model.RuleInput{
		{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"},
		{DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00"},
		{DayOfWeek: 1, StartTime: "12:00", EndTime: "13:00"},
	})
	require.Error(t, err)

	rules, err := f.staff.GetAvailabilityRules(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Equal(t, 3, rules[0].DayOfWeek)
	require.Equal(t, "09:00", rules[0].StartTime.String())
	require.Equal(t, "13:00", rules[1].StartTime.String())
}
