package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/PersyLopez/sitesprintz-sub001/libs/kafkax"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/email"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *fakeSender) ProviderID() string { return "fake" }

func (s *fakeSender) Send(_ context.Context, msg email.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "<msg-1@test>", nil
}

func TestEmailDispatcherRecordsEveryAttempt(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sender := &fakeSender{}
	d := NewEmailDispatcher(sender, store, 0, testLogger())

	p := Payload{AppointmentID: "a-1", CustomerEmail: "ada@example.com", CustomerName: "Ada", BusinessName: "Cuts", ConfirmationCode: "ABCD2345"}
	res := d.SendConfirmationEmail(ctx, p)
	require.True(t, res.Success)
	require.Equal(t, "<msg-1@test>", res.ID)
	require.Len(t, sender.sent, 1)
	require.Contains(t, sender.sent[0].Subject, "ABCD2345")

	sender.err = errors.New("relay down")
	res = d.SendCancellationEmail(ctx, p)
	require.False(t, res.Success)
	require.Error(t, res.Err)

	history, err := store.ListNotifications(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "sent", history[0].Status)
	require.Equal(t, model.NotificationConfirmation, history[0].Kind)
	require.Equal(t, "failed", history[1].Status)
	require.Equal(t, "relay down", history[1].Error)
}

func TestConfirmationMessagePendingWording(t *testing.T) {
	msg := confirmationMessage(Payload{Status: model.AppointmentPending, BusinessName: "Cuts", ConfirmationCode: "X"})
	require.Contains(t, msg.Subject, "request")
	require.Contains(t, msg.Body, "will confirm")
}

type recordingDispatcher struct {
	mu       sync.Mutex
	payloads []Payload
	kinds    []model.NotificationKind
	result   Result
}

func (d *recordingDispatcher) record(kind model.NotificationKind, p Payload) Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kinds = append(d.kinds, kind)
	d.payloads = append(d.payloads, p)
	return d.result
}

func (d *recordingDispatcher) SendConfirmationEmail(_ context.Context, p Payload) Result {
	return d.record(model.NotificationConfirmation, p)
}

func (d *recordingDispatcher) SendCancellationEmail(_ context.Context, p Payload) Result {
	return d.record(model.NotificationCancellation, p)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func seedCatalog(t *testing.T, store *memory.Store) (model.Tenant, model.Service, model.Staff) {
	t.Helper()
	ctx := context.Background()
	tenant, err := store.InsertTenant(ctx, model.Tenant{OwnerID: "owner-1", BusinessName: "Cuts", Email: "cuts@example.com", Timezone: "UTC", Currency: "USD", Status: model.StatusActive})
	require.NoError(t, err)
	svc, err := store.InsertService(ctx, model.Service{TenantID: tenant.ID, Name: "Haircut", DurationMinutes: 45, PriceCents: 4500, Status: model.StatusActive})
	require.NoError(t, err)
	staff, err := store.InsertStaff(ctx, model.Staff{TenantID: tenant.ID, Name: "Sam", Status: model.StatusActive})
	require.NoError(t, err)
	return *tenant, *svc, *staff
}

func TestAsyncBuildsPayloadAndPublishes(t *testing.T) {
	store := memory.New()
	tenant, svc, staff := seedCatalog(t, store)
	d := &recordingDispatcher{result: Result{Success: true, ID: "x"}}
	w := &fakeWriter{}
	async := NewAsync(d, store, 2, testLogger(), WithPublisher(&KafkaPublisher{w: w}))

	appt := model.Appointment{
		ID:               "appt-1",
		TenantID:         tenant.ID,
		ServiceID:        svc.ID,
		StaffID:          staff.ID,
		StartTime:        time.Date(2026, 7, 1, 18, 30, 0, 0, time.UTC),
		Timezone:         "America/New_York",
		CustomerName:     "Ada",
		CustomerEmail:    "ada@example.com",
		ConfirmationCode: "ABCD2345",
		TotalPriceCents:  4500,
		Status:           model.AppointmentConfirmed,
	}
	ctx, cancel := context.WithCancel(context.Background())
	async.AppointmentConfirmed(ctx, appt)
	// The request finishing must not abort the send.
	cancel()
	require.NoError(t, async.Close(context.Background()))

	require.Len(t, d.payloads, 1)
	p := d.payloads[0]
	require.Equal(t, "Wednesday, July 1, 2026", p.Date)
	require.Equal(t, "2:30 PM", p.Time)
	require.Equal(t, "45.00 USD", p.Price)
	require.Equal(t, "Haircut", p.ServiceName)
	require.Equal(t, "Sam", p.StaffName)
	require.Equal(t, "Cuts", p.BusinessName)

	require.Len(t, w.msgs, 1)
	require.Equal(t, TopicAppointmentConfirmed, w.msgs[0].Topic)
	require.Equal(t, "appt-1", string(w.msgs[0].Key))
	require.Equal(t, TopicAppointmentConfirmed, kafkax.HeaderValue(w.msgs[0].Headers, "event_type"))
}

func TestAsyncSwallowsFailuresAndRejectsAfterClose(t *testing.T) {
	store := memory.New()
	tenant, svc, staff := seedCatalog(t, store)
	d := &recordingDispatcher{result: Result{Err: errors.New("smtp down")}}
	async := NewAsync(d, store, 1, testLogger())

	appt := model.Appointment{ID: "a", TenantID: tenant.ID, ServiceID: svc.ID, StaffID: staff.ID, Timezone: "UTC"}
	async.AppointmentCancelled(context.Background(), appt)
	require.NoError(t, async.Close(context.Background()))
	require.Equal(t, []model.NotificationKind{model.NotificationCancellation}, d.kinds)

	async.AppointmentConfirmed(context.Background(), appt)
	require.NoError(t, async.Close(context.Background()))
	require.Len(t, d.kinds, 1)
}

type hangingWriter struct{}

func (hangingWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

type deadlineDispatcher struct {
	mu      sync.Mutex
	ctxErrs []error
}

func (d *deadlineDispatcher) SendConfirmationEmail(ctx context.Context, _ Payload) Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctxErrs = append(d.ctxErrs, ctx.Err())
	return Result{Success: ctx.Err() == nil}
}

func (d *deadlineDispatcher) SendCancellationEmail(ctx context.Context, p Payload) Result {
	return d.SendConfirmationEmail(ctx, p)
}

func TestAsyncStalledBrokerDoesNotExpireEmail(t *testing.T) {
	store := memory.New()
	tenant, svc, staff := seedCatalog(t, store)
	d := &deadlineDispatcher{}
	async := NewAsync(d, store, 1, testLogger(),
		WithPublisher(&KafkaPublisher{w: hangingWriter{}}),
		WithSendTimeout(100*time.Millisecond),
	)

	appt := model.Appointment{ID: "a", TenantID: tenant.ID, ServiceID: svc.ID, StaffID: staff.ID, Timezone: "UTC"}
	async.AppointmentConfirmed(context.Background(), appt)
	require.NoError(t, async.Close(context.Background()))

	require.Len(t, d.ctxErrs, 1)
	require.NoError(t, d.ctxErrs[0])
}

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "", FormatPrice(0, "USD"))
	require.Equal(t, "0.99 EUR", FormatPrice(99, "EUR"))
	require.Equal(t, "1234.50 USD", FormatPrice(123450, "USD"))
}
