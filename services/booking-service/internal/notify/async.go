package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/booking"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

// Catalog resolves the display names a message needs.
type Catalog interface {
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	GetService(ctx context.Context, tenantID, id string) (*model.Service, error)
	GetStaff(ctx context.Context, tenantID, id string) (*model.Staff, error)
}

// Async hands committed appointment changes to a background worker. The booking call returns
// immediately; send failures end up in the log and the notification history only.
type Async struct {
	dispatcher Dispatcher
	catalog    Catalog
	publisher  EventPublisher
	logger     *slog.Logger
	sem        *semaphore.Weighted
	timeout    time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type AsyncOption func(*Async)

func WithPublisher(p EventPublisher) AsyncOption {
	return func(a *Async) { a.publisher = p }
}

func WithSendTimeout(d time.Duration) AsyncOption {
	return func(a *Async) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAsync runs at most maxInFlight sends at once.
func NewAsync(d Dispatcher, c Catalog, maxInFlight int, logger *slog.Logger, opts ...AsyncOption) *Async {
	if maxInFlight <= 0 {
		maxInFlight = 8
	}
	a := &Async{
		dispatcher: d,
		catalog:    c,
		logger:     logger,
		sem:        semaphore.NewWeighted(int64(maxInFlight)),
		timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ booking.Notifier = (*Async)(nil)

func (a *Async) AppointmentConfirmed(ctx context.Context, appt model.Appointment) {
	a.spawn(ctx, appt, model.NotificationConfirmation)
}

func (a *Async) AppointmentCancelled(ctx context.Context, appt model.Appointment) {
	a.spawn(ctx, appt, model.NotificationCancellation)
}

func (a *Async) spawn(ctx context.Context, appt model.Appointment, kind model.NotificationKind) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.WarnContext(ctx, "notification dropped after shutdown", "appointment_id", appt.ID, "kind", kind)
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	// Keep request-scoped values such as the trace, but not the request's cancellation.
	detached := context.WithoutCancel(ctx)
	go func() {
		defer a.wg.Done()
		if err := a.sem.Acquire(detached, 1); err != nil {
			return
		}
		defer a.sem.Release(1)

		if err := a.deliver(detached, appt, kind); err != nil {
			a.logger.ErrorContext(detached, "appointment notification failed",
				"err", err,
				"appointment_id", appt.ID,
				"tenant_id", appt.TenantID,
				"kind", kind,
			)
		}
	}()
}

// deliver sends the email first and publishes the domain event afterwards. Each step gets its
// own timeout so a stalled broker cannot eat into the email's budget.
func (a *Async) deliver(ctx context.Context, appt model.Appointment, kind model.NotificationKind) error {
	var errs []error
	if err := a.sendEmail(ctx, appt, kind); err != nil {
		errs = append(errs, err)
	}
	if a.publisher != nil {
		topic := TopicAppointmentConfirmed
		if kind == model.NotificationCancellation {
			topic = TopicAppointmentCancelled
		}
		pubCtx, cancel := context.WithTimeout(ctx, a.timeout)
		err := a.publisher.PublishAppointment(pubCtx, topic, appt)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}

func (a *Async) sendEmail(ctx context.Context, appt model.Appointment, kind model.NotificationKind) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	p, err := a.payload(ctx, appt)
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}
	var res Result
	if kind == model.NotificationCancellation {
		res = a.dispatcher.SendCancellationEmail(ctx, p)
	} else {
		res = a.dispatcher.SendConfirmationEmail(ctx, p)
	}
	if !res.Success {
		return fmt.Errorf("send email: %w", res.Err)
	}
	return nil
}

func (a *Async) payload(ctx context.Context, appt model.Appointment) (Payload, error) {
	tenant, err := a.catalog.GetTenant(ctx, appt.TenantID)
	if err != nil {
		return Payload{}, fmt.Errorf("tenant: %w", err)
	}
	// Names are best effort: a service or staff member deactivated since booking is still shown.
	serviceName, staffName := "", ""
	if svc, err := a.catalog.GetService(ctx, appt.TenantID, appt.ServiceID); err == nil {
		serviceName = svc.Name
	}
	if st, err := a.catalog.GetStaff(ctx, appt.TenantID, appt.StaffID); err == nil {
		staffName = st.Name
	}

	loc, err := time.LoadLocation(appt.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := appt.StartTime.In(loc)
	return Payload{
		AppointmentID:      appt.ID,
		TenantID:           appt.TenantID,
		ConfirmationCode:   appt.ConfirmationCode,
		CustomerName:       appt.CustomerName,
		CustomerEmail:      appt.CustomerEmail,
		CustomerPhone:      appt.CustomerPhone,
		Date:               local.Format("Monday, January 2, 2006"),
		Time:               local.Format("3:04 PM"),
		Timezone:           loc.String(),
		ServiceName:        serviceName,
		StaffName:          staffName,
		BusinessName:       tenant.BusinessName,
		Price:              FormatPrice(appt.TotalPriceCents, tenant.Currency),
		Status:             appt.Status,
		CancellationReason: appt.CancellationReason,
	}, nil
}

// FormatPrice renders minor units as "45.00 USD". Free services render empty.
func FormatPrice(cents int64, currency string) string {
	if cents == 0 {
		return ""
	}
	return decimal.New(cents, -2).StringFixed(2) + " " + currency
}

// Close stops accepting work and waits for in-flight sends or ctx expiry.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
