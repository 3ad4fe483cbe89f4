package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/email"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/metrics"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

// Payload is everything a customer message needs. Date and Time are already formatted in the
// appointment's timezone.
type Payload struct {
	AppointmentID      string
	TenantID           string
	ConfirmationCode   string
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	Date               string
	Time               string
	Timezone           string
	ServiceName        string
	StaffName          string
	BusinessName       string
	Price              string
	Status             model.AppointmentStatus
	CancellationReason string
}

type Result struct {
	Success bool
	ID      string
	Err     error
}

type Dispatcher interface {
	SendConfirmationEmail(ctx context.Context, p Payload) Result
	SendCancellationEmail(ctx context.Context, p Payload) Result
}

// History stores every send attempt.
type History interface {
	RecordNotification(ctx context.Context, rec model.NotificationRecord) error
}

// EmailDispatcher renders and sends customer emails, throttled to the relay's budget.
type EmailDispatcher struct {
	sender  email.Sender
	history History
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewEmailDispatcher allows perSecond sends per second; zero or less disables throttling.
func NewEmailDispatcher(sender email.Sender, history History, perSecond float64, logger *slog.Logger) *EmailDispatcher {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &EmailDispatcher{
		sender:  sender,
		history: history,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

func (d *EmailDispatcher) SendConfirmationEmail(ctx context.Context, p Payload) Result {
	return d.send(ctx, model.NotificationConfirmation, p, confirmationMessage(p))
}

func (d *EmailDispatcher) SendCancellationEmail(ctx context.Context, p Payload) Result {
	return d.send(ctx, model.NotificationCancellation, p, cancellationMessage(p))
}

func (d *EmailDispatcher) send(ctx context.Context, kind model.NotificationKind, p Payload, msg email.Message) Result {
	res := Result{}
	if err := d.limiter.Wait(ctx); err != nil {
		res.Err = fmt.Errorf("wait for send budget: %w", err)
	} else if id, err := d.sender.Send(ctx, msg); err != nil {
		res.Err = err
	} else {
		res = Result{Success: true, ID: id}
	}

	rec := model.NotificationRecord{
		AppointmentID: p.AppointmentID,
		Kind:          kind,
		Recipient:     p.CustomerEmail,
		Status:        "sent",
		ProviderID:    d.sender.ProviderID(),
	}
	outcome := "sent"
	if !res.Success {
		rec.Status = "failed"
		rec.Error = res.Err.Error()
		outcome = "failed"
	}
	metrics.IncNotification(string(kind), outcome)
	if err := d.history.RecordNotification(ctx, rec); err != nil {
		d.logger.WarnContext(ctx, "record notification history failed",
			"err", err,
			"appointment_id", p.AppointmentID,
			"kind", kind,
		)
	}
	return res
}

func confirmationMessage(p Payload) email.Message {
	subject := fmt.Sprintf("Your booking with %s is confirmed (%s)", p.BusinessName, p.ConfirmationCode)
	if p.Status == model.AppointmentPending {
		subject = fmt.Sprintf("Your booking request with %s was received (%s)", p.BusinessName, p.ConfirmationCode)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", p.CustomerName)
	if p.Status == model.AppointmentPending {
		b.WriteString("We received your request. The business will confirm it shortly.\n\n")
	} else {
		b.WriteString("Your appointment is confirmed.\n\n")
	}
	writeDetails(&b, p)
	fmt.Fprintf(&b, "\nNeed to cancel? Use your confirmation code %s.\n", p.ConfirmationCode)
	return email.Message{To: p.CustomerEmail, Subject: subject, Body: b.String()}
}

func cancellationMessage(p Payload) email.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nYour appointment has been cancelled.\n\n", p.CustomerName)
	writeDetails(&b, p)
	if p.CancellationReason != "" {
		fmt.Fprintf(&b, "Reason:   %s\n", p.CancellationReason)
	}
	return email.Message{
		To:      p.CustomerEmail,
		Subject: fmt.Sprintf("Your booking with %s was cancelled (%s)", p.BusinessName, p.ConfirmationCode),
		Body:    b.String(),
	}
}

func writeDetails(b *strings.Builder, p Payload) {
	fmt.Fprintf(b, "Service:  %s\n", p.ServiceName)
	fmt.Fprintf(b, "With:     %s\n", p.StaffName)
	fmt.Fprintf(b, "When:     %s at %s (%s)\n", p.Date, p.Time, p.Timezone)
	if p.Price != "" {
		fmt.Fprintf(b, "Price:    %s\n", p.Price)
	}
	fmt.Fprintf(b, "Code:     %s\n", p.ConfirmationCode)
}
