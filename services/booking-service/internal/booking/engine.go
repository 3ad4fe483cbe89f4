package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	otelx "github.com/PersyLopez/sitesprintz-sub001/libs/otel"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/availability"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/metrics"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
)

const displayLayout = "3:04 PM"

// Engine computes bookable slots. Its answers are advisory: the ledger re-checks every booking.
type Engine struct {
	store Store
	now   func() time.Time
}

// Clock returns the current instant. Nil means time.Now.
type Clock func() time.Time

func NewEngine(store Store, clock Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{store: store, now: clock}
}

// CalculateAvailableSlots lists free slots for service and staff on the local calendar date in
// timezone. A day without open rules yields an empty list, not an error.
func (e *Engine) CalculateAvailableSlots(ctx context.Context, tenantID, serviceID, staffID, date, timezone string) ([]model.Slot, error) {
	ctx, span := otelx.Tracer("booking").Start(ctx, "booking.CalculateAvailableSlots")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.id", tenantID),
		attribute.String("staff.id", staffID),
		attribute.String("date", date),
	)
	start := time.Now()
	defer func() { metrics.ObserveSlotComputation(time.Since(start)) }()

	svc, err := e.store.GetService(ctx, tenantID, serviceID)
	if err != nil {
		return nil, notFoundOr(err, "service", "get service")
	}
	staff, err := e.store.GetStaff(ctx, tenantID, staffID)
	if err != nil {
		return nil, notFoundOr(err, "staff", "get staff")
	}

	loc, err := loadLocation("timezone", timezone)
	if err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation(time.DateOnly, date, loc)
	if err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}

	rules, err := e.store.ListAvailabilityRules(ctx, staff.ID, int(day.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}
	slots := []model.Slot{}
	if len(rules) == 0 {
		return slots, nil
	}

	dayStart, dayEnd := availability.DayBounds(day)
	appts, err := e.store.ListBusyAppointments(ctx, staff.ID, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	busy := make([]availability.Interval, 0, len(appts))
	for _, a := range appts {
		busy = append(busy, availability.Interval{Start: a.StartTime, End: a.EndTime})
	}

	now := e.now().In(loc)
	req := availability.Request{
		Duration: time.Duration(svc.DurationMinutes) * time.Minute,
		Buffer:   time.Duration(staff.BufferTimeAfter) * time.Minute,
		Busy:     busy,
		Now:      now,
		Earliest: availability.EarliestStart(now, loc, staff.MinAdvanceBookingHours),
	}
	for _, rule := range rules {
		window := availability.Window{StartMinute: rule.StartTime.Minutes(), EndMinute: rule.EndTime.Minutes()}
		for _, iv := range availability.AvailableSlots(day, window, req) {
			slots = append(slots, toSlot(iv, loc))
		}
	}
	span.SetAttributes(attribute.Int("slots", len(slots)))
	return slots, nil
}

func toSlot(iv availability.Interval, loc *time.Location) model.Slot {
	localStart := iv.Start.In(loc)
	return model.Slot{
		StartTime:      iv.Start.UTC(),
		EndTime:        iv.End.UTC(),
		LocalStartTime: localStart,
		LocalEndTime:   iv.End.In(loc),
		DisplayTime:    localStart.Format(displayLayout),
		Available:      true,
	}
}

// notFoundOr tags ErrNotFound with the missing entity and wraps everything else with op.
func notFoundOr(err error, entity, op string) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
