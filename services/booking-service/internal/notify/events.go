package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/PersyLopez/sitesprintz-sub001/libs/kafkax"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

const (
	TopicAppointmentConfirmed = "booking.appointment.confirmed.v1"
	TopicAppointmentCancelled = "booking.appointment.cancelled.v1"
)

type AppointmentEvent struct {
	EventID     string            `json:"event_id"`
	EventType   string            `json:"event_type"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Appointment model.Appointment `json:"appointment"`
}

// EventPublisher emits committed appointment changes for other services.
type EventPublisher interface {
	PublishAppointment(ctx context.Context, topic string, a model.Appointment) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) PublishAppointment(ctx context.Context, topic string, a model.Appointment) error {
	evt := AppointmentEvent{
		EventID:     uuid.NewString(),
		EventType:   topic,
		OccurredAt:  time.Now().UTC(),
		Appointment: a,
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	headers := []kafka.Header{
		{Key: "event_id", Value: []byte(evt.EventID)},
		{Key: "event_type", Value: []byte(evt.EventType)},
		{Key: "tenant_id", Value: []byte(a.TenantID)},
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(a.ID),
		Value:   body,
		Headers: kafkax.InjectTraceHeaders(ctx, headers),
	})
}
