package storage

import (
	"context"

	"github.com/PersyLopez/sitesprintz-sub001/libs/db"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

type NotificationRepository struct {
	pool *db.Pool
}

func NewNotificationRepository(pool *db.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) RecordNotification(ctx context.Context, n model.NotificationRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO booking_notification_history
			(appointment_id, kind, recipient, status, provider_id, error)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
	`, n.AppointmentID, string(n.Kind), n.Recipient, n.Status, n.ProviderID, n.Error)
	return err
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, appointmentID string) ([]model.NotificationRecord, error) {
	if !validID(appointmentID) {
		return []model.NotificationRecord{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, kind, recipient, status, COALESCE(provider_id, ''), COALESCE(error, ''), created_at
		FROM booking_notification_history
		WHERE appointment_id = $1
		ORDER BY created_at ASC
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (*model.NotificationRecord, error) {
		var n model.NotificationRecord
		var kind string
		if err := row.Scan(&n.ID, &n.AppointmentID, &kind, &n.Recipient, &n.Status, &n.ProviderID, &n.Error, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Kind = model.NotificationKind(kind)
		return &n, nil
	})
}
