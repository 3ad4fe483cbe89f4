package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PersyLopez/sitesprintz-sub001/libs/db"
	"github.com/PersyLopez/sitesprintz-sub001/libs/runtime"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/booking"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/handlers"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/notify"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/storage"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/storage/memory"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/migrations"
)

type notificationHistory interface {
	notify.History
	handlers.NotificationLog
}

// backend bundles everything the selected store driver provides.
type backend struct {
	store    booking.Store
	accounts booking.AccountDirectory
	history  notificationHistory
	ready    []runtime.ReadyCheck
	close    func()
}

func openBackend(ctx context.Context, cfg appConfig, logger *slog.Logger) (*backend, error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		s := memory.New()
		return &backend{store: s, accounts: s, history: s, close: func() {}}, nil
	case "postgres":
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connection: %w", err)
		}
		if cfg.MigrateOnStart {
			if err := migrations.Apply(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			logger.Info("migrations applied")
		}
		return &backend{
			store:    storage.NewBookingStore(pool),
			accounts: storage.NewAccountRepository(pool),
			history:  storage.NewNotificationRepository(pool),
			ready:    []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}},
			close:    pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
