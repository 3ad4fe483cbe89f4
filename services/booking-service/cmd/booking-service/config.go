package main

import (
	"time"

	"github.com/PersyLopez/sitesprintz-sub001/libs/config"
)

type appConfig struct {
	Service        string
	LogLevel       string
	Port           string
	GRPCPort       string
	StoreDriver    string
	DatabaseURL    string
	MigrateOnStart bool

	RedisAddr          string
	RateLimitPerMinute int
	RateLimitFailOpen  bool
	CORSOrigins        []string
	RequestTimeout     time.Duration

	KafkaBrokers string

	SMTPHost          string
	SMTPPort          string
	SMTPFrom          string
	NotifyMaxInFlight int
	NotifyPerSecond   int
}

func loadConfig() (appConfig, error) {
	cfg := appConfig{
		Service:        config.String("SERVICE_NAME", "booking-service"),
		LogLevel:       config.String("LOG_LEVEL", "info"),
		StoreDriver:    config.String("STORE_DRIVER", "postgres"),
		MigrateOnStart: config.Bool("MIGRATE_ON_START", false),

		RedisAddr:         config.String("REDIS_ADDR", ""),
		RateLimitFailOpen: config.Bool("RATE_LIMIT_FAIL_OPEN", true),
		CORSOrigins:       config.List("CORS_ALLOWED_ORIGINS"),

		KafkaBrokers: config.String("KAFKA_BROKERS", ""),

		SMTPHost: config.String("SMTP_HOST", ""),
		SMTPFrom: config.String("SMTP_FROM", "bookings@localhost"),
	}

	var err error
	if cfg.Port, err = config.Port("PORT", "8083"); err != nil {
		return cfg, err
	}
	if cfg.GRPCPort, err = config.Port("GRPC_PORT", "9083"); err != nil {
		return cfg, err
	}
	if cfg.SMTPPort, err = config.Port("SMTP_PORT", "1025"); err != nil {
		return cfg, err
	}
	if cfg.StoreDriver == "postgres" {
		if cfg.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
			return cfg, err
		}
	}
	if cfg.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = config.Duration("HTTP_REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return cfg, err
	}
	if cfg.NotifyMaxInFlight, err = config.Int("NOTIFY_MAX_INFLIGHT", 8); err != nil {
		return cfg, err
	}
	if cfg.NotifyPerSecond, err = config.Int("NOTIFY_PER_SECOND", 5); err != nil {
		return cfg, err
	}
	return cfg, nil
}
