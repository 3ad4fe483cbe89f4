package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/PersyLopez/sitesprintz-sub001/libs/grpcx"
	"github.com/PersyLopez/sitesprintz-sub001/libs/httpx"
	"github.com/PersyLopez/sitesprintz-sub001/libs/kafkax"
	otelx "github.com/PersyLopez/sitesprintz-sub001/libs/otel"
	"github.com/PersyLopez/sitesprintz-sub001/libs/runtime"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/booking"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/email"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/handlers"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/metrics"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/notify"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}
	metrics.Register()

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("store init failed", "err", err)
		panic(err)
	}
	defer be.close()
	readyChecks := be.ready

	var sender email.Sender = email.NewLogSender(logger)
	if cfg.SMTPHost != "" {
		sender = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	}
	dispatcher := notify.NewEmailDispatcher(sender, be.history, float64(cfg.NotifyPerSecond), logger)

	asyncOpts := []notify.AsyncOption{}
	if brokers := kafkax.SplitBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		writer := kafkax.NewWriter(brokers)
		defer func() { _ = writer.Close() }()
		asyncOpts = append(asyncOpts, notify.WithPublisher(notify.NewKafkaPublisher(writer)))
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	notifier := notify.NewAsync(dispatcher, be.store, cfg.NotifyMaxInFlight, logger, asyncOpts...)

	var limiter httpx.Limiter = httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		limiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, cfg.Service+":ratelimit")
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}

	bookingHandler := handlers.NewBookingHandler(
		booking.NewDirectory(be.store, be.accounts),
		booking.NewCatalog(be.store),
		booking.NewStaffDirectory(be.store),
		booking.NewEngine(be.store, nil),
		booking.NewLedger(be.store,
			booking.WithNotifier(notifier),
			booking.WithLogger(logger),
		),
		be.history,
		logger,
	)

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("/metrics", promhttp.Handler())
	bookingHandler.Register(mux)

	const publicPrefix = "/api/v1/public/"
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.OnPrefix(publicPrefix, httpx.WithCORS(httpx.PublicBookingCORS(cfg.CORSOrigins))),
		httpx.OnPrefix(publicPrefix, httpx.RateLimit(limiter, logger, cfg.RateLimitFailOpen)),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv, health := grpcx.NewServer(logger)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		panic(err)
	}

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()
	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	grpcSrv.GracefulStop()
	if err := notifier.Close(shutdownCtx); err != nil {
		logger.Error("notification drain incomplete", "err", err)
	}
	logger.Info("booking service stopped")
}
