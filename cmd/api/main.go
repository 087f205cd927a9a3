package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/petcare-booking-platform/internal/api/router"
	"github.com/wolfman30/petcare-booking-platform/internal/appointments"
	"github.com/wolfman30/petcare-booking-platform/internal/catalog"
	appconfig "github.com/wolfman30/petcare-booking-platform/internal/config"
	"github.com/wolfman30/petcare-booking-platform/internal/customers"
	"github.com/wolfman30/petcare-booking-platform/internal/dialogue"
	"github.com/wolfman30/petcare-booking-platform/internal/http/handlers"
	"github.com/wolfman30/petcare-booking-platform/internal/messaging"
	"github.com/wolfman30/petcare-booking-platform/internal/observability/metrics"
	"github.com/wolfman30/petcare-booking-platform/internal/reminder"
	"github.com/wolfman30/petcare-booking-platform/internal/schedule"
	"github.com/wolfman30/petcare-booking-platform/internal/session"
	"github.com/wolfman30/petcare-booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting petcare booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer func() { _ = rdb.Close() }()

	clock, err := schedule.NewClock(cfg.BusinessTimezone)
	if err != nil {
		logger.Error("invalid business timezone", "tz", cfg.BusinessTimezone, "error", err)
		os.Exit(1)
	}

	// Stores
	catalogStore := catalog.NewStore(pool)
	customerStore := customers.NewStore(pool)
	appointmentStore := appointments.NewStore(pool)
	settingsStore := schedule.NewSettingsStore(pool)
	logStore := messaging.NewLogStore(pool)
	sessionStore := session.NewStore(rdb, pool, logger)

	// Domain services
	botMetrics := metrics.NewBotMetrics(nil)
	engine := schedule.NewEngine(catalogStore, appointmentStore, settingsStore, clock, logger)
	notifications := handlers.NewNotificationBuffer(logger)
	locks := session.NewPhoneLocks()
	controller := dialogue.NewController(
		catalogStore,
		customerStore,
		appointmentStore,
		engine,
		sessionStore,
		locks,
		notifications,
		clock,
		logger,
		cfg.BusinessAddress,
	).WithMetrics(botMetrics)

	sender := messaging.NewEvolutionSender(cfg.EvolutionAPIURL, cfg.EvolutionInstance, cfg.EvolutionAPIKey, logger)

	// Reminder worker runs alongside the HTTP server.
	worker := reminder.NewWorker(appointmentStore, settingsStore, sender, controller, clock, logger).
		WithInterval(cfg.ReminderPollInterval).
		WithMetrics(botMetrics)
	go worker.Start(ctx)

	webhookHandler := handlers.NewEvolutionWebhookHandler(controller, sender, logStore, botMetrics, logger)
	adminHandler := handlers.NewAdminHandler(catalogStore, settingsStore, appointmentStore, clock, logger)

	r := router.New(router.Config{
		Logger:             logger,
		Webhook:            webhookHandler,
		Admin:              adminHandler,
		Notifications:      notifications,
		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
