package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/mentorship-backend/internal/auth"
	"github.com/example/mentorship-backend/internal/booking"
	"github.com/example/mentorship-backend/internal/calendar"
	"github.com/example/mentorship-backend/internal/config"
	httptransport "github.com/example/mentorship-backend/internal/http"
	"github.com/example/mentorship-backend/internal/notify"
	"github.com/example/mentorship-backend/internal/persistence/sqlite"
	"github.com/example/mentorship-backend/internal/reconcile"
	"github.com/example/mentorship-backend/internal/recurrence"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(ctx, cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	userRepo := sqlite.NewUserRepository(pool)
	slotRepo := sqlite.NewSlotTemplateRepository(pool)
	meetupRepo := sqlite.NewMeetupRepository(pool)
	credentialRepo := sqlite.NewCredentialRepository(pool)

	expander := recurrence.NewExpander(cfg.Timezone, now, logger)
	notifier := notify.NewLogNotifier(logger)

	// Without OAuth client credentials the service runs local-only: slot
	// edits skip external sync and confirmations skip materialization.
	var (
		slotSync     booking.CalendarSlotSync
		materializer booking.CalendarMaterializer
		adapter      *calendar.SyncAdapter
	)
	if cfg.CalendarEnabled() {
		refresher := calendar.NewGoogleTokenRefresher(cfg.GoogleClientID, cfg.GoogleClientSecret)
		adapter = calendar.NewSyncAdapter(
			calendar.NewGoogleService(), refresher, credentialRepo, slotRepo, userRepo,
			cfg.CalendarTimeout, calendar.NewEventID, now, logger)
		slotSync = adapter
		materializer = adapter
	}

	availabilityService := booking.NewAvailabilityService(slotRepo, meetupRepo, expander, now, logger)
	bookingService := booking.NewBookingService(meetupRepo, slotRepo, userRepo, expander, notifier, materializer, idGenerator, now, logger)
	slotService := booking.NewSlotService(slotRepo, credentialRepo, slotSync, idGenerator, now, logger)

	routerCfg := httptransport.RouterConfig{
		Availability: httptransport.NewAvailabilityHandler(availabilityService, logger),
		Meetups:      httptransport.NewMeetupHandler(bookingService, logger),
		Slots:        httptransport.NewSlotHandler(slotService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireIdentity(auth.NewJWTProvider([]byte(cfg.JWTSecret)), logger),
		},
	}
	if adapter != nil {
		worker := reconcile.NewWorker(slotRepo, adapter, logger)
		routerCfg.Reconcile = httptransport.NewReconcileHandler(worker, logger)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httptransport.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr, "calendar_sync", cfg.CalendarEnabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
