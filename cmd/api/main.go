package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"crisisnet_backend/internal/agencies"
	"crisisnet_backend/internal/analyzer"
	"crisisnet_backend/internal/archive"
	"crisisnet_backend/internal/attachments"
	"crisisnet_backend/internal/crisis"
	crisishandler "crisisnet_backend/internal/crisis/handler"
	"crisisnet_backend/internal/crisis/service"
	"crisisnet_backend/internal/events"
	"crisisnet_backend/internal/geo"
	apphttp "crisisnet_backend/internal/http"
	"crisisnet_backend/internal/http/router"
	"crisisnet_backend/internal/notification"
	"crisisnet_backend/internal/notification/email"
	"crisisnet_backend/internal/notification/sms"
	"crisisnet_backend/internal/notification/sse"
	"crisisnet_backend/internal/scheduler"
	"crisisnet_backend/platform/config"
	"crisisnet_backend/platform/db"
	"crisisnet_backend/platform/logger"
	"crisisnet_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// Crisis archive mirror. The in-memory registry stays authoritative;
	// without a database the API runs fine, just without audit history.
	var health apphttp.HealthChecker
	if cfg.IsArchiveEnabled() {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg, "migrations")
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}

		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to archive database", "error", err)
			panic("failed to connect to archive database: " + err.Error())
		}
		defer pool.Close()

		repo := archive.NewRepository(pool)
		archive.NewMirror(repo, log).RegisterHandlers(eventBus)
		health = repo
		log.Info("crisis archive enabled")
	} else {
		log.Warn("DATABASE_URL not configured; crisis archive disabled")
	}

	// Photo storage for alert intake (MinIO)
	var photos crisishandler.PhotoStore
	photoStore, err := attachments.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize photo storage", "error", err)
		panic("failed to initialize photo storage: " + err.Error())
	}
	if photoStore != nil {
		photos = photoStore
		log.Info("photo storage initialized", "bucket", cfg.GetMinioBucketCrisisPhotos())
	}

	// Escalation scheduler over Redis. Without it crises only escalate on
	// explicit operator request.
	var escalationScheduler service.EscalationScheduler
	schedulerClient, closeScheduler := initEscalationScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
		escalationScheduler = schedulerClient
	}

	severityAnalyzer := analyzer.New(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	agenciesModule := agencies.NewModule(cfg, geo.NewScorer(), eventBus, val, log)
	dir := agenciesModule.Directory()

	crisisModule := crisis.NewModule(dir, severityAnalyzer, escalationScheduler, photos, eventBus, cfg, val, log)

	// Notification fan-out: SSE always, SMS and email when configured
	var smsSender notification.SMSSender
	if client := sms.NewClient(cfg, log); client != nil {
		smsSender = client
	}
	var emailSender email.Sender
	if sender := email.NewSMTPSender(cfg); sender != nil {
		emailSender = sender
	}
	notificationModule := notification.New(sse.New(), smsSender, emailSender, dir, cfg, log)
	notificationModule.RegisterHandlers(eventBus)
	crisisModule.Service().SetConnectionCounter(notificationModule.SSE())

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			agenciesModule,
			crisisModule,
			notificationModule,
		},
	}

	engine := router.New(app)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, runCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-runCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// Embedded escalation worker shares the process with the API
	if schedulerClient != nil {
		worker, err := scheduler.NewWorker(cfg, crisisModule.Service(), log)
		if err != nil {
			log.Error("failed to initialize escalation worker", "error", err)
			panic("failed to initialize escalation worker: " + err.Error())
		}
		group.Go(func() error {
			worker.Run(runCtx)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func initEscalationScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; automatic escalation disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize escalation scheduler", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		delay := baseDelay * time.Duration(1<<(attempt-1))
		log.Warn("retrying "+name, "attempt", attempt, "delay", delay.String(), "error", err.Error())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
