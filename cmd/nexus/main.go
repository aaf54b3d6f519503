package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/caseguardian/nexus/internal/app"
	"github.com/caseguardian/nexus/internal/authz"
	"github.com/caseguardian/nexus/internal/cases"
	"github.com/caseguardian/nexus/internal/identity"
	"github.com/caseguardian/nexus/internal/messages"
	"github.com/caseguardian/nexus/internal/notifications"
	"github.com/caseguardian/nexus/internal/observability"
	"github.com/caseguardian/nexus/internal/platform/cache"
	"github.com/caseguardian/nexus/internal/platform/db"
	"github.com/caseguardian/nexus/internal/profiles"
	"github.com/caseguardian/nexus/internal/reports"
	"github.com/caseguardian/nexus/internal/settings"
	"github.com/caseguardian/nexus/internal/shared"
	"github.com/caseguardian/nexus/internal/users"
	"github.com/caseguardian/nexus/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "nexus_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)

	profileRepo := profiles.NewRepository(pool)
	profileService := profiles.NewService(profileRepo, logger)

	identityRepo := identity.NewRepository(pool)
	identityService := identity.NewService(identityRepo)

	metrics := observability.NewMetrics()

	resolver := identity.Resolver{Profiles: profileService, Logger: logger}
	guard := authz.Middleware{
		Logger: logger,
		OnDeny: func(c authz.Capability) { metrics.CountAccessDenied(c.String()) },
	}

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := reports.NewService(reports.NewRepository(pool), reportCache)
	if err := reportCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("report cache listener", slog.Any("error", err))
	}

	notificationService := notifications.NewService(notifications.NewRepository(pool), logger)
	settingsService := settings.NewService(settings.NewRepository(pool), auditLogger, logger)

	bridge := &app.EventBridge{
		Reports:       reportService,
		Queue:         queueClient,
		Notifications: notificationService,
		Settings:      settingsService,
		Audience:      app.ProfileAudience{Profiles: profileService},
		Logger:        logger,
	}
	profileService.OnChange(func(ctx context.Context, p profiles.Profile) {
		bridge.AccessChanged(ctx, p.UserID, fmt.Sprintf("Your access was updated; your role is now %s.", p.Role))
	})

	caseService := cases.NewService(cases.NewRepository(pool), auditLogger, bridge, logger)
	messageService := messages.NewService(messages.NewRepository(pool), bridge, logger)
	userService := users.NewService(identityService, profileService, auditLogger, logger)

	authHandler := identity.NewHandler(logger, identityService, profileService, sessionManager, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		Resolver:             resolver,
		Guard:                guard,
		AuthHandler:          authHandler,
		CasesHandler:         cases.NewHandler(logger, caseService),
		MessagesHandler:      messages.NewHandler(logger, messageService),
		NotificationsHandler: notifications.NewHandler(logger, notificationService),
		ReportsHandler: reports.NewHandler(logger, reportService, func(ctx context.Context, requestedBy string) error {
			_, err := queueClient.EnqueueReportSnapshot(ctx, jobs.ReportSnapshotPayload{Invalidate: true, RequestedBy: requestedBy})
			return err
		}),
		SettingsHandler:      settings.NewHandler(logger, settingsService),
		UsersHandler:         users.NewHandler(logger, userService),
		JobHandler:           jobs.NewHandler(inspector, logger),
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
