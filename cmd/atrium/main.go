package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atrium-crm/atrium/internal/analytics"
	"github.com/atrium-crm/atrium/internal/app"
	"github.com/atrium-crm/atrium/internal/auth"
	"github.com/atrium-crm/atrium/internal/clients"
	"github.com/atrium-crm/atrium/internal/installments"
	"github.com/atrium-crm/atrium/internal/mailer"
	"github.com/atrium-crm/atrium/internal/payments"
	"github.com/atrium-crm/atrium/internal/platform/cache"
	"github.com/atrium-crm/atrium/internal/platform/db"
	"github.com/atrium-crm/atrium/internal/projects"
	"github.com/atrium-crm/atrium/internal/shared"
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

	if err := db.RunMigrations(cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	clock := shared.SystemClock{}

	analyticsCache := analytics.NewCache(redisClient, cfg.DashboardCacheTTL)
	analyticsService := analytics.NewService(analytics.NewRepository(pool), analyticsCache, clock)

	installmentsService := installments.NewService(installments.NewRepository(pool), analyticsService, analyticsCache, clock)
	projectsService := projects.NewService(projects.NewRepository(pool))
	clientsService := clients.NewService(clients.NewRepository(pool))
	paymentsService := payments.NewService(payments.NewRepository(pool), clock)

	tokenStore := auth.NewTokenStore(redisClient, cfg.AuthTokenTTL)
	authService := auth.NewService(auth.NewRepository(pool), tokenStore)

	mailerService := mailer.NewService(logger, mailer.NewRepository(pool), mailer.SMTPDialer{}, mailer.SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		FromEmail: cfg.SMTPFrom,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthService:         authService,
		AuthHandler:         auth.NewHandler(logger, authService),
		ClientsHandler:      clients.NewHandler(logger, clientsService),
		ProjectsHandler:     projects.NewHandler(logger, projectsService),
		InstallmentsHandler: installments.NewHandler(logger, installmentsService),
		PaymentsHandler:     payments.NewHandler(logger, paymentsService),
		AnalyticsHandler:    analytics.NewHandler(logger, analyticsService),
		MailHandler:         mailer.NewHandler(logger, mailerService),
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
