package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/atrium-crm/atrium/internal/analytics"
	"github.com/atrium-crm/atrium/internal/app"
	"github.com/atrium-crm/atrium/internal/installments"
	"github.com/atrium-crm/atrium/internal/mailer"
	"github.com/atrium-crm/atrium/internal/platform/cache"
	"github.com/atrium-crm/atrium/internal/platform/db"
	"github.com/atrium-crm/atrium/internal/shared"
	"github.com/atrium-crm/atrium/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	mailerService := mailer.NewService(logger, mailer.NewRepository(pool), mailer.SMTPDialer{}, mailer.SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		FromEmail: cfg.SMTPFrom,
	})

	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	sweepJob := jobs.NewSweepOverdueJob(installmentsService, pool, client, mailerService, logger, clock)
	sendEmailJob := jobs.NewSendEmailJob(mailerService, logger)
	remindersJob := jobs.NewRemindersJob(pool, client, mailerService, logger, clock)

	remindersTask, err := jobs.NewRemindersTask(jobs.RemindersPayload{WindowDays: cfg.ReminderWindowDays})
	if err != nil {
		logger.Error("build reminders task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSweepOverdue, Handler: sweepJob.Handle},
			{Type: jobs.TaskTypeSendEmail, Handler: sendEmailJob.Handle},
			{Type: jobs.TaskTypeReminders, Handler: remindersJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: jobs.NewSweepOverdueTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 7 * * *", Task: remindersTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
