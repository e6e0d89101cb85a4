package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/starlordamit/poponew-sub001/internal/app"
	"github.com/starlordamit/poponew-sub001/internal/audit"
	"github.com/starlordamit/poponew-sub001/internal/authz"
	"github.com/starlordamit/poponew-sub001/internal/invites"
	"github.com/starlordamit/poponew-sub001/internal/platform/db"
	"github.com/starlordamit/poponew-sub001/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	roleRepo := authz.NewRepository(pool)
	resolver := authz.NewResolver(roleRepo, logger)
	inviteRepo := invites.NewRepository(pool)
	inviteService := invites.NewService(inviteRepo, resolver, nil, logger, nil, audit.NewLogger(pool), nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeInviteEmail, Handler: jobs.NewInviteEmailHandler(logger)},
			{Type: jobs.TaskTypeInviteSweep, Handler: jobs.NewInviteSweepHandler(inviteService, cfg.InviteRetention, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.InviteSweepCron, Task: jobs.NewInviteSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
