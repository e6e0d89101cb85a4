package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/starlordamit/poponew-sub001/internal/app"
	"github.com/starlordamit/poponew-sub001/internal/audit"
	"github.com/starlordamit/poponew-sub001/internal/authn"
	"github.com/starlordamit/poponew-sub001/internal/authz"
	"github.com/starlordamit/poponew-sub001/internal/invites"
	"github.com/starlordamit/poponew-sub001/internal/observability"
	"github.com/starlordamit/poponew-sub001/internal/platform/cache"
	"github.com/starlordamit/poponew-sub001/internal/platform/db"
	"github.com/starlordamit/poponew-sub001/internal/superadmin"
	"github.com/starlordamit/poponew-sub001/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, invite emails will not be queued", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	tokenParser := authn.NewTokenParser(cfg.JWTSecret, nil)
	auditLogger := audit.NewLogger(pool)

	roleRepo := authz.NewRepository(pool)
	resolver := authz.NewResolver(roleRepo, logger)
	verifier := superadmin.NewClient(cfg.VerifierURL, cfg.VerifierToken)
	guard := authz.NewGuard(resolver, verifier, logger, metrics)
	guardMiddleware := authz.Middleware{Guard: guard}
	authzHandler := authz.NewHandler(logger, resolver, guard)

	var mailer invites.Mailer
	if redisClient != nil {
		jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, cfg.InviteAcceptBase)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		mailer = jobClient
	}

	inviteRepo := invites.NewRepository(pool)
	inviteService := invites.NewService(inviteRepo, resolver, nil, logger, mailer, auditLogger, metrics)
	invitesHandler := invites.NewHandler(logger, inviteService, guardMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		TokenParser:    tokenParser,
		AuthzHandler:   authzHandler,
		InvitesHandler: invitesHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
