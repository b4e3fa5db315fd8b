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

	"github.com/sentinel-access/sentinel/internal/app"
	"github.com/sentinel-access/sentinel/internal/auth"
	"github.com/sentinel-access/sentinel/internal/authz"
	"github.com/sentinel-access/sentinel/internal/business"
	"github.com/sentinel-access/sentinel/internal/observability"
	"github.com/sentinel-access/sentinel/internal/platform/cache"
	"github.com/sentinel-access/sentinel/internal/platform/db"
	"github.com/sentinel-access/sentinel/internal/rules"
	"github.com/sentinel-access/sentinel/internal/users"
	"github.com/sentinel-access/sentinel/jobs"
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
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var sessions auth.SessionStore
	switch cfg.SessionStore {
	case "redis":
		sessions = auth.NewRedisSessionStore(redisClient, cfg.SessionTTL)
	default:
		sessions = auth.NewPGSessionStore(pool, cfg.SessionTTL)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	userRepo := users.NewRepository(pool)
	resolver := auth.NewResolver(userRepo, sessions, tokens)
	authService := auth.NewService(userRepo, sessions, tokens)
	authHandler := auth.NewHandler(logger, authService, cfg.SessionTTL, cfg.IsProduction())

	ruleRepo := rules.NewRepository(pool)
	rulesHandler := rules.NewHandler(logger, rules.NewService(ruleRepo))

	metrics := observability.NewMetrics()
	engine := authz.NewEngine(ruleRepo)
	guard := authz.Guard{Engine: engine, Logger: logger, Metrics: metrics}

	businessRepo := business.NewPGRepository(pool)
	businessHandler := business.NewHandler(logger, businessRepo, engine, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Identification:  auth.Identification(resolver, logger),
		AuthHandler:     authHandler,
		RulesHandler:    rulesHandler,
		BusinessHandler: businessHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
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

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
