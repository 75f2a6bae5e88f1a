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

	"github.com/leadbridge/leadbridge/internal/app"
	"github.com/leadbridge/leadbridge/internal/auth"
	"github.com/leadbridge/leadbridge/internal/catalog"
	"github.com/leadbridge/leadbridge/internal/leads"
	"github.com/leadbridge/leadbridge/internal/observability"
	"github.com/leadbridge/leadbridge/internal/platform/cache"
	"github.com/leadbridge/leadbridge/internal/platform/db"
	"github.com/leadbridge/leadbridge/internal/shared"
	"github.com/leadbridge/leadbridge/internal/users"
	"github.com/leadbridge/leadbridge/jobs"
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
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("leadbridge exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{ApplicationName: "leadbridge-api"})
	if err != nil {
		return err
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

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	sessions := auth.NewSessionStore(redisClient)

	userRepo := users.NewRepository(pool)
	notifier := jobs.NewRegistrationNotifier(jobClient, cfg.AdminNotifyEmail)
	userService := users.NewService(userRepo, notifier, auditLogger, logger)

	authMW := auth.Middleware{Sessions: sessions, Accounts: userService, Logger: logger}

	productRepo := catalog.NewRepository(pool)
	productService := catalog.NewService(productRepo, auditLogger, logger)
	syncer := app.NewCatalogSyncer(cfg, pool, redisClient, metrics, logger)

	leadRepo := leads.NewRepository(pool)
	leadService := leads.NewService(leadRepo, userRepo, auditLogger, cfg.LeadIntakeKeyHash, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		ProductsHandler: catalog.NewHandler(logger, productService, syncer, jobClient, authMW),
		LeadsHandler:    leads.NewHandler(logger, leadService, authMW),
		UsersHandler:    users.NewHandler(logger, userService, sessions, authMW),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
		Readiness: map[string]app.ReadinessCheck{
			"postgres": pool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
