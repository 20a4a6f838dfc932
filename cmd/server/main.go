// Package main provides the entry point for the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/festy23/codeshelf/internal/config"
	"github.com/festy23/codeshelf/internal/conflict"
	"github.com/festy23/codeshelf/internal/database/database"
	"github.com/festy23/codeshelf/internal/database/migrate"
	"github.com/festy23/codeshelf/internal/gitcli"
	"github.com/festy23/codeshelf/internal/health"
	"github.com/festy23/codeshelf/internal/lock"
	"github.com/festy23/codeshelf/internal/merge"
	"github.com/festy23/codeshelf/internal/metrics"
	"github.com/festy23/codeshelf/internal/middleware"
	pullrequestRouter "github.com/festy23/codeshelf/internal/pullrequest/router"
	repoRouter "github.com/festy23/codeshelf/internal/repo/router"
	statisticsRouter "github.com/festy23/codeshelf/internal/statistics/router"
	"github.com/festy23/codeshelf/internal/vcs"
	"github.com/festy23/codeshelf/internal/workspace"
	"github.com/festy23/codeshelf/migrations"
	"github.com/festy23/codeshelf/pkg/logger"
	"github.com/festy23/codeshelf/pkg/retry"
)

func main() {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Fatalf("failed to load %s: %v", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	sugar, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, sugar); err != nil {
		sugar.Errorw("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, sugar *zap.SugaredLogger) error {
	db, err := database.New(ctx, logger.Component(sugar, "database"))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	if err := migrate.Migrate(db, migrations.FS); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	redisRetry := retry.RedisConfig()
	redisRetry.OnRetry = func(attempt int, err error, delay time.Duration) {
		sugar.Warnw("redis not ready, retrying", "attempt", attempt, "delay", delay, "error", err)
	}
	if err := retry.Do(ctx, redisRetry, func() error { return rdb.Ping(ctx).Err() }); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, "codeshelf"),
	)
	m := metrics.New(reg)

	store, err := vcs.NewStore(cfg.Storage.BaseDir, cfg.Storage.DefaultBranch)
	if err != nil {
		return fmt.Errorf("open repository store: %w", err)
	}
	locker := lock.New(rdb, cfg.Lock, m, logger.Component(sugar, "lock"))
	runner := gitcli.New(cfg.Storage, logger.Component(sugar, "git"))
	workspaces := workspace.NewManager(runner, cfg.Storage.WorkspaceDir, m, logger.Component(sugar, "workspace"))
	detector := conflict.NewDetector(workspaces, logger.Component(sugar, "conflict"))
	executor := merge.NewExecutor(workspaces, m, logger.Component(sugar, "merge"))

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(sugar),
		middleware.Recovery(sugar),
		middleware.Metrics(m),
		middleware.BodyLimit(cfg.Server.MaxUploadBytes),
	)
	if cfg.Server.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	}

	healthHandler := health.New(db, rdb, sugar)
	r.GET("/health", healthHandler.Check)
	r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	repoRouter.RegisterRoutes(r, store, workspaces, locker, logger.Component(sugar, "repo"))
	pullrequestRouter.RegisterRoutes(r, db, store, detector, executor, locker, cfg.Display,
		logger.Component(sugar, "pullrequest"))
	statisticsRouter.RegisterRoutes(r, db, logger.Component(sugar, "statistics"))

	srv := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("server starting", "address", srv.Addr, "repositories", cfg.Storage.BaseDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sugar.Infow("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
