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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/cbdms-web/api/swagger"
	"github.com/noah-isme/cbdms-web/internal/handler"
	"github.com/noah-isme/cbdms-web/internal/repository"
	"github.com/noah-isme/cbdms-web/internal/router"
	"github.com/noah-isme/cbdms-web/internal/service"
	"github.com/noah-isme/cbdms-web/internal/web"
	"github.com/noah-isme/cbdms-web/pkg/apiclient"
	"github.com/noah-isme/cbdms-web/pkg/cache"
	"github.com/noah-isme/cbdms-web/pkg/config"
	"github.com/noah-isme/cbdms-web/pkg/jobs"
	"github.com/noah-isme/cbdms-web/pkg/logger"
	"github.com/noah-isme/cbdms-web/pkg/validation"
)

// @title CBDMS Web
// @version 0.1.0
// @description Web front end of the College based Data Management System
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.PaperCache.Enabled {
		redisClient, err = cache.Open(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("paper cache disabled: redis unavailable", zap.Error(err))
		} else {
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "cbdms:", logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.PaperCache.TTL, logr, cfg.PaperCache.Enabled && redisClient != nil)
	if cacheSvc.Enabled() {
		writes := jobs.NewPool("cache-writes", jobs.Config{
			Workers:    cfg.PaperCache.WriteWorkers,
			MaxRetries: 2,
			RetryDelay: 500 * time.Millisecond,
			Logger:     logr,
		})
		writes.Start(ctx)
		defer writes.Stop()
		cacheSvc.WithWritePool(writes)
	}

	api := apiclient.New(cfg.API, metrics, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	notifications := service.NewNotificationService(logr)

	workspaces := service.NewWorkspaceRegistry(service.WorkspaceDeps{
		Schedules:     repository.NewScheduleRepository(api),
		Papers:        repository.NewPaperRepository(api),
		Cache:         cacheSvc,
		PaperCacheTTL: cfg.PaperCache.TTL,
		Notifications: notifications,
		Validate:      validation.New(),
		Metrics:       metrics,
		Logger:        logr,
	}, cfg.Session.WorkspaceTTL)
	go workspaces.Run(ctx, cfg.Session.SweepInterval)

	templates, err := web.Templates()
	if err != nil {
		logr.Fatal("failed to parse templates", zap.Error(err))
	}

	handlers := &router.Handlers{
		Landing:  handler.NewLandingHandler(notifications),
		Schedule: handler.NewScheduleHandler(notifications, service.NewExportService(logr, nil, nil), logr),
		WS:       handler.NewWSHandler(notifications, logr, cfg.CORS.AllowedOrigins),
		Metrics:  handler.NewMetricsHandler(metrics, checks),
	}
	r := router.SetupRouter(router.Deps{
		Config:     cfg,
		Logger:     logr,
		Metrics:    metrics,
		Auth:       authSvc,
		Workspaces: workspaces,
		Templates:  templates,
	}, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "api", cfg.API.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http server shutdown error", zap.Error(err))
	}
}
