package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/monitor247/internal/config"
	"github.com/hamed0406/monitor247/internal/httpapi"
	apimw "github.com/hamed0406/monitor247/internal/httpapi/middleware"
	"github.com/hamed0406/monitor247/internal/hub"
	"github.com/hamed0406/monitor247/internal/logging"
	"github.com/hamed0406/monitor247/internal/probe"
	"github.com/hamed0406/monitor247/internal/scheduler"
	"github.com/hamed0406/monitor247/internal/store"
	"github.com/hamed0406/monitor247/internal/store/file"
	"github.com/hamed0406/monitor247/internal/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.DatabaseURL != "" {
		st, err = postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("open_postgres_store", zap.Error(err))
		}
	} else {
		st, err = file.New(cfg.StateFile)
		if err != nil {
			logger.Fatal("open_file_store", zap.Error(err))
		}
	}
	defer st.Close()

	h := hub.New(logger)

	var checker probe.Checker = probe.NewHTTPChecker()
	if cfg.RetryAttempts > 1 {
		checker = &probe.RetryChecker{
			Inner:    checker,
			Attempts: cfg.RetryAttempts,
			Backoff:  cfg.RetryBackoff,
		}
	}

	runner := scheduler.NewRunner(logger, st, h, checker,
		cfg.TickInterval, cfg.ProbeTimeout, cfg.MaxConcurrentProbes)
	go runner.Run(ctx)

	api := httpapi.NewServer(logger, st, h)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.Router(keys, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown_error", zap.Error(err))
		}
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("serve_error", zap.Error(err))
	}
	logger.Info("api_stopped")
}
