package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stayengine/internal/infra/config"
	"stayengine/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV")).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger, time.Now)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	runErr := app.run(ctx)
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.close(closeCtx); err != nil {
		logger.Warn("shutdown cleanup failed", "error", err)
	}
	if runErr != nil {
		logger.Error("stayengine stopped with error", "error", runErr)
		os.Exit(1)
	}
	logger.Info("stayengine stopped")
}
