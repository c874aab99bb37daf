package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"zipmarket/internal/app"
	"zipmarket/internal/config"
	"zipmarket/internal/domain"
	"zipmarket/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger, closer, err := logging.NewWithRunLog(cfg.Logging.Level, cfg.Logging.RunLog)
	if closer != nil {
		defer closer.Close()
	}
	if err != nil {
		logger.Warn("run log unavailable, logging to console only", "error", err)
	}

	application := app.New(cfg, logger)

	if err := application.Run(ctx); err != nil {
		// A broken upstream link is an expected condition: nothing was
		// written, the previous dataset stays live, exit clean.
		if errors.Is(err, domain.ErrFeedUnavailable) {
			logger.Info("upstream feed unavailable, exiting without update", "error", err)
			return
		}
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}
