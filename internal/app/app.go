package app

import (
	"context"
	"log/slog"

	"zipmarket/internal/config"
	"zipmarket/internal/infrastructure/feed"
	"zipmarket/internal/infrastructure/fetch"
	"zipmarket/internal/infrastructure/mapping"
	"zipmarket/internal/infrastructure/scheduler"
	"zipmarket/internal/infrastructure/storage"
	"zipmarket/internal/logging"
	"zipmarket/internal/usecase"
)

// Application wires configs to the pipeline and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	client := fetch.NewClient(cfg.HTTP.Attempts, cfg.HTTP.Timeout(), baseLogger.With("component", "fetch"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Mapping:       mapping.NewCSVSource(cfg.Paths.MappingPath(), baseLogger.With("component", "mapping")),
		HomeValues:    feed.NewZillowSource(client, cfg.Feeds.HomeValueURL, baseLogger.With("component", "feed.zillow")),
		MarketTracker: feed.NewRedfinSource(client, cfg.Feeds.MarketTrackerURL, cfg.Paths.DataDir, baseLogger.With("component", "feed.redfin")),
		Store:         storage.NewFileStore(cfg.Paths.DataDir, cfg.Output.Compress, baseLogger.With("component", "storage")),
		Logger:        baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger}
}

// Run performs a single pipeline execution, or keeps refreshing on an
// interval when the scheduler is enabled.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	if !a.cfg.Scheduler.Enabled {
		return a.pipeline.Run(ctx)
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval())
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return sched.Stop(context.Background())
}
