package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/glizzus/pipeline-schedule/internal/config"
	"github.com/glizzus/pipeline-schedule/internal/datalayer"
	"github.com/glizzus/pipeline-schedule/internal/repository"
	"github.com/glizzus/pipeline-schedule/internal/worker"
)

var dryRun = flag.Bool("dry-run", false, "Do not publish to Redis, just log the runs that would be dispatched")

func newJobHandler(ctx context.Context) (worker.JobHandler, func(), error) {
	if *dryRun {
		return &worker.PrintingJobHandler{}, func() {}, nil
	}

	handler, err := worker.NewRedisJobHandlerFromEnv(ctx)
	if err != nil {
		return nil, nil, err
	}
	return handler, func() {
		if err := handler.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}, nil
}

func runDispatcherForever(ctx context.Context) error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	dispatcherConfig, err := config.NewDispatcherConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load dispatcher config: %w", err)
	}

	pool, err := datalayer.NewPostgresPoolFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	defer pool.Close()

	if err := datalayer.MigratePostgres(pool); err != nil {
		return fmt.Errorf("failed to migrate postgres: %w", err)
	}

	repo := repository.NewPostgresPipelineRepository(pool)
	repo.Upcoming = dispatcherConfig.Upcoming

	handler, closeHandler, err := newJobHandler(ctx)
	if err != nil {
		return err
	}
	defer closeHandler()

	slog.Info(
		"Dispatcher started",
		slog.Duration("interval", dispatcherConfig.Interval),
		slog.Duration("lookahead", dispatcherConfig.Lookahead),
		slog.Bool("dryRun", *dryRun),
	)

	dispatcher := worker.NewDispatcher(repo, handler, dispatcherConfig.Lookahead)
	err = dispatcher.Run(ctx, dispatcherConfig.Interval)
	if errors.Is(err, context.Canceled) {
		slog.Info("Dispatcher stopped")
		return nil
	}
	return err
}

func main() {
	flag.Parse()
	slog.SetLogLoggerLevel(slog.LevelDebug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runDispatcherForever(ctx); err != nil {
		slog.Error("Dispatcher encountered an error", slog.Any("error", err))
		os.Exit(1)
	}
}
