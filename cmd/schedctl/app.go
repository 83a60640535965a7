package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glizzus/pipeline-schedule/internal/config"
	"github.com/glizzus/pipeline-schedule/internal/datalayer"
	"github.com/glizzus/pipeline-schedule/internal/generator"
	"github.com/glizzus/pipeline-schedule/internal/presenters"
	"github.com/glizzus/pipeline-schedule/internal/repository"
	"github.com/glizzus/pipeline-schedule/internal/schedule"
	"github.com/glizzus/pipeline-schedule/internal/worker"
	"github.com/urfave/cli/v2"
)

type pipelineStore interface {
	Save(ctx context.Context, pipeline repository.Pipeline) error
	Get(ctx context.Context, id string) (repository.Pipeline, error)
	List(ctx context.Context) ([]repository.Pipeline, error)
	Delete(ctx context.Context, id string) error
	SetPaused(ctx context.Context, id string, paused bool) error
	StartRun(ctx context.Context, run repository.Run) error
	FinishRun(ctx context.Context, runID string, endTime time.Time) error
	ListRuns(ctx context.Context, pipelineID string, limit int) ([]repository.Run, error)
}

// env holds what commands share. Backing services are opened on first use
// so that conversion commands work without any of them configured.
type env struct {
	converter *schedule.Converter
	presenter *presenters.Presenter
	ids       generator.Generator[string]

	store   func(ctx context.Context) (pipelineStore, func(), error)
	blobs   func(ctx context.Context) (datalayer.BlobStorage, error)
	handler func(ctx context.Context) (worker.JobHandler, func(), error)
	pauser  func(ctx context.Context) (worker.Pauser, func(), error)
}

func (e *env) nextID() (string, error) {
	if e.ids == nil {
		e.ids = &generator.UUIDV4Generator{}
	}
	return e.ids.Next()
}

// notifyPaused mirrors a pipeline's paused state to the runners. The
// database stays authoritative, so failures are only logged.
func (e *env) notifyPaused(ctx context.Context, pipelineID string, paused bool) {
	pauser, closePauser, err := e.pauser(ctx)
	if err != nil {
		slog.Warn("runners were not told about paused pipeline", "pipelineID", pipelineID, "error", err)
		return
	}
	defer closePauser()
	if err := pauser.SetPaused(ctx, pipelineID, paused); err != nil {
		slog.Warn("runners were not told about paused pipeline", "pipelineID", pipelineID, "error", err)
	}
}

func newApp(e *env) *cli.App {
	return &cli.App{
		Name:  "schedctl",
		Usage: "Manage pipeline schedules and inspect run history",
		Commands: []*cli.Command{
			cronCommand(e),
			timeCommand(e),
			durationCommand(),
			pipelineCommand(e),
			runsCommand(e),
		},
	}
}

func openPostgresStore(ctx context.Context) (pipelineStore, func(), error) {
	pool, err := datalayer.NewPostgresPoolFromEnv(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := datalayer.MigratePostgres(pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}

	repo := repository.NewPostgresPipelineRepository(pool)
	if cfg, err := config.NewDispatcherConfigFromEnv(); err == nil {
		repo.Upcoming = cfg.Upcoming
	}
	return repo, pool.Close, nil
}

func openMinioStorage(ctx context.Context) (datalayer.BlobStorage, error) {
	storage, err := datalayer.NewMinioStorageFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create minio storage: %w", err)
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure minio bucket: %w", err)
	}
	return storage, nil
}

func openRedisHandler(ctx context.Context) (worker.JobHandler, func(), error) {
	handler, err := worker.NewRedisJobHandlerFromEnv(ctx)
	if err != nil {
		return nil, nil, err
	}
	return handler, func() { _ = handler.Close() }, nil
}

func openRedisPauser(ctx context.Context) (worker.Pauser, func(), error) {
	pauser, err := worker.NewRedisPauserFromEnv(ctx)
	if err != nil {
		return nil, nil, err
	}
	return pauser, func() { _ = pauser.Close() }, nil
}
