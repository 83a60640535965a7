package main

import (
	"log/slog"
	"os"

	"github.com/glizzus/pipeline-schedule/internal/config"
	"github.com/glizzus/pipeline-schedule/internal/presenters"
	"github.com/glizzus/pipeline-schedule/internal/schedule"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No .env file found, continuing without it")
		} else {
			slog.Error("failed to load .env file", slog.Any("error", err))
			os.Exit(1)
		}
	}

	display, err := config.NewDisplayFromEnv()
	if err != nil {
		slog.Error("failed to load display config", slog.Any("error", err))
		os.Exit(1)
	}

	converter := schedule.NewConverter(display.Location)
	app := newApp(&env{
		converter: converter,
		presenter: presenters.NewPresenter(converter, display.AttributionCutoff),
		store:     openPostgresStore,
		blobs:     openMinioStorage,
		handler:   openRedisHandler,
		pauser:    openRedisPauser,
	})

	if err := app.Run(os.Args); err != nil {
		slog.Error("schedctl failed", slog.Any("error", err))
		os.Exit(1)
	}
}
