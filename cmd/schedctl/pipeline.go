package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glizzus/pipeline-schedule/internal/datalayer"
	"github.com/glizzus/pipeline-schedule/internal/presenters"
	"github.com/glizzus/pipeline-schedule/internal/repository"
	"github.com/glizzus/pipeline-schedule/internal/schedule"
	"github.com/glizzus/pipeline-schedule/internal/worker"
	"github.com/urfave/cli/v2"
)

// withStore opens the pipeline store for the duration of action.
func withStore(e *env, action func(c *cli.Context, store pipelineStore) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, closeStore, err := e.store(c.Context)
		if err != nil {
			return err
		}
		defer closeStore()
		return action(c, store)
	}
}

func idArg(c *cli.Context, what string) (string, error) {
	id := c.Args().First()
	if id == "" {
		return "", fmt.Errorf("a %s ID is required", what)
	}
	return id, nil
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"}
}

func writeJSON(c *cli.Context, v any) error {
	encoder := json.NewEncoder(c.App.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func pipelineCommand(e *env) *cli.Command {
	setPaused := func(paused bool) cli.ActionFunc {
		return withStore(e, func(c *cli.Context, store pipelineStore) error {
			id, err := idArg(c, "pipeline")
			if err != nil {
				return err
			}
			if err := store.SetPaused(c.Context, id, paused); err != nil {
				return err
			}
			e.notifyPaused(c.Context, id, paused)
			state := "resumed"
			if paused {
				state = "paused"
			}
			fmt.Fprintf(c.App.Writer, "Pipeline %s %s\n", id, state)
			return nil
		})
	}

	return &cli.Command{
		Name:  "pipeline",
		Usage: "Manage scheduled pipelines",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a pipeline, or update one when --id is given",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "pipeline name", Required: true},
					&cli.StringFlag{Name: "id", Usage: "ID of an existing pipeline to update"},
					&cli.StringFlag{Name: "cron", Usage: "UTC cron expression; overrides the schedule flags"},
				}, scheduleFlags()...),
				Action: withStore(e, func(c *cli.Context, store pipelineStore) error {
					cron := c.String("cron")
					if cron == "" {
						var err error
						if cron, err = cronFromFlags(c, e.converter); err != nil {
							return err
						}
					}
					if cron != "" {
						if err := schedule.ValidateCron(cron); err != nil {
							return err
						}
					}

					pipeline := repository.Pipeline{ID: c.String("id"), Name: c.String("name"), Cron: cron}
					if pipeline.ID == "" {
						id, err := e.nextID()
						if err != nil {
							return fmt.Errorf("failed to generate pipeline id: %w", err)
						}
						pipeline.ID = id
					} else {
						existing, err := store.Get(c.Context, pipeline.ID)
						if err != nil {
							return err
						}
						pipeline.Paused = existing.Paused
					}
					if err := store.Save(c.Context, pipeline); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Saved pipeline %s: %s\n", pipeline.ID, e.converter.CronToHumanString(cron))
					return nil
				}),
			},
			{
				Name:  "list",
				Usage: "List pipelines with their schedules in local time",
				Flags: []cli.Flag{jsonFlag()},
				Action: withStore(e, func(c *cli.Context, store pipelineStore) error {
					pipelines, err := store.List(c.Context)
					if err != nil {
						return err
					}
					rows := e.presenter.PipelineRows(pipelines)
					if c.Bool("json") {
						return writeJSON(c, rows)
					}
					return presenters.WritePipelineTable(c.App.Writer, rows)
				}),
			},
			{
				Name:      "rm",
				Usage:     "Delete a pipeline and its run history",
				ArgsUsage: "<pipeline-id>",
				Action: withStore(e, func(c *cli.Context, store pipelineStore) error {
					id, err := idArg(c, "pipeline")
					if err != nil {
						return err
					}
					if err := store.Delete(c.Context, id); err != nil {
						return err
					}
					e.notifyPaused(c.Context, id, true)
					fmt.Fprintf(c.App.Writer, "Deleted pipeline %s\n", id)
					return nil
				}),
			},
			{
				Name:      "pause",
				Usage:     "Stop dispatching scheduled runs of a pipeline",
				ArgsUsage: "<pipeline-id>",
				Action:    setPaused(true),
			},
			{
				Name:      "resume",
				Usage:     "Resume dispatching scheduled runs of a pipeline",
				ArgsUsage: "<pipeline-id>",
				Action:    setPaused(false),
			},
		},
	}
}

func runsCommand(e *env) *cli.Command {
	limitFlag := func() cli.Flag {
		return &cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum number of runs"}
	}

	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect and record pipeline runs",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List the most recent runs of a pipeline",
				ArgsUsage: "<pipeline-id>",
				Flags:     []cli.Flag{limitFlag(), jsonFlag()},
				Action: withStore(e, func(c *cli.Context, store pipelineStore) error {
					id, err := idArg(c, "pipeline")
					if err != nil {
						return err
					}
					history, err := store.ListRuns(c.Context, id, c.Int("limit"))
					if err != nil {
						return err
					}
					rows := e.presenter.RunRows(history)
					if c.Bool("json") {
						return writeJSON(c, rows)
					}
					return presenters.WriteRunTable(c.App.Writer, rows)
				}),
			},
			{
				Name:      "export",
				Usage:     "Upload the run history of a pipeline to object storage",
				ArgsUsage: "<pipeline-id>",
				Flags:     []cli.Flag{limitFlag()},
				Action: withStore(e, func(c *cli.Context, store pipelineStore) error {
					id, err := idArg(c, "pipeline")
					if err != nil {
						return err
					}
					history, err := store.ListRuns(c.Context, id, c.Int("limit"))
					if err != nil {
						return err
					}
					data, err := e.presenter.RunHistoryJSON(id, history)
					if err != nil {
						return err
					}

					blobs, err := e.blobs(c.Context)
					if err != nil {
						return err
					}
					key := exportKey(id, e.converter.LocalNow())
					err = blobs.Put(c.Context, key, bytes.NewReader(data), datalayer.PutOptions{
						Size:        int64(len(data)),
						ContentType: "application/json",
					})
					if err != nil {
						return fmt.Errorf("failed to upload run history: %w", err)
					}
					fmt.Fprintf(c.App.Writer, "Exported %d runs to %s\n", len(history), key)
					return nil
				}),
			},
			{
				Name:      "start",
				Usage:     "Start a run of a pipeline now and hand it to the runners",
				ArgsUsage: "<pipeline-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "who triggered the run", Required: true},
				},
				Action: withStore(e, func(c *cli.Context, store pipelineStore) error {
					id, err := idArg(c, "pipeline")
					if err != nil {
						return err
					}
					pipeline, err := store.Get(c.Context, id)
					if err != nil {
						return err
					}
					runID, err := e.nextID()
					if err != nil {
						return fmt.Errorf("failed to generate run id: %w", err)
					}

					handler, closeHandler, err := e.handler(c.Context)
					if err != nil {
						return err
					}
					defer closeHandler()

					now := e.converter.LocalNow().UTC()
					err = store.StartRun(c.Context, repository.Run{
						ID:          runID,
						PipelineID:  pipeline.ID,
						StartTime:   now,
						TriggeredBy: c.String("user"),
					})
					if err != nil {
						return err
					}
					err = handler.HandleJobs(c.Context, worker.PipelineRunJob{
						RunID:      runID,
						PipelineID: pipeline.ID,
						Name:       pipeline.Name,
						Cron:       pipeline.Cron,
						RunTime:    now,
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Started run %s of %s\n", runID, pipeline.Name)
					return nil
				}),
			},
			{
				Name:      "finish",
				Usage:     "Mark a run as finished",
				ArgsUsage: "<run-id>",
				Action: withStore(e, func(c *cli.Context, store pipelineStore) error {
					id, err := idArg(c, "run")
					if err != nil {
						return err
					}
					if err := store.FinishRun(c.Context, id, e.converter.LocalNow().UTC()); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Finished run %s\n", id)
					return nil
				}),
			},
		},
	}
}

func exportKey(pipelineID string, at time.Time) string {
	return fmt.Sprintf("runs/%s/%s.json", pipelineID, at.UTC().Format("20060102T150405Z"))
}
