package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glizzus/pipeline-schedule/internal/generator"
	"github.com/glizzus/pipeline-schedule/internal/repository"
	"github.com/glizzus/pipeline-schedule/internal/runs"
	"github.com/glizzus/pipeline-schedule/internal/schedule"
)

// DispatchStore is the part of the pipeline repository the dispatcher needs.
type DispatchStore interface {
	Pull(ctx context.Context, before time.Time) ([]repository.DueJob, error)
	Reschedule(ctx context.Context, pipelineID string, after time.Time) error
	// Requeue returns claimed jobs to the queue so a later tick claims them again.
	Requeue(ctx context.Context, pipelineID string, runTimes ...time.Time) error
	StartRun(ctx context.Context, run repository.Run) error
}

// Dispatcher claims due pipeline runs and hands them to a JobHandler.
// A run is recorded once its job has been handed off. Jobs that cannot be
// handed off, including those still waiting for their run time when the
// context is cancelled, are requeued.
type Dispatcher struct {
	Store   DispatchStore
	Handler JobHandler
	IDs     generator.Generator[string]

	// Lookahead is how far past now a tick claims jobs. Claimed jobs that
	// are not yet due are handed off when their run time is reached.
	Lookahead time.Duration
	Now       func() time.Time

	waiting sync.WaitGroup
}

func NewDispatcher(store DispatchStore, handler JobHandler, lookahead time.Duration) *Dispatcher {
	return &Dispatcher{
		Store:     store,
		Handler:   handler,
		IDs:       &generator.UUIDV4Generator{},
		Lookahead: lookahead,
		Now:       time.Now,
	}
}

func (d *Dispatcher) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// Tick dispatches every job due before now plus the lookahead. It returns
// how many runs were handed off or scheduled for hand off.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	now := d.now()
	horizon := now.Add(d.Lookahead)

	due, err := d.Store.Pull(ctx, horizon)
	if err != nil {
		return 0, fmt.Errorf("failed to pull due jobs: %w", err)
	}

	rescheduled := make(map[string]bool)
	var ready, later []PipelineRunJob

	for _, job := range due {
		if !rescheduled[job.PipelineID] {
			rescheduled[job.PipelineID] = true
			d.reschedule(ctx, job.PipelineID, horizon)
		}

		if job.Paused {
			slog.Info(
				"skipping paused pipeline",
				slog.String("pipelineID", job.PipelineID),
				slog.String("runAt", job.RunTime.Format(time.RFC3339)),
			)
			continue
		}

		runID, err := d.IDs.Next()
		if err != nil {
			slog.Error(
				"failed to generate run id",
				slog.String("pipelineID", job.PipelineID),
				slog.Any("error", err),
			)
			d.requeue(ctx, job.PipelineID, job.RunTime)
			continue
		}

		runJob := PipelineRunJob{
			RunID:      runID,
			PipelineID: job.PipelineID,
			Name:       job.Name,
			Cron:       job.Cron,
			RunTime:    job.RunTime,
		}
		if runJob.RunTime.After(now) {
			later = append(later, runJob)
		} else {
			ready = append(ready, runJob)
		}
	}

	dispatched := len(later)
	var handErr error
	if len(ready) > 0 {
		if handErr = d.handOff(ctx, ready...); handErr == nil {
			dispatched += len(ready)
		}
	}

	for _, job := range later {
		d.handOffAt(ctx, job)
	}

	if handErr != nil {
		return dispatched, fmt.Errorf("failed to hand off %d pipeline runs: %w", len(ready), handErr)
	}
	return dispatched, nil
}

// Wait blocks until every job scheduled by Tick has been handed off or requeued.
func (d *Dispatcher) Wait() {
	d.waiting.Wait()
}

// handOff passes jobs to the handler and records a run for each of them.
// If the handler fails, the jobs are requeued.
func (d *Dispatcher) handOff(ctx context.Context, jobs ...PipelineRunJob) error {
	if err := d.Handler.HandleJobs(ctx, jobs...); err != nil {
		for _, job := range jobs {
			d.requeue(ctx, job.PipelineID, job.RunTime)
		}
		return err
	}

	ctx = context.WithoutCancel(ctx)
	for _, job := range jobs {
		d.recordRun(ctx, job)
	}
	return nil
}

func (d *Dispatcher) handOffAt(ctx context.Context, job PipelineRunJob) {
	d.waiting.Add(1)
	schedule.RunAtOr(ctx, job.RunTime,
		func(ctx context.Context) {
			defer d.waiting.Done()
			if err := d.handOff(ctx, job); err != nil {
				attrs := append(jobLogAttrs(job), slog.Any("error", err))
				slog.Error("failed to hand off pipeline run", attrs...)
			}
		},
		func() {
			defer d.waiting.Done()
			d.requeue(ctx, job.PipelineID, job.RunTime)
		},
	)
}

func (d *Dispatcher) requeue(ctx context.Context, pipelineID string, runTime time.Time) {
	attrs := []any{
		slog.String("pipelineID", pipelineID),
		slog.String("runAt", runTime.Format(time.RFC3339)),
	}
	if err := d.Store.Requeue(context.WithoutCancel(ctx), pipelineID, runTime); err != nil {
		slog.Error("failed to requeue pipeline run", append(attrs, slog.Any("error", err))...)
		return
	}
	slog.Info("requeued pipeline run", attrs...)
}

func (d *Dispatcher) reschedule(ctx context.Context, pipelineID string, after time.Time) {
	err := d.Store.Reschedule(ctx, pipelineID, after)
	if errors.Is(err, repository.ErrPipelineNotFound) {
		slog.Debug("pipeline removed before reschedule", slog.String("pipelineID", pipelineID))
		return
	}
	if err != nil {
		slog.Error(
			"failed to reschedule pipeline",
			slog.String("pipelineID", pipelineID),
			slog.Any("error", err),
		)
	}
}

// recordRun stores the run of a job that has already been handed off.
// A failure is logged and the job is not requeued.
func (d *Dispatcher) recordRun(ctx context.Context, job PipelineRunJob) {
	err := d.Store.StartRun(ctx, repository.Run{
		ID:          job.RunID,
		PipelineID:  job.PipelineID,
		StartTime:   job.RunTime,
		TriggeredBy: runs.SystemUser,
	})
	if err != nil {
		attrs := append(jobLogAttrs(job), slog.Any("error", err))
		slog.Error("failed to record pipeline run", attrs...)
	}
}

// Run ticks every interval until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		started, err := d.Tick(ctx)
		if err != nil {
			slog.Error("dispatch tick failed", slog.Any("error", err))
		} else if started > 0 {
			slog.Info("dispatched pipeline runs", slog.Int("count", started))
		}

		select {
		case <-ctx.Done():
			d.Wait()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
