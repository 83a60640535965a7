package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glizzus/pipeline-schedule/internal/schedule"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultUpcomingRuns is how many future run times are materialized per
// scheduled pipeline.
const DefaultUpcomingRuns = 5

var (
	ErrPipelineNotFound = errors.New("pipeline not found")
	ErrRunNotFound      = errors.New("run not found or already finished")
)

// Pipeline is a stored pipeline schedule. Cron is a UTC expression, or
// empty for pipelines that only run manually.
type Pipeline struct {
	ID     string
	Name   string
	Cron   string
	Paused bool
}

// DueJob is a materialized run time that has been claimed for dispatch.
type DueJob struct {
	PipelineID string
	Name       string
	Cron       string
	Paused     bool
	RunTime    time.Time
}

type PipelinePersister interface {
	Save(ctx context.Context, pipeline Pipeline) error
}

type PostgresPipelineRepository struct {
	db *pgxpool.Pool

	// Upcoming overrides DefaultUpcomingRuns when positive.
	Upcoming int
}

func NewPostgresPipelineRepository(db *pgxpool.Pool) *PostgresPipelineRepository {
	return &PostgresPipelineRepository{db: db}
}

func (r *PostgresPipelineRepository) upcoming() int {
	if r.Upcoming > 0 {
		return r.Upcoming
	}
	return DefaultUpcomingRuns
}

func PipelineToRowParams(pipeline Pipeline) []any {
	return []any{
		pipeline.ID,
		pipeline.Name,
		pipeline.Cron,
		pipeline.Paused,
	}
}

// Save upserts a pipeline and replaces its pending run times with the next
// few times its cron expression fires.
func (r *PostgresPipelineRepository) Save(ctx context.Context, pipeline Pipeline) error {
	const pipelineQuery = `
	INSERT INTO pipeline (id, pipeline_name, cron, paused)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		pipeline_name = EXCLUDED.pipeline_name,
		cron = EXCLUDED.cron,
		paused = EXCLUDED.paused
	`

	var upcoming []time.Time
	if pipeline.Cron != "" {
		times, err := schedule.NextRunTimes(pipeline.Cron, r.upcoming())
		if err != nil {
			return fmt.Errorf("failed to get next run times: %w", err)
		}
		upcoming = times
	}

	const clearJobsQuery = `DELETE FROM pipeline_job WHERE pipeline_id = $1`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := tx.Exec(ctx, pipelineQuery, PipelineToRowParams(pipeline)...); err != nil {
		return fmt.Errorf("failed to execute pipeline query: %w", err)
	}

	if _, err := tx.Exec(ctx, clearJobsQuery, pipeline.ID); err != nil {
		return fmt.Errorf("failed to clear pending jobs: %w", err)
	}

	if err := insertJobs(ctx, tx, pipeline.ID, upcoming); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Reschedule materializes the next run times after the given time for a
// pipeline, keeping run times that are already pending.
func (r *PostgresPipelineRepository) Reschedule(ctx context.Context, pipelineID string, after time.Time) error {
	pipeline, err := r.Get(ctx, pipelineID)
	if err != nil {
		return err
	}
	if pipeline.Cron == "" {
		return nil
	}

	upcoming, err := schedule.NextRunTimesAfter(pipeline.Cron, after.UTC(), r.upcoming())
	if err != nil {
		return fmt.Errorf("failed to get next run times: %w", err)
	}
	return insertJobs(ctx, r.db, pipelineID, upcoming)
}

// Requeue inserts jobs for pipelineID at runTimes. Jobs that already exist
// are left alone.
func (r *PostgresPipelineRepository) Requeue(ctx context.Context, pipelineID string, runTimes ...time.Time) error {
	utc := make([]time.Time, len(runTimes))
	for i, runTime := range runTimes {
		utc[i] = runTime.UTC()
	}
	return insertJobs(ctx, r.db, pipelineID, utc)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertJobs(ctx context.Context, db execer, pipelineID string, runTimes []time.Time) error {
	if len(runTimes) == 0 {
		return nil
	}

	const jobsQuery = `
	INSERT INTO pipeline_job (pipeline_id, run_time)
	SELECT $1, unnest($2::timestamptz[])
	ON CONFLICT (pipeline_id, run_time) DO NOTHING
	`

	if _, err := db.Exec(ctx, jobsQuery, pipelineID, runTimes); err != nil {
		return fmt.Errorf("failed to execute pipeline jobs query: %w", err)
	}
	return nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Warn("failed to rollback transaction", "error", err)
	}
}

func (r *PostgresPipelineRepository) Get(ctx context.Context, id string) (Pipeline, error) {
	const query = `
	SELECT id::text, pipeline_name, cron, paused
	FROM pipeline
	WHERE id = $1
	`

	var pipeline Pipeline
	err := r.db.QueryRow(ctx, query, id).Scan(&pipeline.ID, &pipeline.Name, &pipeline.Cron, &pipeline.Paused)
	if errors.Is(err, pgx.ErrNoRows) {
		return Pipeline{}, fmt.Errorf("%w: %s", ErrPipelineNotFound, id)
	}
	if err != nil {
		return Pipeline{}, fmt.Errorf("failed to get pipeline: %w", err)
	}
	return pipeline, nil
}

func (r *PostgresPipelineRepository) List(ctx context.Context) ([]Pipeline, error) {
	const query = `
	SELECT id::text, pipeline_name, cron, paused
	FROM pipeline
	ORDER BY pipeline_name, id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}
	defer rows.Close()

	var pipelines []Pipeline
	for rows.Next() {
		var pipeline Pipeline
		if err := rows.Scan(&pipeline.ID, &pipeline.Name, &pipeline.Cron, &pipeline.Paused); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline: %w", err)
		}
		pipelines = append(pipelines, pipeline)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}
	return pipelines, nil
}

// Delete removes a pipeline together with its pending jobs and run history.
func (r *PostgresPipelineRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pipeline WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pipeline: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrPipelineNotFound, id)
	}
	return nil
}

func (r *PostgresPipelineRepository) SetPaused(ctx context.Context, id string, paused bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE pipeline SET paused = $2 WHERE id = $1`, id, paused)
	if err != nil {
		return fmt.Errorf("failed to update pipeline: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrPipelineNotFound, id)
	}
	return nil
}

// Pull claims every pending job due at or before the given time. Claimed
// jobs are removed so that concurrent dispatchers never see the same job.
func (r *PostgresPipelineRepository) Pull(ctx context.Context, before time.Time) ([]DueJob, error) {
	const query = `
	DELETE FROM pipeline_job j
	USING pipeline p
	WHERE j.pipeline_id = p.id AND j.run_time <= $1
	RETURNING p.id::text, p.pipeline_name, p.cron, p.paused, j.run_time
	`

	rows, err := r.db.Query(ctx, query, before.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to pull due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []DueJob
	for rows.Next() {
		var job DueJob
		if err := rows.Scan(&job.PipelineID, &job.Name, &job.Cron, &job.Paused, &job.RunTime); err != nil {
			return nil, fmt.Errorf("failed to scan due job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to pull due jobs: %w", err)
	}
	return jobs, nil
}

var _ PipelinePersister = (*PostgresPipelineRepository)(nil)
