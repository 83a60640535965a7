package repository

import (
	"context"
	"fmt"
	"time"
)

// Run is one execution of a pipeline. EndTime is nil while it is running.
type Run struct {
	ID          string
	PipelineID  string
	StartTime   time.Time
	EndTime     *time.Time
	TriggeredBy string
}

// RunRecorder tracks pipeline runs.
type RunRecorder interface {
	StartRun(ctx context.Context, run Run) error
	FinishRun(ctx context.Context, runID string, endTime time.Time) error
}

func (r *PostgresPipelineRepository) StartRun(ctx context.Context, run Run) error {
	const query = `
	INSERT INTO pipeline_run (id, pipeline_id, start_time, end_time, triggered_by)
	VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query, run.ID, run.PipelineID, run.StartTime.UTC(), run.EndTime, run.TriggeredBy)
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

func (r *PostgresPipelineRepository) FinishRun(ctx context.Context, runID string, endTime time.Time) error {
	const query = `
	UPDATE pipeline_run SET end_time = $2
	WHERE id = $1 AND end_time IS NULL
	`

	tag, err := r.db.Exec(ctx, query, runID, endTime.UTC())
	if err != nil {
		return fmt.Errorf("failed to record run end: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// ListRuns returns up to limit runs of a pipeline, most recent first.
func (r *PostgresPipelineRepository) ListRuns(ctx context.Context, pipelineID string, limit int) ([]Run, error) {
	const query = `
	SELECT id::text, pipeline_id::text, start_time, end_time, triggered_by
	FROM pipeline_run
	WHERE pipeline_id = $1
	ORDER BY start_time DESC
	LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, pipelineID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.PipelineID, &run.StartTime, &run.EndTime, &run.TriggeredBy); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

var _ RunRecorder = (*PostgresPipelineRepository)(nil)
