package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glizzus/pipeline-schedule/internal/datalayer"
	"github.com/redis/go-redis/v9"
)

// PipelineRunJob asks a pipeline runner to execute one scheduled run.
type PipelineRunJob struct {
	RunID      string
	PipelineID string
	Name       string
	Cron       string
	RunTime    time.Time
}

type JobHandler interface {
	HandleJobs(ctx context.Context, jobs ...PipelineRunJob) error
}

func jobLogAttrs(job PipelineRunJob) []any {
	return []any{
		slog.String("runID", job.RunID),
		slog.String("pipelineID", job.PipelineID),
		slog.String("pipelineName", job.Name),
		slog.String("cron", job.Cron),
		slog.String("runAt", job.RunTime.Format(time.RFC3339)),
	}
}

// PrintingJobHandler logs jobs instead of dispatching them.
type PrintingJobHandler struct{}

func (h *PrintingJobHandler) HandleJobs(ctx context.Context, jobs ...PipelineRunJob) error {
	for _, job := range jobs {
		slog.InfoContext(ctx, "Dispatching pipeline run", jobLogAttrs(job)...)
	}
	return nil
}

// MemoryJobHandler keeps every job it receives.
type MemoryJobHandler struct {
	mu   sync.Mutex
	jobs []PipelineRunJob
}

func (h *MemoryJobHandler) HandleJobs(ctx context.Context, jobs ...PipelineRunJob) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs = append(h.jobs, jobs...)
	return nil
}

func (h *MemoryJobHandler) Jobs() []PipelineRunJob {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]PipelineRunJob(nil), h.jobs...)
}

// RedisJobHandler appends jobs to a Redis stream read by pipeline runners
// through a consumer group.
type RedisJobHandler struct {
	client *redis.Client
	stream string
}

func NewRedisJobHandler(ctx context.Context, client *redis.Client, stream, group string) (*RedisJobHandler, error) {
	err := client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil && err != redis.Nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group %s on %s: %w", group, stream, err)
	}

	return &RedisJobHandler{client: client, stream: stream}, nil
}

// NewRedisJobHandlerFromEnv publishes to the stream and group named by the
// REDIS_* environment variables.
func NewRedisJobHandlerFromEnv(ctx context.Context) (*RedisJobHandler, error) {
	rdb, cfg, err := datalayer.NewRedisClientFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	handler, err := NewRedisJobHandler(ctx, rdb, cfg.Stream, cfg.Group)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return handler, nil
}

func (h *RedisJobHandler) Close() error {
	return h.client.Close()
}

func (h *RedisJobHandler) HandleJobs(ctx context.Context, jobs ...PipelineRunJob) error {
	_, err := h.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, job := range jobs {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: h.stream,
				Values: JobValues(job),
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish %d pipeline runs: %w", len(jobs), err)
	}
	return nil
}

// JobValues is the stream entry for a job.
func JobValues(job PipelineRunJob) map[string]any {
	return map[string]any{
		"runID":        job.RunID,
		"pipelineID":   job.PipelineID,
		"pipelineName": job.Name,
		"cron":         job.Cron,
		"runAt":        job.RunTime.UTC().Format(time.RFC3339),
	}
}

// JobFromValues decodes a stream entry written by RedisJobHandler.
func JobFromValues(values map[string]any) (PipelineRunJob, error) {
	field := func(name string) (string, error) {
		v, ok := values[name].(string)
		if !ok {
			return "", fmt.Errorf("stream entry is missing %s", name)
		}
		return v, nil
	}

	var job PipelineRunJob
	var err error
	if job.RunID, err = field("runID"); err != nil {
		return PipelineRunJob{}, err
	}
	if job.PipelineID, err = field("pipelineID"); err != nil {
		return PipelineRunJob{}, err
	}
	if job.Name, err = field("pipelineName"); err != nil {
		return PipelineRunJob{}, err
	}
	if job.Cron, err = field("cron"); err != nil {
		return PipelineRunJob{}, err
	}
	runAt, err := field("runAt")
	if err != nil {
		return PipelineRunJob{}, err
	}
	if job.RunTime, err = time.Parse(time.RFC3339, runAt); err != nil {
		return PipelineRunJob{}, fmt.Errorf("invalid runAt %q: %w", runAt, err)
	}
	return job, nil
}

var (
	_ JobHandler = (*PrintingJobHandler)(nil)
	_ JobHandler = (*MemoryJobHandler)(nil)
	_ JobHandler = (*RedisJobHandler)(nil)
)
