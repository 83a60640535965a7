package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/glizzus/pipeline-schedule/internal/worker"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestJobValues(t *testing.T) {
	job := worker.PipelineRunJob{
		RunID:      "run-1",
		PipelineID: "p1",
		Name:       "Rollup",
		Cron:       "0 1 * * *",
		RunTime:    time.Date(2024, 11, 4, 1, 0, 0, 0, time.UTC),
	}

	got, err := worker.JobFromValues(worker.JobValues(job))
	if err != nil {
		t.Fatalf("JobFromValues returned error: %v", err)
	}
	if diff := cmp.Diff(job, got); diff != "" {
		t.Errorf("job mismatch (-want +got):\n%s", diff)
	}
}

func TestJobFromValuesMissingField(t *testing.T) {
	values := map[string]any{
		"runID":      "run-1",
		"pipelineID": "p1",
		"cron":       "0 1 * * *",
		"runAt":      "2024-11-04T01:00:00Z",
	}
	if _, err := worker.JobFromValues(values); err == nil {
		t.Error("expected an error for an entry without pipelineName")
	}

	values["pipelineName"] = "Rollup"
	values["runAt"] = "yesterday"
	if _, err := worker.JobFromValues(values); err == nil {
		t.Error("expected an error for an unparseable runAt")
	}
}

func TestMemoryJobHandler(t *testing.T) {
	handler := &worker.MemoryJobHandler{}
	jobs := []worker.PipelineRunJob{{RunID: "run-1"}, {RunID: "run-2"}}

	if err := handler.HandleJobs(t.Context(), jobs[0]); err != nil {
		t.Fatal(err)
	}
	if err := handler.HandleJobs(t.Context(), jobs[1]); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(jobs, handler.Jobs()); diff != "" {
		t.Errorf("jobs mismatch (-want +got):\n%s", diff)
	}
}

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := t.Context()

	redisContainer, err := tcredis.Run(ctx, "redis:7")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := redisContainer.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate redis container: %v", err)
		}
	})

	connStr, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	opts, err := redis.ParseURL(connStr)
	if err != nil {
		t.Fatalf("failed to parse redis url %q: %v", connStr, err)
	}

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisJobHandler(t *testing.T) {
	ctx := t.Context()
	client := startRedis(t)

	const (
		stream = "pipeline_runs"
		group  = "pipeline_runners"
	)

	handler, err := worker.NewRedisJobHandler(ctx, client, stream, group)
	if err != nil {
		t.Fatalf("NewRedisJobHandler returned error: %v", err)
	}
	if _, err := worker.NewRedisJobHandler(ctx, client, stream, group); err != nil {
		t.Fatalf("NewRedisJobHandler with an existing group returned error: %v", err)
	}

	jobs := []worker.PipelineRunJob{
		{RunID: "run-1", PipelineID: "p1", Name: "Rollup", Cron: "0 1 * * *", RunTime: time.Date(2024, 11, 4, 1, 0, 0, 0, time.UTC)},
		{RunID: "run-2", PipelineID: "p2", Name: "Export", Cron: "30 2 * * 1", RunTime: time.Date(2024, 11, 4, 2, 30, 0, 0, time.UTC)},
	}
	if err := handler.HandleJobs(ctx, jobs...); err != nil {
		t.Fatalf("HandleJobs returned error: %v", err)
	}

	streams, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: "runner-1",
		Streams:  []string{stream, ">"},
		Count:    10,
		Block:    time.Second,
	}).Result()
	if err != nil {
		t.Fatalf("XReadGroup returned error: %v", err)
	}
	if len(streams) != 1 {
		t.Fatalf("XReadGroup returned %d streams; want 1", len(streams))
	}

	var got []worker.PipelineRunJob
	for _, message := range streams[0].Messages {
		job, err := worker.JobFromValues(message.Values)
		if err != nil {
			t.Fatalf("JobFromValues(%v) returned error: %v", message.Values, err)
		}
		got = append(got, job)
	}
	if diff := cmp.Diff(jobs, got); diff != "" {
		t.Errorf("published jobs mismatch (-want +got):\n%s", diff)
	}
}

func TestRedisPauser(t *testing.T) {
	ctx := t.Context()
	pauser := worker.NewRedisPauser(startRedis(t))

	if err := pauser.SetPaused(ctx, "p1", true); err != nil {
		t.Fatalf("SetPaused(true) returned error: %v", err)
	}
	// Pausing twice is harmless.
	if err := pauser.SetPaused(ctx, "p1", true); err != nil {
		t.Fatalf("SetPaused(true) again returned error: %v", err)
	}

	for id, want := range map[string]bool{"p1": true, "p2": false} {
		got, err := pauser.IsPaused(ctx, id)
		if err != nil {
			t.Fatalf("IsPaused(%q) returned error: %v", id, err)
		}
		if got != want {
			t.Errorf("IsPaused(%q) = %t; want %t", id, got, want)
		}
	}

	if err := pauser.SetPaused(ctx, "p1", false); err != nil {
		t.Fatalf("SetPaused(false) returned error: %v", err)
	}
	if paused, err := pauser.IsPaused(ctx, "p1"); err != nil || paused {
		t.Errorf("IsPaused(%q) after resume = %t, %v; want false, nil", "p1", paused, err)
	}
}

func TestMemoryPauser(t *testing.T) {
	ctx := t.Context()
	pauser := worker.NewMemoryPauser()

	_ = pauser.SetPaused(ctx, "p1", true)
	if paused, _ := pauser.IsPaused(ctx, "p1"); !paused {
		t.Error("p1 is not paused after SetPaused(true)")
	}
	_ = pauser.SetPaused(ctx, "p1", false)
	if paused, _ := pauser.IsPaused(ctx, "p1"); paused {
		t.Error("p1 is still paused after SetPaused(false)")
	}
}
