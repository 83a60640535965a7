package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/glizzus/pipeline-schedule/internal/datalayer"
	"github.com/redis/go-redis/v9"
)

// PausedPipelinesKey is the Redis set of pipelines whose queued runs
// should be skipped by runners.
const PausedPipelinesKey = "paused_pipelines"

// Pauser tells runners about paused pipelines. Runs already published to
// the stream are not withdrawn, so runners check IsPaused before starting.
type Pauser interface {
	SetPaused(ctx context.Context, pipelineID string, paused bool) error
	IsPaused(ctx context.Context, pipelineID string) (bool, error)
}

type RedisPauser struct {
	client *redis.Client
}

func NewRedisPauser(client *redis.Client) *RedisPauser {
	return &RedisPauser{client: client}
}

func NewRedisPauserFromEnv(ctx context.Context) (*RedisPauser, error) {
	rdb, _, err := datalayer.NewRedisClientFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	return NewRedisPauser(rdb), nil
}

func (p *RedisPauser) SetPaused(ctx context.Context, pipelineID string, paused bool) error {
	var err error
	if paused {
		err = p.client.SAdd(ctx, PausedPipelinesKey, pipelineID).Err()
	} else {
		err = p.client.SRem(ctx, PausedPipelinesKey, pipelineID).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to mark pipeline %s paused=%t: %w", pipelineID, paused, err)
	}
	return nil
}

func (p *RedisPauser) IsPaused(ctx context.Context, pipelineID string) (bool, error) {
	paused, err := p.client.SIsMember(ctx, PausedPipelinesKey, pipelineID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check pipeline %s: %w", pipelineID, err)
	}
	return paused, nil
}

func (p *RedisPauser) Close() error {
	return p.client.Close()
}

type MemoryPauser struct {
	mu     sync.Mutex
	paused map[string]struct{}
}

func NewMemoryPauser() *MemoryPauser {
	return &MemoryPauser{paused: make(map[string]struct{})}
}

func (p *MemoryPauser) SetPaused(ctx context.Context, pipelineID string, paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if paused {
		p.paused[pipelineID] = struct{}{}
	} else {
		delete(p.paused, pipelineID)
	}
	return nil
}

func (p *MemoryPauser) IsPaused(ctx context.Context, pipelineID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.paused[pipelineID]
	return ok, nil
}

var (
	_ Pauser = (*RedisPauser)(nil)
	_ Pauser = (*MemoryPauser)(nil)
)
