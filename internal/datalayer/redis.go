package datalayer

import (
	"context"
	"fmt"

	"github.com/glizzus/pipeline-schedule/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClientFromEnv connects to the Redis server described by the
// REDIS_* environment variables and checks that it is reachable.
func NewRedisClientFromEnv(ctx context.Context) (*redis.Client, *config.RedisConfig, error) {
	cfg, err := config.NewRedisConfigFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load redis config: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, cfg, nil
}
