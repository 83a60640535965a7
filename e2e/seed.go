package e2e

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glizzus/pipeline-schedule/internal/datalayer"
	"github.com/glizzus/pipeline-schedule/internal/generator"
	"github.com/glizzus/pipeline-schedule/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var seedOnce sync.Once

// SeedGlobalNoise fills the shared database with pipelines that run every
// five minutes, so tests see jobs from pipelines other than their own.
func SeedGlobalNoise(t *testing.T, repo *repository.PostgresPipelineRepository) {
	t.Helper()
	seedOnce.Do(func() {
		ids := generator.UUIDV4Generator{}
		for i := range 50 {
			id, _ := ids.Next()
			pipeline := repository.Pipeline{
				ID:   id,
				Name: fmt.Sprintf("noise-pipeline-%d", i),
				Cron: "*/5 * * * *",
			}
			if err := repo.Save(t.Context(), pipeline); err != nil {
				t.Fatalf("failed to save pipeline: %v", err)
			}
		}
	})
}

var (
	once              sync.Once
	postgresContainer *postgres.PostgresContainer
	connStr           string
	startErr          error
	wg                sync.WaitGroup
)

// UsePostgres signals that the test is using Postgres as its database.
// This will either provision or reuse a Postgres container for the test.
// Do not expect a clean state in the database; it is shared across tests
// to simulate real-world usage.
func UsePostgres(t *testing.T) string {
	t.Helper()

	once.Do(func() {
		ctx := context.Background()
		postgresContainer, startErr = postgres.Run(
			ctx,
			"postgres",
			postgres.WithDatabase("pipelines"),
			postgres.WithUsername("user"),
			postgres.WithPassword("password"),
			postgres.BasicWaitStrategies(),
		)
		if startErr != nil {
			return
		}
		connStr, startErr = postgresContainer.ConnectionString(ctx, "sslmode=disable")
		if startErr != nil {
			return
		}

		var pool *pgxpool.Pool
		pool, startErr = pgxpool.New(ctx, connStr)
		if startErr != nil {
			return
		}
		defer pool.Close()

		startErr = datalayer.MigratePostgres(pool)
	})

	if startErr != nil {
		t.Fatalf("failed to start postgres container: %v", startErr)
	}
	wg.Add(1)
	t.Cleanup(wg.Done)

	return connStr
}

// GetRepository creates a new PostgresPipelineRepository for testing.
// It uses the provided connection string to connect to the database.
// It performs no modifications or migrations on the database schema.
func GetRepository(t *testing.T, connStr string) *repository.PostgresPipelineRepository {
	t.Helper()
	pool, err := pgxpool.New(t.Context(), connStr)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}

	t.Cleanup(pool.Close)
	return repository.NewPostgresPipelineRepository(pool)
}

func TerminatePostgresForE2E() {
	wg.Wait()
	if postgresContainer != nil {
		err := postgresContainer.Terminate(context.Background())
		if err != nil {
			fmt.Printf("failed to terminate postgres container: %v", err)
		}
	}
}

var (
	redisOnce      sync.Once
	redisContainer *tcredis.RedisContainer
	redisURL       string
	redisErr       error
	redisWG        sync.WaitGroup
)

// UseRedis provisions or reuses a Redis container and returns a client
// connected to it. Like Postgres, its state is shared across tests.
func UseRedis(t *testing.T) *redis.Client {
	t.Helper()

	redisOnce.Do(func() {
		ctx := context.Background()
		redisContainer, redisErr = tcredis.Run(ctx, "redis:7")
		if redisErr != nil {
			return
		}
		redisURL, redisErr = redisContainer.ConnectionString(ctx)
	})

	if redisErr != nil {
		t.Fatalf("failed to start redis container: %v", redisErr)
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("failed to parse redis url %q: %v", redisURL, err)
	}

	client := redis.NewClient(opts)
	redisWG.Add(1)
	t.Cleanup(func() {
		_ = client.Close()
		redisWG.Done()
	})
	return client
}

func TerminateRedisForE2E() {
	redisWG.Wait()
	if redisContainer != nil {
		err := redisContainer.Terminate(context.Background())
		if err != nil {
			fmt.Printf("failed to terminate redis container: %v", err)
		}
	}
}
