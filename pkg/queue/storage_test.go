package queue_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subscribe/pkg/pg"
	"github.com/dmitrymomot/subscribe/pkg/queue"
	redisconn "github.com/dmitrymomot/subscribe/pkg/redis"
)

// testStorageContract checks behaviour every backend must share.
// Each run uses a fresh queue name so backends with shared state stay isolated.
func testStorageContract(t *testing.T, storage queue.Storage) {
	t.Helper()

	ctx := context.Background()
	q := "contract-" + uuid.NewString()
	workerID := uuid.New()

	_, err := storage.ClaimTask(ctx, workerID, []string{q}, time.Minute)
	require.ErrorIs(t, err, queue.ErrNoTaskToClaim)

	first := newTask(q, time.Now().Add(-time.Minute))
	second := newTask(q, time.Now().Add(-time.Second))
	require.NoError(t, storage.CreateTask(ctx, second))
	require.NoError(t, storage.CreateTask(ctx, first))
	assert.ErrorIs(t, storage.CreateTask(ctx, first), queue.ErrTaskExists)

	n, err := storage.CountTasks(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	claimed, err := storage.ClaimTask(ctx, workerID, []string{q}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, first.ID, claimed.ID)
	assert.Equal(t, queue.TaskStatusProcessing, claimed.Status)

	assert.ErrorIs(t, storage.CompleteTask(ctx, second.ID), queue.ErrTaskNotProcessing)
	require.NoError(t, storage.CompleteTask(ctx, first.ID))
	assert.ErrorIs(t, storage.CompleteTask(ctx, first.ID), queue.ErrTaskNotFound)

	claimed, err = storage.ClaimTask(ctx, workerID, []string{q}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, second.ID, claimed.ID)

	// Retry is scheduled in the future, so nothing is claimable right away
	require.NoError(t, storage.FailTask(ctx, second.ID, "boom"))
	_, err = storage.ClaimTask(ctx, workerID, []string{q}, time.Minute)
	assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)

	n, err = storage.CountTasks(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, storage.MoveToDLQ(ctx, second.ID))
	n, err = storage.CountTasks(ctx, q)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStorageContract_Memory(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	defer storage.Close()

	testStorageContract(t, storage)
}

func TestStorageContract_Redis(t *testing.T) {
	url := os.Getenv("QUEUE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("QUEUE_TEST_REDIS_URL not set")
	}

	storage, err := queue.OpenRedisStorage(context.Background(), redisconn.Config{
		ConnectionURL:  url,
		RetryAttempts:  1,
		ConnectTimeout: 5 * time.Second,
	}, "queue-test")
	require.NoError(t, err)
	require.NoError(t, storage.Healthcheck()(context.Background()))

	testStorageContract(t, storage)
}

func TestStorageContract_Postgres(t *testing.T) {
	url := os.Getenv("QUEUE_TEST_PG_URL")
	if url == "" {
		t.Skip("QUEUE_TEST_PG_URL not set")
	}

	storage, err := queue.OpenPostgresStorage(context.Background(), pg.Config{
		ConnectionString: url,
		MaxOpenConns:     4,
		RetryAttempts:    1,
		MigrationsTable:  "queue_test_migrations",
	}, quietLogger())
	require.NoError(t, err)
	require.NoError(t, storage.Healthcheck()(context.Background()))

	testStorageContract(t, storage)
}
