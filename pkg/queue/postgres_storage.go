package queue

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/subscribe/pkg/pg"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ Storage = (*PostgresStorage)(nil)

// PostgresStorage keeps tasks in PostgreSQL. Claims use FOR UPDATE SKIP LOCKED,
// so concurrent workers never receive the same task.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a PostgreSQL-backed queue storage.
func NewPostgresStorage(pool *pgxpool.Pool) (*PostgresStorage, error) {
	if pool == nil {
		return nil, ErrRepositoryNil
	}
	return &PostgresStorage{pool: pool}, nil
}

// OpenPostgresStorage connects to PostgreSQL, applies the queue schema and returns the storage.
func OpenPostgresStorage(ctx context.Context, cfg pg.Config, log *slog.Logger) (*PostgresStorage, error) {
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s, err := NewPostgresStorage(pool)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx, cfg.MigrationsTable, log); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the queue schema.
func (s *PostgresStorage) Migrate(ctx context.Context, table string, log *slog.Logger) error {
	return pg.Migrate(ctx, s.pool, migrationsFS, "migrations", table, log)
}

// Healthcheck returns a ping probe for the underlying pool.
func (s *PostgresStorage) Healthcheck() func(context.Context) error {
	return pg.Healthcheck(s.pool)
}

const taskColumns = `id, queue, task_name, payload, status, retry_count, max_retries,
	scheduled_at, locked_until, locked_by, error, created_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Queue, &t.TaskName, &t.Payload, &t.Status, &t.RetryCount, &t.MaxRetries,
		&t.ScheduledAt, &t.LockedUntil, &t.LockedBy, &t.Error, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrTaskNil
	}

	_, err := s.pool.Exec(ctx, `INSERT INTO queue_tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		task.ID, task.Queue, task.TaskName, task.Payload, task.Status, task.RetryCount, task.MaxRetries,
		task.ScheduledAt, task.LockedUntil, task.LockedBy, task.Error, task.CreatedAt)
	if pg.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrTaskExists, task.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// ClaimTask picks the oldest due task; tasks whose lock expired are claimable again.
func (s *PostgresStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	now := time.Now()

	row := s.pool.QueryRow(ctx, `UPDATE queue_tasks
		SET status = 'processing', locked_until = $3, locked_by = $2
		WHERE id = (
			SELECT id FROM queue_tasks
			WHERE queue = ANY($1)
				AND scheduled_at <= $4
				AND (status = 'pending' OR (status = 'processing' AND locked_until < $4))
			ORDER BY scheduled_at, created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+taskColumns,
		queues, workerID, now.Add(lockDuration), now)

	task, err := scanTask(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrNoTaskToClaim
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}
	return task, nil
}

func (s *PostgresStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM queue_tasks WHERE id = $1 AND status = 'processing'`, taskID)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.notProcessing(ctx, taskID)
	}
	return nil
}

func (s *PostgresStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE queue_tasks SET
			retry_count = retry_count + 1,
			error = $2,
			locked_until = NULL,
			locked_by = NULL,
			status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END,
			scheduled_at = CASE WHEN retry_count + 1 >= max_retries THEN scheduled_at
				ELSE $3::timestamptz + make_interval(secs => (retry_count + 1) * 30) END
		WHERE id = $1 AND status = 'processing'`,
		taskID, errorMsg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to fail task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.notProcessing(ctx, taskID)
	}
	return nil
}

func (s *PostgresStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		task, err := scanTask(tx.QueryRow(ctx, `DELETE FROM queue_tasks WHERE id = $1 RETURNING `+taskColumns, taskID))
		if pg.IsNotFoundError(err) {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		if err != nil {
			return fmt.Errorf("failed to remove task: %w", err)
		}

		dead := newDeadTask(task)
		_, err = tx.Exec(ctx, `INSERT INTO queue_tasks_dlq
			(id, task_id, queue, task_name, payload, error, retry_count, failed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			dead.ID, dead.TaskID, dead.Queue, dead.TaskName, dead.Payload, dead.Error, dead.RetryCount, dead.FailedAt)
		if err != nil {
			return fmt.Errorf("failed to insert dead task: %w", err)
		}
		return nil
	})
}

func (s *PostgresStorage) CountTasks(ctx context.Context, queue string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM queue_tasks WHERE queue = $1 AND status IN ('pending', 'processing')`,
		queue).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

func (s *PostgresStorage) notProcessing(ctx context.Context, taskID uuid.UUID) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM queue_tasks WHERE id = $1)`, taskID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
}
