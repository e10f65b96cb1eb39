package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EnqueuerRepository defines the interface for task creation
type EnqueuerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
}

// WorkerRepository defines the interface for worker operations
type WorkerRepository interface {
	// ClaimTask atomically claims the next available task.
	// Returns ErrNoTaskToClaim when nothing is due. A claimed task is invisible to other workers
	// until it is completed, failed or its lock expires.
	ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error)

	// CompleteTask removes a processed task from the queue
	CompleteTask(ctx context.Context, taskID uuid.UUID) error

	// FailTask records the error and increments retry count
	FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error

	// MoveToDLQ moves task to dead letter queue
	MoveToDLQ(ctx context.Context, taskID uuid.UUID) error
}

// CounterRepository reports queue depth.
type CounterRepository interface {
	// CountTasks returns the number of pending and processing tasks in a queue
	CountTasks(ctx context.Context, queue string) (int, error)
}

// Storage is implemented by every queue backend.
type Storage interface {
	EnqueuerRepository
	WorkerRepository
	CounterRepository
}
