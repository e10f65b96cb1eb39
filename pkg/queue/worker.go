package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/subscribe/pkg/logger"
)

// Worker processes tasks from the queue
type Worker struct {
	repo     WorkerRepository
	handlers map[string]Handler
	queues   []string
	workerID uuid.UUID
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopMu   sync.Mutex // Protects stopping state and WaitGroup operations

	pullInterval time.Duration
	lockTimeout  time.Duration
	logger       *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
}

// NewWorker creates a new task worker
func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &workerOptions{
		queues:             []string{DefaultQueueName},
		pullInterval:       5 * time.Second,
		lockTimeout:        5 * time.Minute,
		maxConcurrentTasks: 1,
		logger:             slog.Default(),
	}

	for _, opt := range opts {
		opt(options)
	}

	workerID := uuid.New()

	return &Worker{
		repo:         repo,
		handlers:     make(map[string]Handler),
		queues:       options.queues,
		workerID:     workerID,
		sem:          make(chan struct{}, options.maxConcurrentTasks),
		pullInterval: options.pullInterval,
		lockTimeout:  options.lockTimeout,
		logger: options.logger.With(
			logger.Component("queue.worker"),
			slog.String("worker_id", workerID.String()),
		),
		ctx: context.Background(),
	}, nil
}

// ID returns the worker identifier used for task locks.
func (w *Worker) ID() uuid.UUID {
	return w.workerID
}

// RegisterHandler registers a single task handler
func (w *Worker) RegisterHandler(handler Handler) error {
	if handler == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.handlers[handler.Name()] = handler
	return nil
}

// RegisterHandlers registers multiple task handlers
func (w *Worker) RegisterHandlers(handlers ...Handler) error {
	for _, h := range handlers {
		if err := w.RegisterHandler(h); err != nil {
			return err
		}
	}
	return nil
}

// Start begins polling for tasks in the background
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return ErrWorkerStarted
	}

	if len(w.handlers) == 0 {
		w.mu.Unlock()
		return ErrNoHandlers
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.stopping.Store(false)

	go w.run()

	w.logger.LogAttrs(ctx, slog.LevelInfo, "worker started",
		slog.Any("queues", w.queues),
		slog.Int("max_concurrent", cap(w.sem)))

	return nil
}

// Stop gracefully shuts down the worker, waiting for in-flight tasks
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotStarted
	}

	w.stopMu.Lock()
	w.stopping.Store(true)
	w.stopMu.Unlock()

	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()

	w.logger.Info("worker stopping, waiting for active tasks to complete")
	w.wg.Wait()
	w.logger.Info("worker stopped")

	return nil
}

// Run starts the worker and returns a function suitable for errgroup
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		return w.Stop()
	}
}

// Drain claims and processes tasks one at a time until the queues are empty,
// the budget is spent or ctx is cancelled. It is meant for cron-style invocation
// where no long-running worker exists. Returns the number of tasks processed.
func (w *Worker) Drain(ctx context.Context, budget time.Duration) (int, error) {
	w.mu.RLock()
	noHandlers := len(w.handlers) == 0
	w.mu.RUnlock()
	if noHandlers {
		return 0, ErrNoHandlers
	}

	deadline := time.Now().Add(budget)
	processed := 0

	for budget <= 0 || time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		task, err := w.repo.ClaimTask(ctx, w.workerID, w.queues, w.lockTimeout)
		if errors.Is(err, ErrNoTaskToClaim) {
			return processed, nil
		}
		if err != nil {
			return processed, fmt.Errorf("failed to claim task: %w", err)
		}

		if err := w.processTask(ctx, task); err != nil && !errors.Is(err, ErrHandlerNotFound) {
			w.logger.LogAttrs(ctx, slog.LevelError, "failed to process task",
				logger.JobID(task.ID), logger.Error(err))
		}
		processed++
	}

	return processed, nil
}

// run is the main polling loop
func (w *Worker) run() {
	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			select {
			case w.sem <- struct{}{}:
				// Don't add to the WaitGroup once Stop has begun
				w.stopMu.Lock()
				if w.stopping.Load() {
					w.stopMu.Unlock()
					<-w.sem
					return
				}
				w.wg.Add(1)
				w.stopMu.Unlock()

				go func() {
					defer w.wg.Done()
					defer func() { <-w.sem }()

					if err := w.pullAndProcess(); err != nil && !errors.Is(err, ErrHandlerNotFound) {
						w.logger.LogAttrs(w.ctx, slog.LevelError, "failed to process task", logger.Error(err))
					}
				}()
			default:
				w.logger.Debug("all worker slots busy, skipping tick")
			}
		}
	}
}

func (w *Worker) pullAndProcess() error {
	task, err := w.repo.ClaimTask(w.ctx, w.workerID, w.queues, w.lockTimeout)
	if err != nil {
		if errors.Is(err, ErrNoTaskToClaim) {
			return nil
		}
		return fmt.Errorf("failed to claim task: %w", err)
	}

	if task == nil {
		return nil
	}

	return w.processTask(w.ctx, task)
}

// processTask executes a claimed task with its handler
func (w *Worker) processTask(ctx context.Context, task *Task) (retErr error) {
	start := time.Now()
	attrs := []slog.Attr{
		logger.JobID(task.ID),
		slog.String("task_name", task.TaskName),
		logger.Queue(task.Queue),
	}

	w.logger.LogAttrs(ctx, slog.LevelDebug, "claimed task", attrs...)

	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic in handler: %v", r)
			w.logger.LogAttrs(ctx, slog.LevelError, "handler panicked",
				append(attrs, slog.Any("panic", r))...)
			_ = w.handleTaskFailure(ctx, task, retErr, time.Since(start))
		}
	}()

	w.mu.RLock()
	handler, ok := w.handlers[task.TaskName]
	w.mu.RUnlock()

	if !ok {
		return w.handleMissingHandler(ctx, task)
	}

	// Not tied to the worker lifecycle so in-flight tasks survive graceful shutdown
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.lockTimeout)
	defer cancel()
	hctx = logger.ContextWith(hctx, logger.JobID(task.ID))

	err := handler.Handle(hctx, task.Payload)
	duration := time.Since(start)

	if err != nil {
		return w.handleTaskFailure(ctx, task, err, duration)
	}

	return w.handleTaskSuccess(ctx, task, duration)
}

// handleMissingHandler moves the task straight to the DLQ; retries cannot succeed without a handler.
func (w *Worker) handleMissingHandler(ctx context.Context, task *Task) error {
	w.logger.LogAttrs(ctx, slog.LevelError, "no handler registered for task type",
		logger.JobID(task.ID), slog.String("task_name", task.TaskName))

	ctx = context.WithoutCancel(ctx)
	errorMsg := "no handler registered for task type: " + task.TaskName
	if err := w.repo.FailTask(ctx, task.ID, errorMsg); err != nil {
		return fmt.Errorf("failed to mark task %s as failed: %w", task.ID, err)
	}

	if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to move task %s to DLQ: %w", task.ID, err)
	}

	return ErrHandlerNotFound
}

// handleTaskFailure records the failure and moves the task to the DLQ once retries are exhausted.
func (w *Worker) handleTaskFailure(ctx context.Context, task *Task, execErr error, duration time.Duration) error {
	retries := task.RetryCount + 1

	w.logger.LogAttrs(ctx, slog.LevelError, "task failed",
		logger.JobID(task.ID),
		slog.String("task_name", task.TaskName),
		logger.RetryCount(int(retries)),
		slog.Int("max_retries", int(task.MaxRetries)),
		logger.Duration(duration),
		logger.Error(execErr))

	ctx = context.WithoutCancel(ctx)
	if err := w.repo.FailTask(ctx, task.ID, execErr.Error()); err != nil {
		return fmt.Errorf("failed to update task %s status to failed: %w", task.ID, err)
	}

	if retries >= task.MaxRetries {
		if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
			return fmt.Errorf("failed to move task %s to DLQ after max retries: %w", task.ID, err)
		}

		w.logger.LogAttrs(ctx, slog.LevelWarn, "task moved to dead letter queue",
			logger.JobID(task.ID), slog.String("task_name", task.TaskName))
	}

	return nil
}

func (w *Worker) handleTaskSuccess(ctx context.Context, task *Task, duration time.Duration) error {
	if err := w.repo.CompleteTask(context.WithoutCancel(ctx), task.ID); err != nil {
		return fmt.Errorf("failed to mark task %s as completed: %w", task.ID, err)
	}

	w.logger.LogAttrs(ctx, slog.LevelInfo, "task completed",
		logger.JobID(task.ID),
		slog.String("task_name", task.TaskName),
		logger.Queue(task.Queue),
		logger.Duration(duration))

	return nil
}
