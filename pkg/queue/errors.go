package queue

import "errors"

// Common errors
var (
	// ErrRepositoryNil is returned when a nil repository is provided
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrPayloadNil is returned when attempting to enqueue a nil payload
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrTaskNil is returned when storing a nil task
	ErrTaskNil = errors.New("task cannot be nil")

	// ErrTaskExists is returned when a task with the same ID is already stored
	ErrTaskExists = errors.New("task already exists")

	// ErrTaskNotFound is returned when a task is not in storage
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotProcessing is returned when completing or failing a task that is not claimed
	ErrTaskNotProcessing = errors.New("task is not in processing state")

	// ErrNoTaskToClaim is returned when no task is available for claiming
	ErrNoTaskToClaim = errors.New("no task available to claim")

	// ErrHandlerNotFound is returned when no handler is registered for a task
	ErrHandlerNotFound = errors.New("no handler registered for task type")

	// ErrNoHandlers is returned when worker has no handlers registered
	ErrNoHandlers = errors.New("no task handlers registered")

	// ErrWorkerStarted is returned when starting a running worker
	ErrWorkerStarted = errors.New("worker already started")

	// ErrWorkerNotStarted is returned when stopping a worker that is not running
	ErrWorkerNotStarted = errors.New("worker not started")
)
