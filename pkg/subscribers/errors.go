package subscribers

import (
	"errors"

	"github.com/dmitrymomot/subscribe/pkg/entity"
	"github.com/dmitrymomot/subscribe/pkg/message"
)

var (
	// ErrUnsavedMessage is returned when a send must be queued but the message was never persisted.
	ErrUnsavedMessage = errors.New("cannot queue a message that has not been saved")

	// ErrMessageNotFound is returned when a queued job references a deleted message.
	ErrMessageNotFound = message.ErrNotFound

	// ErrEntityNotFound is returned when a queued job references a deleted entity.
	ErrEntityNotFound = entity.ErrNotFound

	// ErrQueueNotConfigured is returned when a send must be queued but no enqueuer was provided.
	ErrQueueNotConfigured = errors.New("delivery queue is not configured")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid subscribers config")

	// ErrInvalidJob is returned when a delivery job payload is incomplete.
	ErrInvalidJob = errors.New("invalid delivery job")
)
