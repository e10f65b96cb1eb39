package notifier

import "errors"

var (
	// ErrUnknownNotifier is returned when no notifier is registered for a channel.
	ErrUnknownNotifier = errors.New("unknown notifier")

	// ErrNoAddress is returned when a recipient has no address for the channel.
	ErrNoAddress = errors.New("recipient has no address")

	// ErrSaveFailed is returned when the delivered message could not be persisted.
	ErrSaveFailed = errors.New("failed to save delivered message")

	// ErrInvalidConfig is returned for incomplete channel configuration.
	ErrInvalidConfig = errors.New("invalid notifier config")
)
