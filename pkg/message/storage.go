package message

import (
	"context"
)

// Storage handles message persistence and retrieval.
type Storage interface {
	// Save stores a message. New messages get an ID and creation time assigned in place.
	Save(ctx context.Context, msg *Message) error

	// Get retrieves a message by ID.
	Get(ctx context.Context, id string) (*Message, error)

	// Delete removes a message.
	Delete(ctx context.Context, id string) error

	// ListByOwner returns messages owned by an account, oldest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]*Message, error)
}
