package subscribers

import (
	"context"

	"github.com/dmitrymomot/subscribe/pkg/entity"
	"github.com/dmitrymomot/subscribe/pkg/message"
)

// Query is what a Provider receives when asked for candidates.
type Query struct {
	Entity  entity.Entity
	Message *message.Message
	Options SubscribeOptions
	Context entity.ContextMap
}

// Provider is a source of candidate recipients.
// Results of all registered providers are merged, never replaced.
type Provider interface {
	Subscribers(ctx context.Context, q Query) (*Recipients, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, q Query) (*Recipients, error)

func (f ProviderFunc) Subscribers(ctx context.Context, q Query) (*Recipients, error) {
	return f(ctx, q)
}

// AlterInfo is the read-only input passed to recipient alterers.
type AlterInfo struct {
	Context    entity.ContextMap
	EntityType string
	Entity     entity.Entity
	Message    *message.Message
	Options    SubscribeOptions
}

// RecipientsAlterer may add, remove or change candidates after resolution.
// The recipient map belongs to the caller for the duration of the call.
type RecipientsAlterer interface {
	AlterRecipients(ctx context.Context, r *Recipients, info AlterInfo) error
}

// RecipientsAltererFunc adapts a function to RecipientsAlterer.
type RecipientsAltererFunc func(ctx context.Context, r *Recipients, info AlterInfo) error

func (f RecipientsAltererFunc) AlterRecipients(ctx context.Context, r *Recipients, info AlterInfo) error {
	return f(ctx, r, info)
}

// MessageAlterer changes the per-recipient message copy before it is sent.
// The copy's Original field points at the message being dispatched.
type MessageAlterer interface {
	AlterMessage(ctx context.Context, msg *message.Message, c *DeliveryCandidate) error
}

// MessageAltererFunc adapts a function to MessageAlterer.
type MessageAltererFunc func(ctx context.Context, msg *message.Message, c *DeliveryCandidate) error

func (f MessageAltererFunc) AlterMessage(ctx context.Context, msg *message.Message, c *DeliveryCandidate) error {
	return f(ctx, msg, c)
}
