package notifier

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/subscribe/pkg/email"
	"github.com/dmitrymomot/subscribe/pkg/message"
)

// AddressBook resolves the email address of an account.
type AddressBook interface {
	EmailAddress(ctx context.Context, accountID int64) (string, error)
}

// AddressFunc adapts a function to AddressBook.
type AddressFunc func(ctx context.Context, accountID int64) (string, error)

func (f AddressFunc) EmailAddress(ctx context.Context, accountID int64) (string, error) {
	return f(ctx, accountID)
}

// Renderer turns a message into email content. SendTo is filled in by the notifier.
type Renderer func(ctx context.Context, msg *message.Message) (email.SendEmailParams, error)

// FieldRenderer renders the "subject", "body" and "body_text" message fields as is.
// The template name is used as the subject fallback and as the tag.
func FieldRenderer(_ context.Context, msg *message.Message) (email.SendEmailParams, error) {
	subject := msg.Field("subject")
	if subject == "" {
		subject = msg.Template
	}
	return email.SendEmailParams{
		Subject:  subject,
		BodyHTML: msg.Field("body"),
		BodyText: msg.Field("body_text"),
		Tag:      msg.Template,
	}, nil
}

var _ Notifier = (*Email)(nil)

// Email sends messages through an email.EmailSender.
type Email struct {
	sender    email.EmailSender
	addresses AddressBook
	render    Renderer
}

// EmailOption configures the Email notifier.
type EmailOption func(*Email)

// WithRenderer replaces FieldRenderer.
func WithRenderer(r Renderer) EmailOption {
	return func(e *Email) {
		if r != nil {
			e.render = r
		}
	}
}

// NewEmail creates an email notifier.
func NewEmail(sender email.EmailSender, addresses AddressBook, opts ...EmailOption) *Email {
	e := &Email{
		sender:    sender,
		addresses: addresses,
		render:    FieldRenderer,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Send emails the message to its owner. The "tag" extra option overrides the email tag.
func (e *Email) Send(ctx context.Context, msg *message.Message, opts Options) error {
	addr, err := e.addresses.EmailAddress(ctx, msg.OwnerID)
	if err != nil {
		return fmt.Errorf("resolve email address: %w", err)
	}
	if addr == "" {
		return fmt.Errorf("%w: account %d", ErrNoAddress, msg.OwnerID)
	}

	params, err := e.render(ctx, msg)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	params.SendTo = addr
	if tag := opts.String("tag"); tag != "" {
		params.Tag = tag
	}
	if id := originID(msg); id != "" {
		if params.Metadata == nil {
			params.Metadata = make(map[string]string, 1)
		}
		params.Metadata["message_id"] = id
	}

	return e.sender.SendEmail(ctx, params)
}

// originID returns the ID of the saved message a per-recipient copy was cloned from.
func originID(msg *message.Message) string {
	if msg.ID != "" {
		return msg.ID
	}
	if msg.Original != nil {
		return msg.Original.ID
	}
	return ""
}
