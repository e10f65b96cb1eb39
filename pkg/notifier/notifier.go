package notifier

import (
	"context"

	"github.com/dmitrymomot/subscribe/pkg/entity"
	"github.com/dmitrymomot/subscribe/pkg/message"
)

// Notifier delivers one message through one channel.
// Errors are channel-local: callers log them and move on to the next channel.
type Notifier interface {
	Send(ctx context.Context, msg *message.Message, opts Options) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg *message.Message, opts Options) error

func (f NotifierFunc) Send(ctx context.Context, msg *message.Message, opts Options) error {
	return f(ctx, msg, opts)
}

// Options are per-channel delivery settings.
type Options struct {
	// SaveOnFail persists the message when the channel fails.
	SaveOnFail bool `json:"save_on_fail"`
	// SaveOnSuccess persists the message when the channel succeeds.
	SaveOnSuccess bool `json:"save_on_success"`
	// Extra carries channel-specific settings.
	Extra map[string]any `json:"extra,omitempty"`

	// Context is the context map of the send operation. Set at dispatch time.
	Context entity.ContextMap `json:"-"`
}

// WithContext returns a copy of o carrying the given context map.
func (o Options) WithContext(cm entity.ContextMap) Options {
	o.Context = cm
	return o
}

// String returns an Extra value as a string, or "" when absent.
func (o Options) String(key string) string {
	if v, ok := o.Extra[key].(string); ok {
		return v
	}
	return ""
}
