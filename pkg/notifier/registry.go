package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/subscribe/pkg/logger"
	"github.com/dmitrymomot/subscribe/pkg/message"
)

// Registry dispatches messages to notifiers by channel name.
// It also persists the delivered message according to the save-on-success
// and save-on-fail options.
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	storage   message.Storage
	logger    *slog.Logger
}

// RegistryOption configures the Registry.
type RegistryOption func(*Registry)

// WithNotifier registers a notifier under a channel name.
func WithNotifier(channel string, n Notifier) RegistryOption {
	return func(r *Registry) {
		r.notifiers[channel] = n
	}
}

// WithMessageStorage enables save-on-success and save-on-fail.
func WithMessageStorage(s message.Storage) RegistryOption {
	return func(r *Registry) {
		r.storage = s
	}
}

// WithRegistryLogger sets the logger.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates a channel registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		notifiers: make(map[string]Notifier),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces the notifier for a channel.
func (r *Registry) Register(channel string, n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers[channel] = n
}

// Channels returns the registered channel names in sorted order.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.notifiers))
	for name := range r.notifiers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Send delivers msg through the named channel.
func (r *Registry) Send(ctx context.Context, channel string, msg *message.Message, opts Options) error {
	r.mu.RLock()
	n, ok := r.notifiers[channel]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNotifier, channel)
	}

	sendErr := n.Send(ctx, msg, opts)

	save := opts.SaveOnSuccess
	if sendErr != nil {
		save = opts.SaveOnFail
	}
	if !save || r.storage == nil {
		return sendErr
	}

	if err := r.storage.Save(ctx, msg); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to save delivered message",
			logger.Channel(channel),
			logger.Recipient(msg.OwnerID),
			logger.Error(err),
		)
		return errors.Join(sendErr, ErrSaveFailed, err)
	}
	return sendErr
}
