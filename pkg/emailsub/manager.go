package emailsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/subscribe/pkg/flag"
	"github.com/dmitrymomot/subscribe/pkg/subscribers"
)

// Manager maps subscription flags to their email counterparts.
type Manager struct {
	flags           flag.Service
	cfg             Config
	subscribePrefix string
	emailPrefix     string
}

// NewManager creates a manager. subCfg provides the subscription flag prefix.
func NewManager(flags flag.Service, subCfg subscribers.Config, cfg Config) *Manager {
	return &Manager{
		flags:           flags,
		cfg:             cfg,
		subscribePrefix: subCfg.FlagPrefix + "_",
		emailPrefix:     cfg.FlagPrefix + "_",
	}
}

// Flags returns the email flags keyed by flag ID.
func (m *Manager) Flags(ctx context.Context) (map[string]flag.Flag, error) {
	all, err := m.flags.AllFlags(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	out := make(map[string]flag.Flag)
	for id, f := range all {
		if strings.HasPrefix(id, m.emailPrefix) {
			out[id] = f
		}
	}
	return out, nil
}

// IsSubscription reports whether flagID is a subscription flag.
func (m *Manager) IsSubscription(flagID string) bool {
	return strings.HasPrefix(flagID, m.subscribePrefix)
}

// Counterpart returns the email flag ID for a subscription flag ID,
// e.g. "email_node" for "subscribe_node".
func (m *Manager) Counterpart(flagID string) (string, bool) {
	suffix, ok := strings.CutPrefix(flagID, m.subscribePrefix)
	if !ok || suffix == "" {
		return "", false
	}
	return m.emailPrefix + suffix, true
}

// CounterpartFlag returns the email flag definition for a subscription flag.
func (m *Manager) CounterpartFlag(ctx context.Context, flagID string) (flag.Flag, error) {
	id, ok := m.Counterpart(flagID)
	if !ok {
		return flag.Flag{}, fmt.Errorf("%w: %s is not a subscription flag", ErrMissingEmailFlag, flagID)
	}
	f, err := m.flags.FlagByID(ctx, id)
	if errors.Is(err, flag.ErrUnknownFlag) {
		return flag.Flag{}, fmt.Errorf("%w: %s for %s", ErrMissingEmailFlag, id, flagID)
	}
	if err != nil {
		return flag.Flag{}, err
	}
	return f, nil
}

// Notifier returns the channel added for email subscribers.
func (m *Manager) Notifier() string {
	return m.cfg.Notifier
}
