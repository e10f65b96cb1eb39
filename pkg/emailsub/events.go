package emailsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/subscribe/pkg/flag"
	"github.com/dmitrymomot/subscribe/pkg/logger"
)

// Preferences tells whether an account wants its subscriptions delivered by email.
type Preferences interface {
	WantsEmail(ctx context.Context, accountID int64) (bool, error)
}

// PreferencesFunc adapts a function to Preferences.
type PreferencesFunc func(ctx context.Context, accountID int64) (bool, error)

func (f PreferencesFunc) WantsEmail(ctx context.Context, accountID int64) (bool, error) {
	return f(ctx, accountID)
}

// AlwaysEmail opts every account into email.
var AlwaysEmail PreferencesFunc = func(context.Context, int64) (bool, error) { return true, nil }

var _ flag.Listener = (*FlagEvents)(nil)

// FlagEvents keeps email flags in step with subscription flags.
// Flagging a subscription flags the email counterpart when the account opted into
// email. Unflagging removes the counterpart when present.
type FlagEvents struct {
	mgr    *Manager
	prefs  Preferences
	logger *slog.Logger
}

// FlagEventsOption configures FlagEvents.
type FlagEventsOption func(*FlagEvents)

// WithFlagEventsLogger sets the logger.
func WithFlagEventsLogger(l *slog.Logger) FlagEventsOption {
	return func(e *FlagEvents) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewFlagEvents creates the listener. A nil prefs opts every account into email.
func NewFlagEvents(mgr *Manager, prefs Preferences, opts ...FlagEventsOption) *FlagEvents {
	if prefs == nil {
		prefs = AlwaysEmail
	}
	e := &FlagEvents{mgr: mgr, prefs: prefs, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *FlagEvents) OnFlag(ctx context.Context, f flag.Flagging) error {
	if !e.mgr.IsSubscription(f.FlagID) {
		return nil
	}

	wants, err := e.prefs.WantsEmail(ctx, f.AccountID)
	if err != nil {
		return fmt.Errorf("email preference of %d: %w", f.AccountID, err)
	}
	if !wants {
		return nil
	}

	counterpart, err := e.mgr.CounterpartFlag(ctx, f.FlagID)
	if err != nil {
		return err
	}

	_, err = e.mgr.flags.Flag(ctx, counterpart.ID, f.Entity, f.AccountID)
	if err != nil && !errors.Is(err, flag.ErrAlreadyFlagged) {
		return fmt.Errorf("flag %s: %w", counterpart.ID, err)
	}

	e.logger.LogAttrs(ctx, slog.LevelDebug, "email subscription added",
		slog.String("flag", counterpart.ID),
		logger.Entity(f.Entity.Type, f.Entity.ID),
		logger.UserID(f.AccountID),
	)
	return nil
}

func (e *FlagEvents) OnUnflag(ctx context.Context, f flag.Flagging) error {
	if !e.mgr.IsSubscription(f.FlagID) {
		return nil
	}

	counterpart, err := e.mgr.CounterpartFlag(ctx, f.FlagID)
	if err != nil {
		return err
	}

	_, err = e.mgr.flags.Flagging(ctx, counterpart.ID, f.Entity, f.AccountID)
	if errors.Is(err, flag.ErrNotFlagged) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s flagging: %w", counterpart.ID, err)
	}

	if err := e.mgr.flags.Unflag(ctx, counterpart.ID, f.Entity, f.AccountID); err != nil {
		return fmt.Errorf("unflag %s: %w", counterpart.ID, err)
	}

	e.logger.LogAttrs(ctx, slog.LevelDebug, "email subscription removed",
		slog.String("flag", counterpart.ID),
		logger.Entity(f.Entity.Type, f.Entity.ID),
		logger.UserID(f.AccountID),
	)
	return nil
}
