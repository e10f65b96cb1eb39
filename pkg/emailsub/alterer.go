package emailsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/subscribe/pkg/flag"
	"github.com/dmitrymomot/subscribe/pkg/logger"
	"github.com/dmitrymomot/subscribe/pkg/subscribers"
)

var _ subscribers.RecipientsAlterer = (*Alterer)(nil)

// Alterer adds the email channel to candidates that hold the email counterpart
// of one of their subscription flags on an entity of the context map.
type Alterer struct {
	mgr    *Manager
	logger *slog.Logger
}

// AltererOption configures the Alterer.
type AltererOption func(*Alterer)

// WithAltererLogger sets the logger.
func WithAltererLogger(l *slog.Logger) AltererOption {
	return func(a *Alterer) {
		if l != nil {
			a.logger = l
		}
	}
}

func NewAlterer(mgr *Manager, opts ...AltererOption) *Alterer {
	a := &Alterer{mgr: mgr, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Alterer) AlterRecipients(ctx context.Context, r *subscribers.Recipients, info subscribers.AlterInfo) error {
	if r.Len() == 0 {
		return nil
	}

	emailFlags, err := a.mgr.Flags(ctx)
	if err != nil {
		return err
	}

	byType := make(map[string][]string)
	for id, f := range emailFlags {
		if f.Enabled {
			byType[f.EntityType] = append(byType[f.EntityType], id)
		}
	}

	// account ID -> email flag IDs held on a context entity
	held := make(map[int64]map[string]struct{})
	for _, typ := range info.Context.Types() {
		ids := info.Context.IDs(typ)
		if len(ids) == 0 || len(byType[typ]) == 0 {
			continue
		}
		items, err := a.mgr.flags.Flaggings(ctx, flag.Query{
			FlagIDs:        byType[typ],
			EntityType:     typ,
			EntityIDs:      ids,
			AfterAccountID: info.Options.LastRecipientID,
		})
		if err != nil {
			return fmt.Errorf("find %s email flaggings: %w", typ, err)
		}
		for _, f := range items {
			if held[f.AccountID] == nil {
				held[f.AccountID] = make(map[string]struct{})
			}
			held[f.AccountID][f.FlagID] = struct{}{}
		}
	}

	added := 0
	for id, c := range r.All() {
		flags, ok := held[id]
		if !ok {
			continue
		}
		for _, fid := range c.Flags() {
			counterpart, ok := a.mgr.Counterpart(fid)
			if !ok {
				continue
			}
			if _, ok := flags[counterpart]; ok {
				c.AddNotifier(a.mgr.Notifier())
				added++
				break
			}
		}
	}

	a.logger.LogAttrs(ctx, slog.LevelDebug, "email subscribers resolved",
		logger.Entity(info.EntityType, info.Entity.ID),
		logger.Count(added),
	)
	return nil
}
