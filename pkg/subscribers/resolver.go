package subscribers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/subscribe/pkg/entity"
	"github.com/dmitrymomot/subscribe/pkg/flag"
	"github.com/dmitrymomot/subscribe/pkg/logger"
	"github.com/dmitrymomot/subscribe/pkg/message"
)

// Resolver turns a triggering entity and message into the final recipient map.
type Resolver struct {
	cfg       Config
	expander  *Expander
	flags     flag.Service
	accounts  entity.Accounts
	access    entity.AccessChecker
	providers []Provider
	alterers  []RecipientsAlterer
	logger    *slog.Logger
}

// ResolverOption configures the Resolver.
type ResolverOption func(*Resolver)

// WithProvider registers a candidate provider. Providers are queried in registration order.
func WithProvider(p Provider) ResolverOption {
	return func(r *Resolver) {
		r.providers = append(r.providers, p)
	}
}

// WithRecipientsAlterer registers a hook that runs after filtering and default notifier injection.
func WithRecipientsAlterer(a RecipientsAlterer) ResolverOption {
	return func(r *Resolver) {
		r.alterers = append(r.alterers, a)
	}
}

// WithFlagService sets the flag service used by Flags.
func WithFlagService(s flag.Service) ResolverOption {
	return func(r *Resolver) {
		r.flags = s
	}
}

// WithAccounts enables blocked account filtering.
func WithAccounts(a entity.Accounts) ResolverOption {
	return func(r *Resolver) {
		r.accounts = a
	}
}

// WithAccessChecker replaces entity.PublishedOrOwner as the view access check.
func WithAccessChecker(a entity.AccessChecker) ResolverOption {
	return func(r *Resolver) {
		if a != nil {
			r.access = a
		}
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a subscriber resolver.
func NewResolver(cfg Config, expander *Expander, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cfg:      cfg,
		expander: expander,
		access:   entity.PublishedOrOwner,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribers resolves the recipients of msg for entity e.
//
// Candidates of all providers are merged, accounts at or below the cursor are
// dropped, then blocked accounts, the effective owner of e and accounts that
// cannot view e. When the options page the result (Range or queue worker), the
// lowest account IDs are kept. Default notifiers are added to every survivor
// before the recipient alterers run.
//
// An empty cm is computed with the Expander.
func (r *Resolver) Subscribers(ctx context.Context, e entity.Entity, msg *message.Message, opts SubscribeOptions, cm entity.ContextMap) (*Recipients, error) {
	out, _, err := r.resolve(ctx, e, msg, opts, cm)
	return out, err
}

// page describes the resolved recipients before the alterers ran.
type page struct {
	// last is the highest account ID kept.
	last int64
	// full is set when the range limit was reached, so accounts may remain above last.
	full bool
}

func (r *Resolver) resolve(ctx context.Context, e entity.Entity, msg *message.Message, opts SubscribeOptions, cm entity.ContextMap) (*Recipients, page, error) {
	if len(cm) == 0 {
		var err error
		if cm, err = r.expander.BasicContext(ctx, e, opts.SkipContext, cm); err != nil {
			return nil, page{}, fmt.Errorf("build context: %w", err)
		}
	}

	out := NewRecipients()
	q := Query{Entity: e, Message: msg, Options: opts, Context: cm}
	for _, p := range r.providers {
		found, err := p.Subscribers(ctx, q)
		if err != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "subscriber provider failed",
				logger.Entity(e.Type, e.ID),
				logger.Error(err),
			)
			continue
		}
		out.Merge(found)
	}

	if opts.LastRecipientID > 0 {
		out.Filter(func(c *DeliveryCandidate) bool { return c.AccountID() > opts.LastRecipientID })
	}

	if !opts.NotifyBlockedUsers && r.accounts != nil && out.Len() > 0 {
		active, err := r.accounts.Active(ctx, out.IDs())
		if err != nil {
			return nil, page{}, fmt.Errorf("check account status: %w", err)
		}
		set := entity.NewIDSet(active...)
		out.Filter(func(c *DeliveryCandidate) bool { return set.Has(c.AccountID()) })
	}

	if !opts.NotifyMessageOwner {
		out.Remove(r.effectiveOwner(e))
	}

	if opts.Range > 0 || opts.QueueWorker {
		out.SortByID()
	}
	var (
		kept int
		pg   page
	)
	out.Filter(func(c *DeliveryCandidate) bool {
		if opts.Range > 0 && kept >= opts.Range {
			return false
		}
		if opts.EntityAccess && !r.canView(ctx, e, c.AccountID()) {
			return false
		}
		kept++
		pg.last = max(pg.last, c.AccountID())
		return true
	})
	pg.full = opts.Range > 0 && kept >= opts.Range

	for _, c := range out.All() {
		c.AddNotifier(r.cfg.DefaultNotifiers...)
	}

	info := AlterInfo{Context: cm, EntityType: e.Type, Entity: e, Message: msg, Options: opts}
	for _, a := range r.alterers {
		if err := a.AlterRecipients(ctx, out, info); err != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "recipients alterer failed",
				logger.Entity(e.Type, e.ID),
				logger.Error(err),
			)
		}
	}

	return out, pg, nil
}

func (r *Resolver) canView(ctx context.Context, e entity.Entity, accountID int64) bool {
	ok, err := r.access.CanView(ctx, e, accountID)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "access check failed",
			logger.Entity(e.Type, e.ID),
			logger.Recipient(accountID),
			logger.Error(err),
		)
		return false
	}
	return ok
}

// effectiveOwner returns the account that performed the action on e.
func (r *Resolver) effectiveOwner(e entity.Entity) int64 {
	if r.cfg.OwnerPolicy != OwnerPolicyOwner && e.TracksRevisions() {
		return e.RevisionAuthorID
	}
	return e.OwnerID
}

// FlagFilter narrows Flags. Zero values do not filter.
type FlagFilter struct {
	EntityType string
	Bundle     string
	// AccountID restricts the result to flags the account may act on.
	AccountID int64
}

// Flags returns the subscription flags, i.e. flags whose ID starts with the configured prefix.
func (r *Resolver) Flags(ctx context.Context, f FlagFilter) (map[string]flag.Flag, error) {
	out := make(map[string]flag.Flag)
	if r.flags == nil {
		return out, nil
	}

	var (
		all map[string]flag.Flag
		err error
	)
	if f.AccountID != 0 {
		all, err = r.flags.UsersFlags(ctx, f.AccountID, f.EntityType, f.Bundle)
	} else {
		all, err = r.flags.AllFlags(ctx, f.EntityType, f.Bundle)
	}
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}

	prefix := r.cfg.flagPrefix()
	for id, fl := range all {
		if strings.HasPrefix(id, prefix) {
			out[id] = fl
		}
	}
	return out, nil
}
