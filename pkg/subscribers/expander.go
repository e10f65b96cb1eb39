package subscribers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/subscribe/pkg/entity"
	"github.com/dmitrymomot/subscribe/pkg/logger"
)

// Expander builds the context map of a triggering entity: the related content,
// its authors, groups and tagged terms.
type Expander struct {
	loader      entity.Loader
	memberships entity.Memberships
	logger      *slog.Logger
}

// ExpanderOption configures the Expander.
type ExpanderOption func(*Expander)

// WithMemberships enables group expansion.
func WithMemberships(m entity.Memberships) ExpanderOption {
	return func(e *Expander) {
		e.memberships = m
	}
}

// WithExpanderLogger sets the logger.
func WithExpanderLogger(l *slog.Logger) ExpanderOption {
	return func(e *Expander) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExpander creates a context expander backed by loader.
func NewExpander(loader entity.Loader, opts ...ExpanderOption) *Expander {
	e := &Expander{
		loader: loader,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BasicContext returns the context map of e.
//
// An empty seed is initialised with e itself. With skipDetailed the seed is
// returned as is. Otherwise the parent content of comment-like entities and the
// comment author are added, content is expanded with its groups, and every
// content item contributes its author and referenced terms.
// The seed is never modified.
func (x *Expander) BasicContext(ctx context.Context, e entity.Entity, skipDetailed bool, seed entity.ContextMap) (entity.ContextMap, error) {
	cm := seed.Clone()
	if len(cm) == 0 {
		cm = entity.ContextMap{}
		cm.Add(e.Type, e.ID)
	}
	if skipDetailed {
		return cm, nil
	}

	cm.Ensure(entity.TypeNode)
	cm.Ensure(entity.TypeUser)
	cm.Ensure(entity.TypeTerm)

	if e.IsCommentLike() {
		cm.Add(entity.TypeNode, e.Parent.ID)
		if e.OwnerID != 0 {
			cm.Add(entity.TypeUser, e.OwnerID)
		}
	}

	if len(cm[entity.TypeNode]) == 0 {
		return cm, nil
	}

	nodes, err := x.loader.Load(ctx, entity.TypeNode, cm.IDs(entity.TypeNode)...)
	if err != nil {
		return cm, fmt.Errorf("load content: %w", err)
	}

	if x.memberships != nil {
		before := len(cm[entity.TypeNode])
		for _, n := range nodes {
			groups, err := x.memberships.GroupIDs(ctx, n)
			if err != nil {
				x.logger.LogAttrs(ctx, slog.LevelWarn, "failed to resolve group memberships",
					logger.Entity(n.Type, n.ID),
					logger.Error(err),
				)
				continue
			}
			for typ, ids := range groups {
				cm.Add(typ, ids...)
			}
		}
		// Groups may be content themselves.
		if len(cm[entity.TypeNode]) != before {
			nodes, err = x.loader.Load(ctx, entity.TypeNode, cm.IDs(entity.TypeNode)...)
			if err != nil {
				return cm, fmt.Errorf("reload content: %w", err)
			}
		}
	}

	for _, n := range nodes {
		if n.OwnerID != 0 {
			cm.Add(entity.TypeUser, n.OwnerID)
		}
		cm.Add(entity.TypeTerm, n.ReferencedIDs(entity.TypeTerm)...)
	}

	return cm, nil
}
