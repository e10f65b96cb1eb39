package flag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dmitrymomot/subscribe/pkg/entity"
	"github.com/dmitrymomot/subscribe/pkg/logger"
)

// Service is the subscription store capability consumed by the subscription pipeline.
type Service interface {
	// AllFlags returns flags applicable to an entity type and bundle. Empty arguments match all.
	AllFlags(ctx context.Context, entityType, bundle string) (map[string]Flag, error)

	// UsersFlags returns the flags an account may flag or unflag.
	UsersFlags(ctx context.Context, accountID int64, entityType, bundle string) (map[string]Flag, error)

	// FlagByID returns a flag definition.
	FlagByID(ctx context.Context, id string) (Flag, error)

	Flag(ctx context.Context, flagID string, ref entity.Ref, accountID int64) (Flagging, error)
	Unflag(ctx context.Context, flagID string, ref entity.Ref, accountID int64) error

	// Flagging returns an existing flagging or ErrNotFlagged.
	Flagging(ctx context.Context, flagID string, ref entity.Ref, accountID int64) (Flagging, error)

	// Flaggings returns flaggings matching the query ordered by account ID.
	Flaggings(ctx context.Context, q Query) ([]Flagging, error)
}

// Store persists flaggings.
type Store interface {
	Put(ctx context.Context, f Flagging) error
	Delete(ctx context.Context, key Key) error
	Get(ctx context.Context, key Key) (Flagging, error)
	Find(ctx context.Context, q Query) ([]Flagging, error)
}

// Listener reacts to flag and unflag events after the change is stored.
type Listener interface {
	OnFlag(ctx context.Context, f Flagging) error
	OnUnflag(ctx context.Context, f Flagging) error
}

// Permission decides whether an account may perform an action with a flag.
type Permission func(ctx context.Context, f Flag, action Action, accountID int64) bool

// AllowAll permits every action.
func AllowAll(context.Context, Flag, Action, int64) bool { return true }

var _ Service = (*Manager)(nil)

// Manager implements Service on top of a flag catalogue and a flagging Store.
type Manager struct {
	store      Store
	flags      map[string]Flag
	permission Permission
	logger     *slog.Logger

	mu        sync.RWMutex
	listeners []Listener
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithPermission sets the action permission check.
func WithPermission(p Permission) ManagerOption {
	return func(m *Manager) {
		if p != nil {
			m.permission = p
		}
	}
}

// WithListener registers a flag event listener.
func WithListener(l Listener) ManagerOption {
	return func(m *Manager) {
		m.listeners = append(m.listeners, l)
	}
}

// WithManagerLogger sets the logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a flag manager for the given catalogue.
func NewManager(store Store, flags []Flag, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      store,
		flags:      make(map[string]Flag, len(flags)),
		permission: AllowAll,
		logger:     slog.Default(),
	}
	for _, f := range flags {
		m.flags[f.ID] = f
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddListener registers a listener after construction.
func (m *Manager) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) AllFlags(ctx context.Context, entityType, bundle string) (map[string]Flag, error) {
	out := make(map[string]Flag)
	for id, f := range m.flags {
		if f.AppliesTo(entityType, bundle) {
			out[id] = f
		}
	}
	return out, nil
}

func (m *Manager) UsersFlags(ctx context.Context, accountID int64, entityType, bundle string) (map[string]Flag, error) {
	all, err := m.AllFlags(ctx, entityType, bundle)
	if err != nil {
		return nil, err
	}
	for id, f := range all {
		if !m.permission(ctx, f, ActionFlag, accountID) && !m.permission(ctx, f, ActionUnflag, accountID) {
			delete(all, id)
		}
	}
	return all, nil
}

func (m *Manager) FlagByID(ctx context.Context, id string) (Flag, error) {
	f, ok := m.flags[id]
	if !ok {
		return Flag{}, fmt.Errorf("%w: %s", ErrUnknownFlag, id)
	}
	return f, nil
}

func (m *Manager) Flag(ctx context.Context, flagID string, ref entity.Ref, accountID int64) (Flagging, error) {
	f, err := m.FlagByID(ctx, flagID)
	if err != nil {
		return Flagging{}, err
	}
	if !f.Enabled {
		return Flagging{}, ErrFlagDisabled
	}
	if f.EntityType != ref.Type {
		return Flagging{}, ErrFlagNotApplicable
	}

	fl := Flagging{FlagID: flagID, Entity: ref, AccountID: accountID, CreatedAt: time.Now()}
	if _, err := m.store.Get(ctx, fl.Key()); err == nil {
		return Flagging{}, ErrAlreadyFlagged
	} else if !errors.Is(err, ErrNotFlagged) {
		return Flagging{}, err
	}

	if err := m.store.Put(ctx, fl); err != nil {
		return Flagging{}, fmt.Errorf("store flagging: %w", err)
	}

	m.logger.LogAttrs(ctx, slog.LevelDebug, "entity flagged",
		slog.String("flag", flagID),
		logger.Entity(ref.Type, ref.ID),
		logger.UserID(accountID),
	)

	for _, l := range m.snapshotListeners() {
		if err := l.OnFlag(ctx, fl); err != nil {
			return fl, errors.Join(ErrListenerFailed, err)
		}
	}
	return fl, nil
}

func (m *Manager) Unflag(ctx context.Context, flagID string, ref entity.Ref, accountID int64) error {
	fl, err := m.Flagging(ctx, flagID, ref, accountID)
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, fl.Key()); err != nil {
		return fmt.Errorf("delete flagging: %w", err)
	}

	m.logger.LogAttrs(ctx, slog.LevelDebug, "entity unflagged",
		slog.String("flag", flagID),
		logger.Entity(ref.Type, ref.ID),
		logger.UserID(accountID),
	)

	for _, l := range m.snapshotListeners() {
		if err := l.OnUnflag(ctx, fl); err != nil {
			return errors.Join(ErrListenerFailed, err)
		}
	}
	return nil
}

func (m *Manager) Flagging(ctx context.Context, flagID string, ref entity.Ref, accountID int64) (Flagging, error) {
	if _, err := m.FlagByID(ctx, flagID); err != nil {
		return Flagging{}, err
	}
	return m.store.Get(ctx, Key{FlagID: flagID, Entity: ref, AccountID: accountID})
}

func (m *Manager) Flaggings(ctx context.Context, q Query) ([]Flagging, error) {
	items, err := m.store.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	sortFlaggings(items)
	return items, nil
}

func (m *Manager) snapshotListeners() []Listener {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Listener(nil), m.listeners...)
}

func sortFlaggings(items []Flagging) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		if a.FlagID != b.FlagID {
			return a.FlagID < b.FlagID
		}
		if a.Entity.Type != b.Entity.Type {
			return a.Entity.Type < b.Entity.Type
		}
		return a.Entity.ID < b.Entity.ID
	})
}
