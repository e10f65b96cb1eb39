package flag

import (
	"slices"
	"time"

	"github.com/dmitrymomot/subscribe/pkg/entity"
)

// Action is a flagging operation an account may be allowed to perform.
type Action string

const (
	ActionFlag   Action = "flag"
	ActionUnflag Action = "unflag"
)

// Flag is a named, typed bookmark that accounts set on entities.
// Subscription flags are flags whose ID starts with a configured prefix.
type Flag struct {
	ID         string   `yaml:"id" json:"id"`
	Title      string   `yaml:"title" json:"title"`
	EntityType string   `yaml:"entity_type" json:"entity_type"`
	Bundles    []string `yaml:"bundles,omitempty" json:"bundles,omitempty"`
	Enabled    bool     `yaml:"enabled" json:"enabled"`
}

// AppliesTo reports whether the flag can be set on entities of the given type and bundle.
// Empty arguments match any value.
func (f Flag) AppliesTo(entityType, bundle string) bool {
	if entityType != "" && f.EntityType != entityType {
		return false
	}
	if bundle == "" || len(f.Bundles) == 0 {
		return true
	}
	return slices.Contains(f.Bundles, bundle)
}

// Flagging records that an account set a flag on an entity.
type Flagging struct {
	FlagID    string     `json:"flag_id"`
	Entity    entity.Ref `json:"entity"`
	AccountID int64      `json:"account_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// Key identifies a single flagging.
func (f Flagging) Key() Key {
	return Key{FlagID: f.FlagID, Entity: f.Entity, AccountID: f.AccountID}
}

// Key is the identity of a flagging.
type Key struct {
	FlagID    string
	Entity    entity.Ref
	AccountID int64
}

// Query selects flaggings. Zero-valued fields do not filter.
type Query struct {
	FlagIDs    []string
	EntityType string
	EntityIDs  []int64
	// AfterAccountID limits results to accounts with a greater ID.
	AfterAccountID int64
}

// Matches reports whether the flagging satisfies the query.
func (q Query) Matches(f Flagging) bool {
	if len(q.FlagIDs) > 0 && !slices.Contains(q.FlagIDs, f.FlagID) {
		return false
	}
	if q.EntityType != "" && f.Entity.Type != q.EntityType {
		return false
	}
	if len(q.EntityIDs) > 0 && !slices.Contains(q.EntityIDs, f.Entity.ID) {
		return false
	}
	return f.AccountID > q.AfterAccountID
}
