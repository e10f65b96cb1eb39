package flag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var _ Store = (*BadgerStore)(nil)

// BadgerConfig holds BadgerDB settings for the flagging store.
type BadgerConfig struct {
	Dir      string `env:"FLAG_BADGER_DIR" envDefault:"./data/flags"`
	InMemory bool   `env:"FLAG_BADGER_IN_MEMORY" envDefault:"false"`
}

// BadgerStore persists flaggings in BadgerDB.
//
// Key format: flagging:{flagID}:{entityType}:{entityID}:{accountID}.
// Numeric parts are zero padded so prefix scans return accounts in ascending order.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadger opens a database configured for flagging storage.
func OpenBadger(cfg BadgerConfig) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts.NumVersionsToKeep = 1

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

const flaggingPrefix = "flagging:"

func flaggingKey(k Key) []byte {
	return fmt.Appendf(nil, "%s%s:%s:%020d:%020d", flaggingPrefix, k.FlagID, k.Entity.Type, k.Entity.ID, k.AccountID)
}

func (s *BadgerStore) Put(ctx context.Context, f Flagging) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal flagging: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(flaggingKey(f.Key()), data)
	})
}

func (s *BadgerStore) Delete(ctx context.Context, key Key) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(flaggingKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (s *BadgerStore) Get(ctx context.Context, key Key) (Flagging, error) {
	var f Flagging
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(flaggingKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFlagged
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &f)
		})
	})
	return f, err
}

// Find scans the narrowest key prefixes the query allows and filters the rest in memory.
func (s *BadgerStore) Find(ctx context.Context, q Query) ([]Flagging, error) {
	var out []Flagging

	err := s.db.View(func(txn *badger.Txn) error {
		for _, prefix := range scanPrefixes(q) {
			if err := ctx.Err(); err != nil {
				return err
			}

			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefix)
			it := txn.NewIterator(opts)

			for it.Rewind(); it.Valid(); it.Next() {
				var f Flagging
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &f)
				})
				if err != nil {
					it.Close()
					return fmt.Errorf("failed to unmarshal flagging: %w", err)
				}
				if q.Matches(f) {
					out = append(out, f)
				}
			}
			it.Close()
		}
		return nil
	})

	return out, err
}

func scanPrefixes(q Query) []string {
	if len(q.FlagIDs) == 0 {
		return []string{flaggingPrefix}
	}

	var prefixes []string
	for _, id := range q.FlagIDs {
		base := flaggingPrefix + id + ":"
		switch {
		case q.EntityType == "":
			prefixes = append(prefixes, base)
		case len(q.EntityIDs) == 0:
			prefixes = append(prefixes, base+q.EntityType+":")
		default:
			for _, eid := range q.EntityIDs {
				prefixes = append(prefixes, fmt.Sprintf("%s%s:%020d:", base, q.EntityType, eid))
			}
		}
	}
	return dedupePrefixes(prefixes)
}

func dedupePrefixes(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
