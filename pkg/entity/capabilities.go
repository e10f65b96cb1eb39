package entity

import "context"

// Loader loads entities of one type by ID. Missing IDs are skipped, not reported as errors.
type Loader interface {
	Load(ctx context.Context, typ string, ids ...int64) ([]Entity, error)
}

// Memberships resolves group memberships of a content item.
// The result maps a group entity type to group IDs.
type Memberships interface {
	GroupIDs(ctx context.Context, e Entity) (map[string][]int64, error)
}

// Accounts reports account status.
type Accounts interface {
	// Active returns the subset of ids that belong to active (not blocked) accounts.
	Active(ctx context.Context, ids []int64) ([]int64, error)
}

// AccessChecker decides whether an account may view an entity.
type AccessChecker interface {
	CanView(ctx context.Context, e Entity, accountID int64) (bool, error)
}

// AccessFunc adapts a function to AccessChecker.
type AccessFunc func(ctx context.Context, e Entity, accountID int64) (bool, error)

func (f AccessFunc) CanView(ctx context.Context, e Entity, accountID int64) (bool, error) {
	return f(ctx, e, accountID)
}

// PublishedOrOwner grants access to published entities and to the owner of unpublished ones.
var PublishedOrOwner AccessFunc = func(_ context.Context, e Entity, accountID int64) (bool, error) {
	return e.Published || e.OwnerID == accountID, nil
}

// Load fetches a single entity, returning ErrNotFound when it does not exist.
func Load(ctx context.Context, l Loader, ref Ref) (Entity, error) {
	items, err := l.Load(ctx, ref.Type, ref.ID)
	if err != nil {
		return Entity{}, err
	}
	for _, e := range items {
		if e.ID == ref.ID {
			return e, nil
		}
	}
	return Entity{}, ErrNotFound
}
