package flag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subscribe/pkg/entity"
	"github.com/dmitrymomot/subscribe/pkg/flag"
)

type mockListener struct {
	mock.Mock
}

func (m *mockListener) OnFlag(ctx context.Context, f flag.Flagging) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockListener) OnUnflag(ctx context.Context, f flag.Flagging) error {
	return m.Called(ctx, f).Error(0)
}

func testFlags() []flag.Flag {
	return []flag.Flag{
		{ID: "subscribe_node", EntityType: entity.TypeNode, Bundles: []string{"article"}, Enabled: true},
		{ID: "subscribe_user", EntityType: entity.TypeUser, Enabled: true},
		{ID: "subscribe_term", EntityType: entity.TypeTerm, Enabled: false},
		{ID: "bookmark", EntityType: entity.TypeNode, Enabled: true},
	}
}

func TestManager_AllFlags(t *testing.T) {
	t.Parallel()

	m := flag.NewManager(flag.NewMemoryStore(), testFlags())
	ctx := context.Background()

	tests := []struct {
		name       string
		entityType string
		bundle     string
		want       []string
	}{
		{"all", "", "", []string{"subscribe_node", "subscribe_user", "subscribe_term", "bookmark"}},
		{"by type", entity.TypeNode, "", []string{"subscribe_node", "bookmark"}},
		{"by bundle", entity.TypeNode, "article", []string{"subscribe_node", "bookmark"}},
		{"bundle mismatch", entity.TypeNode, "page", []string{"bookmark"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.AllFlags(ctx, tt.entityType, tt.bundle)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for id := range got {
				ids = append(ids, id)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestManager_UsersFlags(t *testing.T) {
	t.Parallel()

	perm := func(_ context.Context, f flag.Flag, action flag.Action, accountID int64) bool {
		return f.ID != "bookmark" || accountID == 1
	}
	m := flag.NewManager(flag.NewMemoryStore(), testFlags(), flag.WithPermission(perm))

	got, err := m.UsersFlags(context.Background(), 2, entity.TypeNode, "")
	require.NoError(t, err)
	assert.Contains(t, got, "subscribe_node")
	assert.NotContains(t, got, "bookmark")

	got, err = m.UsersFlags(context.Background(), 1, entity.TypeNode, "")
	require.NoError(t, err)
	assert.Contains(t, got, "bookmark")
}

func TestManager_FlagUnflag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	node := entity.Ref{Type: entity.TypeNode, ID: 10}

	t.Run("flag then unflag notifies listeners", func(t *testing.T) {
		t.Parallel()

		l := &mockListener{}
		l.On("OnFlag", mock.Anything, mock.MatchedBy(func(f flag.Flagging) bool {
			return f.FlagID == "subscribe_node" && f.AccountID == 5
		})).Return(nil).Once()
		l.On("OnUnflag", mock.Anything, mock.Anything).Return(nil).Once()

		m := flag.NewManager(flag.NewMemoryStore(), testFlags(), flag.WithListener(l))

		fl, err := m.Flag(ctx, "subscribe_node", node, 5)
		require.NoError(t, err)
		assert.False(t, fl.CreatedAt.IsZero())

		_, err = m.Flagging(ctx, "subscribe_node", node, 5)
		require.NoError(t, err)

		require.NoError(t, m.Unflag(ctx, "subscribe_node", node, 5))
		_, err = m.Flagging(ctx, "subscribe_node", node, 5)
		assert.ErrorIs(t, err, flag.ErrNotFlagged)

		l.AssertExpectations(t)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		m := flag.NewManager(flag.NewMemoryStore(), testFlags())

		_, err := m.Flag(ctx, "missing", node, 1)
		assert.ErrorIs(t, err, flag.ErrUnknownFlag)

		_, err = m.Flag(ctx, "subscribe_term", entity.Ref{Type: entity.TypeTerm, ID: 1}, 1)
		assert.ErrorIs(t, err, flag.ErrFlagDisabled)

		_, err = m.Flag(ctx, "subscribe_user", node, 1)
		assert.ErrorIs(t, err, flag.ErrFlagNotApplicable)

		_, err = m.Flag(ctx, "subscribe_node", node, 1)
		require.NoError(t, err)
		_, err = m.Flag(ctx, "subscribe_node", node, 1)
		assert.ErrorIs(t, err, flag.ErrAlreadyFlagged)

		assert.ErrorIs(t, m.Unflag(ctx, "subscribe_node", node, 2), flag.ErrNotFlagged)
	})

	t.Run("listener failure keeps flagging", func(t *testing.T) {
		t.Parallel()

		l := &mockListener{}
		l.On("OnFlag", mock.Anything, mock.Anything).Return(errors.New("boom"))

		m := flag.NewManager(flag.NewMemoryStore(), testFlags())
		m.AddListener(l)

		_, err := m.Flag(ctx, "subscribe_node", node, 3)
		assert.ErrorIs(t, err, flag.ErrListenerFailed)

		_, err = m.Flagging(ctx, "subscribe_node", node, 3)
		assert.NoError(t, err)
	})
}

func TestManager_Flaggings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := flag.NewManager(flag.NewMemoryStore(), testFlags())

	for _, acc := range []int64{9, 2, 5} {
		_, err := m.Flag(ctx, "subscribe_node", entity.Ref{Type: entity.TypeNode, ID: 1}, acc)
		require.NoError(t, err)
	}
	_, err := m.Flag(ctx, "subscribe_node", entity.Ref{Type: entity.TypeNode, ID: 2}, 7)
	require.NoError(t, err)
	_, err = m.Flag(ctx, "bookmark", entity.Ref{Type: entity.TypeNode, ID: 1}, 4)
	require.NoError(t, err)

	got, err := m.Flaggings(ctx, flag.Query{
		FlagIDs:        []string{"subscribe_node"},
		EntityType:     entity.TypeNode,
		EntityIDs:      []int64{1},
		AfterAccountID: 2,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[0].AccountID)
	assert.Equal(t, int64(9), got[1].AccountID)
}
