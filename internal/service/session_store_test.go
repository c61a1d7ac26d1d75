package service

import (
	"context"
	"testing"

	"planboard/internal/board"
	"planboard/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_SaveLoadDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dir := board.NewDirectory()
	dir.Add(domain.Entity{ID: "team-1", Ref: domain.EntityRef{Kind: domain.KindRealTeam}, Size: 1})

	store.Save(ctx, &SessionSnapshot{
		SessionID: "s1",
		State: &domain.BoardState{
			Version: 4,
			Dirty:   true,
			Groups:  []domain.Group{{Phase: domain.PhaseMain, Host: "team-1", Guests: []domain.EntityID{}}},
		},
		Directory: dir.Snapshot(),
		Metrics:   domain.Metrics{"total_travel_seconds": 120},
	})

	snap, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 4, snap.State.Version)
	assert.True(t, snap.State.Dirty)
	assert.False(t, snap.SavedAt.IsZero())

	restored := board.FromSnapshot(snap.Directory)
	_, ok := restored.Get("team-1")
	assert.True(t, ok)

	store.Delete(ctx, "s1")
	snap, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, snap, "a deleted snapshot reads as missing, not as an error")
}

func TestSessionStore_NilSafe(t *testing.T) {
	var store *SessionStore
	ctx := context.Background()

	store.Save(ctx, &SessionSnapshot{SessionID: "s1"})
	snap, err := store.Load(ctx, "s1")
	assert.NoError(t, err)
	assert.Nil(t, snap)

	ok, err := store.TryPairLock(ctx, "pair:x+y")
	assert.NoError(t, err)
	assert.True(t, ok, "without Redis the idempotency lock degrades to open")
	store.ReleasePairLock(ctx, "pair:x+y")
}

func TestSessionStore_PairLock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ok, err := store.TryPairLock(ctx, "pair:a@x.com+b@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.TryPairLock(ctx, "pair:a@x.com+b@x.com")
	require.NoError(t, err)
	assert.False(t, ok, "duplicate persistence attempt is refused")

	store.ReleasePairLock(ctx, "pair:a@x.com+b@x.com")

	ok, err = store.TryPairLock(ctx, "pair:a@x.com+b@x.com")
	require.NoError(t, err)
	assert.True(t, ok, "retry allowed after a failure rollback releases the lock")
}
