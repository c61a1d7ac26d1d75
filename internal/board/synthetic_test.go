package board

import (
	"testing"

	"planboard/internal/domain"
	"planboard/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairTestDirectory() (*Directory, *domain.BoardState) {
	d := NewDirectory()
	d.Add(domain.Entity{
		ID:   "team-duo",
		Ref:  domain.EntityRef{Kind: domain.KindRealTeam},
		Size: 2,
		Members: []domain.Member{
			{Name: "Ada", Email: "ada@example.com"},
			{Name: "Ben", Email: "ben@example.com"},
		},
		CoursePreference: domain.PhaseMain,
		CanHostMain:      true,
	})
	d.Add(domain.Entity{
		ID:      "team-solo",
		Ref:     domain.EntityRef{Kind: domain.KindRealTeam},
		Size:    1,
		Members: []domain.Member{{Name: "Cara", Email: "cara@example.com"}},
	})
	d.Add(domain.Entity{
		ID:          "team-solo2",
		Ref:         domain.EntityRef{Kind: domain.KindRealTeam},
		Size:        1,
		Members:     []domain.Member{{Name: "Dan", Email: "dan@example.com"}},
		CanHostMain: true,
	})

	state := &domain.BoardState{
		Version: 7,
		Groups: []domain.Group{
			{Phase: domain.PhaseAppetizer, Host: "team-duo", Guests: []domain.EntityID{"team-solo"}},
			{Phase: domain.PhaseMain, Host: "", Guests: []domain.EntityID{"team-duo"}},
		},
	}
	return d, state
}

func TestSplitTeam(t *testing.T) {
	d, state := pairTestDirectory()

	draft, err := d.SplitTeam(state, "team-duo")
	require.NoError(t, err)
	require.Len(t, draft.AtomicIDs, 2)

	assert.Equal(t, domain.EntityID("split:team-duo:ada"), draft.AtomicIDs[0])
	assert.Equal(t, domain.EntityID("split:team-duo:ben"), draft.AtomicIDs[1])

	// The original is removed from every group and hidden from listings.
	assert.False(t, state.IsPlaced("team-duo"))
	assert.True(t, state.Dirty)
	assert.True(t, d.IsHidden("team-duo"))

	// Atomics inherit hosting capability and course preference.
	atomic, ok := d.Get(draft.AtomicIDs[0])
	require.True(t, ok)
	assert.Equal(t, domain.KindAtomic, atomic.Ref.Kind)
	assert.Equal(t, domain.EntityID("team-duo"), atomic.Ref.ParentID)
	assert.Equal(t, 1, atomic.Size)
	assert.True(t, atomic.CanHostMain)
	assert.Equal(t, domain.PhaseMain, atomic.CoursePreference)
}

func TestSplitTeam_Idempotent(t *testing.T) {
	d, state := pairTestDirectory()

	first, err := d.SplitTeam(state, "team-duo")
	require.NoError(t, err)
	second, err := d.SplitTeam(state, "team-duo")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, d.Entities(), 4, "re-splitting must not mint new atomics")
}

func TestSplitTeam_Rejections(t *testing.T) {
	d, state := pairTestDirectory()
	_, err := d.SplitTeam(state, "no-such-team")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	draft, err := d.SplitTeam(state, "team-duo")
	require.NoError(t, err)

	// Atomics themselves cannot be split again.
	_, err = d.SplitTeam(state, draft.AtomicIDs[0])
	assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition))
}

func TestStage_RemovesPlacementsAndDirties(t *testing.T) {
	d, state := pairTestDirectory()

	require.NoError(t, d.Stage(state, "team-solo"))

	assert.False(t, state.IsPlaced("team-solo"))
	assert.True(t, state.Dirty)
	assert.Equal(t, []domain.EntityID{"team-solo"}, d.Staging())
	assert.Equal(t, domain.StatusStaged, d.StatusOf("team-solo", state))
}

func TestStage_Rejections(t *testing.T) {
	d, state := pairTestDirectory()

	err := d.Stage(state, "team-duo")
	assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition), "multi-member teams must be split first")

	require.NoError(t, d.Stage(state, "team-solo"))
	err = d.Stage(state, "team-solo")
	assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition), "double-staging rejected")

	err = d.Stage(state, "ghost")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestFormPair(t *testing.T) {
	d, state := pairTestDirectory()
	require.NoError(t, d.Stage(state, "team-solo"))
	require.NoError(t, d.Stage(state, "team-solo2"))
	require.True(t, d.CanFormPair())

	draft, composite, err := d.FormPair()
	require.NoError(t, err)

	assert.Equal(t, domain.EntityID("pair:cara@example.com+dan@example.com"), draft.CompositeID)
	assert.Equal(t, [2]domain.EntityID{"team-solo", "team-solo2"}, draft.Components)
	assert.Equal(t, domain.PairPending, draft.Status)

	assert.Equal(t, domain.KindComposite, composite.Ref.Kind)
	assert.Equal(t, 2, composite.Size)
	assert.True(t, composite.CanHostMain, "composite can host main if either component can")
	assert.Len(t, composite.Members, 2)

	assert.Empty(t, d.Staging(), "components consumed from staging")
	assert.Equal(t, domain.StatusPaired, d.StatusOf("team-solo", state))
	assert.Equal(t, domain.StatusPaired, d.StatusOf("team-solo2", state))
}

func TestFormPair_RequiresTwoStaged(t *testing.T) {
	d, state := pairTestDirectory()
	require.NoError(t, d.Stage(state, "team-solo"))

	_, _, err := d.FormPair()
	assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition))
}

func TestRollbackPair_RestoresComponentsInOrder(t *testing.T) {
	d, state := pairTestDirectory()
	require.NoError(t, d.Stage(state, "team-solo"))
	require.NoError(t, d.Stage(state, "team-solo2"))

	draft, _, err := d.FormPair()
	require.NoError(t, err)

	d.RollbackPair(draft)

	assert.Equal(t, []domain.EntityID{"team-solo", "team-solo2"}, d.Staging())
	_, exists := d.Get(draft.CompositeID)
	assert.False(t, exists, "composite id discarded entirely")
	assert.Equal(t, domain.StatusStaged, d.StatusOf("team-solo", state))
}

func TestCompletePair_RetiresComposite(t *testing.T) {
	d, state := pairTestDirectory()
	require.NoError(t, d.Stage(state, "team-solo"))
	require.NoError(t, d.Stage(state, "team-solo2"))

	draft, _, err := d.FormPair()
	require.NoError(t, err)

	d.CompletePair(draft.CompositeID)

	stored, ok := d.PairDraftFor(draft.CompositeID)
	require.True(t, ok)
	assert.Equal(t, domain.PairPersisted, stored.Status)

	// The durable id surfaces only on the next reload; until then the
	// synthetic entity is gone and the components stay consumed.
	_, exists := d.Get(draft.CompositeID)
	assert.False(t, exists)
	assert.Equal(t, domain.StatusPaired, d.StatusOf("team-solo", state))
}

func TestStatusOf_Precedence(t *testing.T) {
	d, state := pairTestDirectory()

	assert.Equal(t, domain.StatusPlaced, d.StatusOf("team-solo", state))
	assert.Equal(t, domain.StatusAvailable, d.StatusOf("team-solo2", state))

	require.NoError(t, d.Stage(state, "team-solo"))
	assert.Equal(t, domain.StatusStaged, d.StatusOf("team-solo", state))

	require.NoError(t, d.Stage(state, "team-solo2"))
	_, _, err := d.FormPair()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaired, d.StatusOf("team-solo", state))
}

func TestAvailable_ExcludesHiddenStagedAndPlaced(t *testing.T) {
	d, state := pairTestDirectory()

	_, err := d.SplitTeam(state, "team-duo")
	require.NoError(t, err)
	require.NoError(t, d.Stage(state, "team-solo"))

	var ids []domain.EntityID
	for _, e := range d.Available(state) {
		ids = append(ids, e.ID)
	}
	assert.NotContains(t, ids, domain.EntityID("team-duo"), "split originals are hidden")
	assert.NotContains(t, ids, domain.EntityID("team-solo"), "staged entities are not available")
	assert.Contains(t, ids, domain.EntityID("team-solo2"))
	assert.Contains(t, ids, domain.EntityID("split:team-duo:ada"))
}
