package board

import (
	"testing"

	"planboard/internal/domain"
	"planboard/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDirectory() *Directory {
	d := NewDirectory()
	for _, id := range []string{"team-a", "team-b", "team-c", "team-d"} {
		d.Add(domain.Entity{
			ID:      domain.EntityID(id),
			Ref:     domain.EntityRef{Kind: domain.KindRealTeam},
			Size:    2,
			Members: []domain.Member{{Name: id, Email: id + "@example.com"}},
		})
	}
	return d
}

func testState() *domain.BoardState {
	return &domain.BoardState{
		Version: 3,
		Groups: []domain.Group{
			{Phase: domain.PhaseAppetizer, Host: "team-a", Guests: []domain.EntityID{"team-b"}},
			{Phase: domain.PhaseAppetizer, Host: "team-c", Guests: []domain.EntityID{}},
			{Phase: domain.PhaseMain, Host: "team-b", Guests: []domain.EntityID{"team-a"}},
			{Phase: domain.PhaseDessert, Host: "", Guests: []domain.EntityID{}},
		},
	}
}

func slot(p domain.Phase, idx int, r domain.Role) domain.Slot {
	return domain.Slot{Phase: p, GroupIndex: idx, Role: r}
}

func TestApplyDrop_GuestToHostDemotesPriorHost(t *testing.T) {
	state := testState()
	dir := testDirectory()

	err := ApplyDrop(state, dir, domain.DropEvent{
		EntityID: "team-b",
		From:     slot(domain.PhaseAppetizer, 0, domain.RoleGuest),
		To:       slot(domain.PhaseAppetizer, 0, domain.RoleHost),
	})
	require.NoError(t, err)

	g := state.GroupAt(domain.PhaseAppetizer, 0)
	assert.Equal(t, domain.EntityID("team-b"), g.Host)
	assert.True(t, g.HasGuest("team-a"), "displaced host must be demoted, not dropped")
	assert.False(t, g.HasGuest("team-b"))
	assert.True(t, state.Dirty)
}

func TestApplyDrop_HostToHostRejected(t *testing.T) {
	state := testState()
	dir := testDirectory()

	err := ApplyDrop(state, dir, domain.DropEvent{
		EntityID: "team-a",
		From:     slot(domain.PhaseAppetizer, 0, domain.RoleHost),
		To:       slot(domain.PhaseAppetizer, 1, domain.RoleHost),
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition))

	// Zero state change on rejection.
	assert.Equal(t, domain.EntityID("team-a"), state.GroupAt(domain.PhaseAppetizer, 0).Host)
	assert.Equal(t, domain.EntityID("team-c"), state.GroupAt(domain.PhaseAppetizer, 1).Host)
	assert.False(t, state.Dirty)
}

func TestApplyDrop_HostToGuestRejected(t *testing.T) {
	state := testState()
	dir := testDirectory()

	err := ApplyDrop(state, dir, domain.DropEvent{
		EntityID: "team-a",
		From:     slot(domain.PhaseAppetizer, 0, domain.RoleHost),
		To:       slot(domain.PhaseAppetizer, 1, domain.RoleGuest),
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition))
	assert.False(t, state.Dirty)
}

func TestApplyDrop_HostToUnplacedClearsSlot(t *testing.T) {
	state := testState()
	dir := testDirectory()

	err := ApplyDrop(state, dir, domain.DropEvent{
		EntityID: "team-a",
		From:     slot(domain.PhaseAppetizer, 0, domain.RoleHost),
		To:       domain.Slot{Role: domain.RoleUnplaced},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.EntityID(""), state.GroupAt(domain.PhaseAppetizer, 0).Host)
	// Placements in other phases are untouched.
	assert.True(t, state.GroupAt(domain.PhaseMain, 0).HasGuest("team-a"))
	assert.True(t, state.Dirty)
}

func TestApplyDrop_GuestMovesBetweenGroups(t *testing.T) {
	state := testState()
	dir := testDirectory()

	err := ApplyDrop(state, dir, domain.DropEvent{
		EntityID: "team-b",
		From:     slot(domain.PhaseAppetizer, 0, domain.RoleGuest),
		To:       slot(domain.PhaseAppetizer, 1, domain.RoleGuest),
	})
	require.NoError(t, err)

	assert.False(t, state.GroupAt(domain.PhaseAppetizer, 0).HasGuest("team-b"))
	assert.True(t, state.GroupAt(domain.PhaseAppetizer, 1).HasGuest("team-b"))
}

func TestApplyDrop_UnplacedIntoGuestSlot(t *testing.T) {
	state := testState()
	dir := testDirectory()

	err := ApplyDrop(state, dir, domain.DropEvent{
		EntityID: "team-d",
		From:     domain.Slot{Role: domain.RoleUnplaced},
		To:       slot(domain.PhaseDessert, 0, domain.RoleGuest),
	})
	require.NoError(t, err)
	assert.True(t, state.GroupAt(domain.PhaseDessert, 0).HasGuest("team-d"))
}

func TestApplyDrop_UnplacedOriginAlreadyPlacedInPhase(t *testing.T) {
	state := testState()
	dir := testDirectory()

	// team-a is already placed in appetizer; a drop claiming an unplaced
	// origin into that phase reflects a stale UI.
	err := ApplyDrop(state, dir, domain.DropEvent{
		EntityID: "team-a",
		From:     domain.Slot{Role: domain.RoleUnplaced},
		To:       slot(domain.PhaseAppetizer, 1, domain.RoleGuest),
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition))
}

func TestApplyDrop_StaleOriginRejected(t *testing.T) {
	state := testState()
	dir := testDirectory()

	tests := []struct {
		name string
		ev   domain.DropEvent
	}{
		{
			name: "claims host but is not the host",
			ev: domain.DropEvent{
				EntityID: "team-b",
				From:     slot(domain.PhaseAppetizer, 0, domain.RoleHost),
				To:       domain.Slot{Role: domain.RoleUnplaced},
			},
		},
		{
			name: "claims guest of wrong group",
			ev: domain.DropEvent{
				EntityID: "team-b",
				From:     slot(domain.PhaseAppetizer, 1, domain.RoleGuest),
				To:       slot(domain.PhaseAppetizer, 0, domain.RoleHost),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ApplyDrop(state, dir, tt.ev)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition))
			assert.False(t, state.Dirty)
		})
	}
}

func TestApplyDrop_InvalidDestinations(t *testing.T) {
	state := testState()
	dir := testDirectory()

	tests := []struct {
		name string
		ev   domain.DropEvent
	}{
		{
			name: "unknown phase",
			ev: domain.DropEvent{
				EntityID: "team-d",
				From:     domain.Slot{Role: domain.RoleUnplaced},
				To:       slot("brunch", 0, domain.RoleGuest),
			},
		},
		{
			name: "group index out of range",
			ev: domain.DropEvent{
				EntityID: "team-d",
				From:     domain.Slot{Role: domain.RoleUnplaced},
				To:       slot(domain.PhaseDessert, 5, domain.RoleGuest),
			},
		},
		{
			name: "unknown role",
			ev: domain.DropEvent{
				EntityID: "team-d",
				From:     domain.Slot{Role: domain.RoleUnplaced},
				To:       slot(domain.PhaseDessert, 0, "observer"),
			},
		},
		{
			name: "unknown entity",
			ev: domain.DropEvent{
				EntityID: "team-z",
				From:     domain.Slot{Role: domain.RoleUnplaced},
				To:       slot(domain.PhaseDessert, 0, domain.RoleGuest),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ApplyDrop(state, dir, tt.ev)
			assert.Error(t, err)
			assert.False(t, state.Dirty)
		})
	}
}

func TestApplyDrop_GuestOntoOwnHostRejected(t *testing.T) {
	state := testState()
	dir := testDirectory()

	err := ApplyDrop(state, dir, domain.DropEvent{
		EntityID: "team-a",
		From:     slot(domain.PhaseMain, 0, domain.RoleGuest),
		To:       slot(domain.PhaseAppetizer, 0, domain.RoleGuest),
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition))
}

func TestApplyDrop_PairedComponentLocked(t *testing.T) {
	state := testState()
	dir := testDirectory()

	require.NoError(t, dir.Stage(state, "team-d"))
	require.NoError(t, dir.Stage(state, "team-c"))
	_, _, err := dir.FormPair()
	require.NoError(t, err)

	err = ApplyDrop(state, dir, domain.DropEvent{
		EntityID: "team-d",
		From:     domain.Slot{Role: domain.RoleUnplaced},
		To:       slot(domain.PhaseDessert, 0, domain.RoleGuest),
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePrecondition))
}

func TestApplyDrop_PhaseExclusivityOnHostInstall(t *testing.T) {
	state := testState()
	dir := testDirectory()

	// team-b is a guest of appetizer group 0; promoting it to host of group 1
	// must not leave the stale guest entry behind.
	err := ApplyDrop(state, dir, domain.DropEvent{
		EntityID: "team-b",
		From:     slot(domain.PhaseAppetizer, 0, domain.RoleGuest),
		To:       slot(domain.PhaseAppetizer, 1, domain.RoleHost),
	})
	require.NoError(t, err)

	assert.False(t, state.GroupAt(domain.PhaseAppetizer, 0).HasGuest("team-b"))
	assert.Equal(t, domain.EntityID("team-b"), state.GroupAt(domain.PhaseAppetizer, 1).Host)

	found := 0
	for _, g := range state.Groups {
		if g.Phase == domain.PhaseAppetizer && g.Contains("team-b") {
			found++
		}
	}
	assert.Equal(t, 1, found, "an entity occupies at most one slot per phase")
}

func TestApplyDrop_StagedEntityPlacedDirectly(t *testing.T) {
	state := testState()
	dir := testDirectory()

	require.NoError(t, dir.Stage(state, "team-d"))
	require.Equal(t, []domain.EntityID{"team-d"}, dir.Staging())

	err := ApplyDrop(state, dir, domain.DropEvent{
		EntityID: "team-d",
		From:     domain.Slot{Role: domain.RoleUnplaced},
		To:       slot(domain.PhaseDessert, 0, domain.RoleHost),
	})
	require.NoError(t, err)

	assert.Empty(t, dir.Staging(), "placing a staged entity removes it from staging")
	assert.Equal(t, domain.EntityID("team-d"), state.GroupAt(domain.PhaseDessert, 0).Host)
}
