package board

import (
	"fmt"

	"planboard/internal/domain"
	"planboard/pkg/errors"
)

// Synthetic derivation: splitting a real team into atomic participants and
// combining staged atomics/solos into composite teams. All operations either
// complete fully or leave directory and board state untouched.

// SplitTeam produces one atomic participant per member of a real team,
// removes the team from every group it occupies and hides it from available
// listings. Calling it again while the draft is unfinished is a no-op
// returning the existing draft.
func (d *Directory) SplitTeam(state *domain.BoardState, teamID domain.EntityID) (*domain.SplitDraft, error) {
	if draft, ok := d.splits[teamID]; ok {
		return draft, nil
	}

	team, ok := d.Get(teamID)
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("team %s not found", teamID))
	}
	if team.Ref.Kind != domain.KindRealTeam {
		return nil, errors.NewPreconditionError("only real teams can be split")
	}
	if len(team.Members) < 1 {
		return nil, errors.NewPreconditionError("team has no members to split")
	}

	taken := func(id domain.EntityID) bool {
		_, exists := d.entities[id]
		return exists
	}

	draft := &domain.SplitDraft{
		OriginalTeamID:  teamID,
		PerMemberStatus: make(map[domain.EntityID]domain.EntityStatus, len(team.Members)),
	}
	for _, m := range team.Members {
		id := AtomicID(teamID, MemberKey(m), taken)
		d.Add(domain.Entity{
			ID: id,
			Ref: domain.EntityRef{
				Kind:      domain.KindAtomic,
				ParentID:  teamID,
				MemberKey: MemberKey(m),
			},
			Size:             1,
			Members:          []domain.Member{m},
			CoursePreference: team.CoursePreference,
			CanHostMain:      team.CanHostMain,
		})
		draft.AtomicIDs = append(draft.AtomicIDs, id)
		draft.PerMemberStatus[id] = domain.StatusAvailable
	}

	if state.RemoveEverywhere(teamID) {
		state.Dirty = true
	}
	d.hidden[teamID] = true
	d.splits[teamID] = draft

	return draft, nil
}

// Stage appends an entity to the ordered pairing staging list. Entities that
// are already staged or consumed by a pairing are rejected, as are
// multi-member real teams (split first). A placed entity is removed from its
// slots before staging, which dirties the board.
func (d *Directory) Stage(state *domain.BoardState, id domain.EntityID) error {
	e, ok := d.Get(id)
	if !ok || d.hidden[id] {
		return errors.NewNotFoundError(fmt.Sprintf("entity %s not available", id))
	}
	if d.pairedComponent(id) {
		return errors.NewPreconditionError(fmt.Sprintf("entity %s is already part of a pair", id))
	}
	if d.isStaged(id) {
		return errors.NewPreconditionError(fmt.Sprintf("entity %s is already staged", id))
	}
	if e.Ref.Kind == domain.KindRealTeam && len(e.Members) > 1 {
		return errors.NewPreconditionError("multi-member teams must be split before pairing")
	}

	if state.RemoveEverywhere(id) {
		state.Dirty = true
	}
	d.staging = append(d.staging, id)
	return nil
}

// Unstage removes an entity from the staging list, returning it to the
// available pool.
func (d *Directory) Unstage(id domain.EntityID) error {
	for i, sid := range d.staging {
		if sid == id {
			d.staging = append(d.staging[:i], d.staging[i+1:]...)
			return nil
		}
	}
	return errors.NewNotFoundError(fmt.Sprintf("entity %s is not staged", id))
}

// CanFormPair reports whether enough entities are staged to form a pair.
func (d *Directory) CanFormPair() bool {
	return len(d.staging) >= 2
}

// FormPair atomically consumes the first two staged entities and synthesizes
// a composite team: size is the sum, can-host-main the OR, members the
// concatenation of the components. The caller must immediately attempt
// persistence and, on failure, undo with RollbackPair.
func (d *Directory) FormPair() (*domain.PairDraft, *domain.Entity, error) {
	if !d.CanFormPair() {
		return nil, nil, errors.NewPreconditionError("pairing requires two staged entities")
	}

	first, second := d.staging[0], d.staging[1]
	a, okA := d.Get(first)
	b, okB := d.Get(second)
	if !okA || !okB {
		return nil, nil, errors.NewInternalError("staged entity missing from directory", nil)
	}

	taken := func(id domain.EntityID) bool {
		_, exists := d.entities[id]
		return exists
	}
	compositeID := CompositeID(a, b, taken)

	members := make([]domain.Member, 0, len(a.Members)+len(b.Members))
	members = append(members, a.Members...)
	members = append(members, b.Members...)

	pref := a.CoursePreference
	if pref == "" {
		pref = b.CoursePreference
	}

	composite := domain.Entity{
		ID: compositeID,
		Ref: domain.EntityRef{
			Kind:       domain.KindComposite,
			Components: []domain.EntityID{first, second},
		},
		Size:             a.Size + b.Size,
		Members:          members,
		CoursePreference: pref,
		CanHostMain:      a.CanHostMain || b.CanHostMain,
	}

	draft := &domain.PairDraft{
		CompositeID: compositeID,
		Components:  [2]domain.EntityID{first, second},
		Status:      domain.PairPending,
	}

	d.staging = d.staging[2:]
	d.Add(composite)
	d.pairs[compositeID] = draft

	return draft, &composite, nil
}

// RollbackPair fully undoes a failed pairing: both components return to the
// front of the staging list in their original order and the composite id is
// discarded entirely.
func (d *Directory) RollbackPair(draft *domain.PairDraft) {
	delete(d.pairs, draft.CompositeID)
	d.Remove(draft.CompositeID)
	restored := make([]domain.EntityID, 0, len(d.staging)+2)
	restored = append(restored, draft.Components[0], draft.Components[1])
	restored = append(restored, d.staging...)
	d.staging = restored
}

// CompletePair retires a successfully persisted pairing. The draft stays,
// marked persisted, so the components keep reporting status "paired"; the
// synthetic entity record is removed — the durable team id surfaces only on
// the next explicit reload.
func (d *Directory) CompletePair(compositeID domain.EntityID) {
	if draft, ok := d.pairs[compositeID]; ok {
		draft.Status = domain.PairPersisted
	}
	d.Remove(compositeID)
}
