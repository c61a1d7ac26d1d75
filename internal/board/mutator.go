package board

import (
	"fmt"

	"planboard/internal/domain"
	"planboard/pkg/errors"
)

// ApplyDrop is the drag-and-drop reducer. It validates the transition
// against the current state and either applies it fully — setting the dirty
// flag — or rejects it with a precondition error and zero state change.
// Rendering and remote reconciliation are the caller's concern; the reducer
// itself never does I/O.
func ApplyDrop(state *domain.BoardState, dir *Directory, ev domain.DropEvent) error {
	if ev.EntityID == "" {
		return errors.NewPreconditionError("drop requires an entity id")
	}
	if _, ok := dir.Get(ev.EntityID); !ok || dir.IsHidden(ev.EntityID) {
		return errors.NewNotFoundError(fmt.Sprintf("entity %s not available", ev.EntityID))
	}
	if dir.pairedComponent(ev.EntityID) {
		return errors.NewPreconditionError(fmt.Sprintf("entity %s is consumed by a pairing", ev.EntityID))
	}

	switch ev.To.Role {
	case domain.RoleHost, domain.RoleGuest:
		if !domain.ValidPhase(ev.To.Phase) {
			return errors.NewPreconditionError(fmt.Sprintf("unknown phase %q", ev.To.Phase))
		}
		if state.GroupAt(ev.To.Phase, ev.To.GroupIndex) == nil {
			return errors.NewPreconditionError(fmt.Sprintf("no group %d in phase %s", ev.To.GroupIndex, ev.To.Phase))
		}
	case domain.RoleUnplaced:
		// destination index ignored
	default:
		return errors.NewPreconditionError(fmt.Sprintf("unknown role %q", ev.To.Role))
	}

	if err := verifyOrigin(state, dir, ev); err != nil {
		return err
	}

	switch ev.To.Role {
	case domain.RoleHost:
		return dropToHost(state, dir, ev)
	case domain.RoleGuest:
		return dropToGuest(state, dir, ev)
	default:
		return dropToUnplaced(state, ev)
	}
}

// verifyOrigin checks that the event's claimed origin matches reality, so a
// stale UI cannot apply a transition against a board it no longer reflects.
func verifyOrigin(state *domain.BoardState, dir *Directory, ev domain.DropEvent) error {
	switch ev.From.Role {
	case domain.RoleHost, domain.RoleGuest:
		if !domain.ValidPhase(ev.From.Phase) {
			return errors.NewPreconditionError(fmt.Sprintf("unknown phase %q", ev.From.Phase))
		}
		g := state.GroupAt(ev.From.Phase, ev.From.GroupIndex)
		if g == nil {
			return errors.NewPreconditionError(fmt.Sprintf("no group %d in phase %s", ev.From.GroupIndex, ev.From.Phase))
		}
		if ev.From.Role == domain.RoleHost && g.Host != ev.EntityID {
			return errors.NewPreconditionError(fmt.Sprintf("entity %s does not host that group", ev.EntityID))
		}
		if ev.From.Role == domain.RoleGuest && !g.HasGuest(ev.EntityID) {
			return errors.NewPreconditionError(fmt.Sprintf("entity %s is not a guest of that group", ev.EntityID))
		}
		return nil
	case domain.RoleUnplaced:
		if ev.To.Role != domain.RoleUnplaced && state.FindSlot(ev.EntityID, ev.To.Phase) != nil {
			return errors.NewPreconditionError(fmt.Sprintf("entity %s is already placed in phase %s", ev.EntityID, ev.To.Phase))
		}
		return nil
	default:
		return errors.NewPreconditionError(fmt.Sprintf("unknown role %q", ev.From.Role))
	}
}

func dropToHost(state *domain.BoardState, dir *Directory, ev domain.DropEvent) error {
	// Promotion must go through a guest role first; host-to-host moves are
	// rejected so a group is never silently left without its host.
	if ev.From.Role == domain.RoleHost {
		return errors.NewPreconditionError("a host cannot be moved onto another host slot; demote it to guest first")
	}

	dest := state.GroupAt(ev.To.Phase, ev.To.GroupIndex)

	if ev.From.Role == domain.RoleGuest {
		origin := state.GroupAt(ev.From.Phase, ev.From.GroupIndex)
		origin.RemoveGuest(ev.EntityID)
	} else {
		dir.removeStagingEntry(ev.EntityID)
	}

	// Placement exclusivity within the destination phase.
	removeFromPhase(state, ev.EntityID, ev.To.Phase)

	// The displaced host is demoted into the same group's guest list,
	// never silently dropped.
	if prior := dest.Host; prior != "" && prior != ev.EntityID {
		dest.AddGuest(prior)
	}
	dest.Host = ev.EntityID
	state.Dirty = true
	return nil
}

func dropToGuest(state *domain.BoardState, dir *Directory, ev domain.DropEvent) error {
	if ev.From.Role == domain.RoleHost {
		return errors.NewPreconditionError("a host cannot be dropped into a guest slot; move it to unplaced first")
	}

	dest := state.GroupAt(ev.To.Phase, ev.To.GroupIndex)
	if dest.Host == ev.EntityID {
		return errors.NewPreconditionError(fmt.Sprintf("entity %s already hosts that group", ev.EntityID))
	}

	if ev.From.Role == domain.RoleGuest {
		origin := state.GroupAt(ev.From.Phase, ev.From.GroupIndex)
		origin.RemoveGuest(ev.EntityID)
	} else {
		dir.removeStagingEntry(ev.EntityID)
	}

	removeFromPhase(state, ev.EntityID, ev.To.Phase)
	dest.AddGuest(ev.EntityID)
	state.Dirty = true
	return nil
}

func dropToUnplaced(state *domain.BoardState, ev domain.DropEvent) error {
	if ev.From.Role == domain.RoleUnplaced {
		return errors.NewPreconditionError("entity is already unplaced")
	}
	origin := state.GroupAt(ev.From.Phase, ev.From.GroupIndex)
	if ev.From.Role == domain.RoleHost {
		origin.Host = ""
	} else {
		origin.RemoveGuest(ev.EntityID)
	}
	state.Dirty = true
	return nil
}

// removeFromPhase clears id from every slot of one phase.
func removeFromPhase(state *domain.BoardState, id domain.EntityID, p domain.Phase) {
	for i := range state.Groups {
		if state.Groups[i].Phase != p {
			continue
		}
		if state.Groups[i].Host == id {
			state.Groups[i].Host = ""
		}
		state.Groups[i].RemoveGuest(id)
	}
}

// removeStagingEntry drops the bookkeeping entry for an entity placed
// straight from the staged pool. Missing entries are fine; most unplaced
// entities were never staged.
func (d *Directory) removeStagingEntry(id domain.EntityID) {
	for i, sid := range d.staging {
		if sid == id {
			d.staging = append(d.staging[:i], d.staging[i+1:]...)
			return
		}
	}
}
