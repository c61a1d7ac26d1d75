package board

import (
	"planboard/internal/domain"
)

// Directory holds every assignable unit known to the editor: real teams
// loaded from the plan backend plus the synthetic derivatives created by
// splitting and pairing. It also owns the split/pair drafts and the ordered
// pairing staging list.
type Directory struct {
	entities map[domain.EntityID]*domain.Entity
	order    []domain.EntityID
	hidden   map[domain.EntityID]bool
	splits   map[domain.EntityID]*domain.SplitDraft
	staging  []domain.EntityID
	pairs    map[domain.EntityID]*domain.PairDraft
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		entities: make(map[domain.EntityID]*domain.Entity),
		hidden:   make(map[domain.EntityID]bool),
		splits:   make(map[domain.EntityID]*domain.SplitDraft),
		pairs:    make(map[domain.EntityID]*domain.PairDraft),
	}
}

// Add registers an entity. Re-adding an id replaces its record in place.
func (d *Directory) Add(e domain.Entity) {
	if _, ok := d.entities[e.ID]; !ok {
		d.order = append(d.order, e.ID)
	}
	cp := e
	d.entities[e.ID] = &cp
}

// Get returns the entity for id.
func (d *Directory) Get(id domain.EntityID) (*domain.Entity, bool) {
	e, ok := d.entities[id]
	return e, ok
}

// Remove deletes an entity record entirely (retired composites).
func (d *Directory) Remove(id domain.EntityID) {
	if _, ok := d.entities[id]; !ok {
		return
	}
	delete(d.entities, id)
	for i, oid := range d.order {
		if oid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Entities returns all non-hidden entities in insertion order.
func (d *Directory) Entities() []*domain.Entity {
	out := make([]*domain.Entity, 0, len(d.order))
	for _, id := range d.order {
		if d.hidden[id] {
			continue
		}
		out = append(out, d.entities[id])
	}
	return out
}

// IsHidden reports whether id is a split original hidden from listings.
func (d *Directory) IsHidden(id domain.EntityID) bool {
	return d.hidden[id]
}

// Staging returns a copy of the ordered pairing staging list.
func (d *Directory) Staging() []domain.EntityID {
	return append([]domain.EntityID(nil), d.staging...)
}

// SplitDraftFor returns the unfinished split draft for a team, if any.
func (d *Directory) SplitDraftFor(teamID domain.EntityID) (*domain.SplitDraft, bool) {
	s, ok := d.splits[teamID]
	return s, ok
}

// PairDraftFor returns the pair draft for a composite id, if any.
func (d *Directory) PairDraftFor(compositeID domain.EntityID) (*domain.PairDraft, bool) {
	p, ok := d.pairs[compositeID]
	return p, ok
}

// pairedComponent reports whether id is consumed as a component of any pair
// draft, pending or persisted.
func (d *Directory) pairedComponent(id domain.EntityID) bool {
	for _, p := range d.pairs {
		if p.Components[0] == id || p.Components[1] == id {
			return true
		}
	}
	return false
}

// isStaged reports whether id is on the staging list.
func (d *Directory) isStaged(id domain.EntityID) bool {
	for _, sid := range d.staging {
		if sid == id {
			return true
		}
	}
	return false
}

// StatusOf derives the assignment status of an entity by scanning the pair
// drafts, the staging list and the current placements, in that precedence.
// Recomputed on every call; at tens to low hundreds of entities a scan is
// cheaper than keeping incremental bookkeeping honest.
func (d *Directory) StatusOf(id domain.EntityID, state *domain.BoardState) domain.EntityStatus {
	if d.pairedComponent(id) {
		return domain.StatusPaired
	}
	if d.isStaged(id) {
		return domain.StatusStaged
	}
	if state != nil && state.IsPlaced(id) {
		return domain.StatusPlaced
	}
	return domain.StatusAvailable
}

// Available returns the entities an operator may still place or stage:
// non-hidden, status available.
func (d *Directory) Available(state *domain.BoardState) []*domain.Entity {
	var out []*domain.Entity
	for _, e := range d.Entities() {
		if d.StatusOf(e.ID, state) == domain.StatusAvailable {
			out = append(out, e)
		}
	}
	return out
}
