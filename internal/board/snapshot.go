package board

import (
	"planboard/internal/domain"
)

// DirectorySnapshot is the serializable form of a Directory, used by the
// session snapshot store to survive a process restart.
type DirectorySnapshot struct {
	Entities []domain.Entity     `json:"entities"`
	Hidden   []domain.EntityID   `json:"hidden,omitempty"`
	Splits   []domain.SplitDraft `json:"splits,omitempty"`
	Staging  []domain.EntityID   `json:"staging,omitempty"`
	Pairs    []domain.PairDraft  `json:"pairs,omitempty"`
}

// Snapshot captures the directory, drafts and staging list. Entities keep
// insertion order so a restored directory lists identically.
func (d *Directory) Snapshot() DirectorySnapshot {
	snap := DirectorySnapshot{
		Staging: append([]domain.EntityID(nil), d.staging...),
	}
	for _, id := range d.order {
		snap.Entities = append(snap.Entities, *d.entities[id])
	}
	for id, hidden := range d.hidden {
		if hidden {
			snap.Hidden = append(snap.Hidden, id)
		}
	}
	for _, s := range d.splits {
		snap.Splits = append(snap.Splits, *s)
	}
	for _, p := range d.pairs {
		snap.Pairs = append(snap.Pairs, *p)
	}
	return snap
}

// FromSnapshot rebuilds a directory from its serialized form.
func FromSnapshot(snap DirectorySnapshot) *Directory {
	d := NewDirectory()
	for _, e := range snap.Entities {
		d.Add(e)
	}
	for _, id := range snap.Hidden {
		d.hidden[id] = true
	}
	for i := range snap.Splits {
		s := snap.Splits[i]
		d.splits[s.OriginalTeamID] = &s
	}
	for i := range snap.Pairs {
		p := snap.Pairs[i]
		d.pairs[p.CompositeID] = &p
	}
	d.staging = append([]domain.EntityID(nil), snap.Staging...)
	return d
}
