package domain

// Phase is one meal segment of the rotating dinner. Every entity occupies at
// most one host-or-guest role per phase in a finalized plan.
type Phase string

const (
	PhaseAppetizer Phase = "appetizer"
	PhaseMain      Phase = "main"
	PhaseDessert   Phase = "dessert"
)

// Phases returns the fixed phase order.
func Phases() []Phase {
	return []Phase{PhaseAppetizer, PhaseMain, PhaseDessert}
}

// ValidPhase reports whether p is one of the known phases.
func ValidPhase(p Phase) bool {
	switch p {
	case PhaseAppetizer, PhaseMain, PhaseDessert:
		return true
	}
	return false
}

// Role is the position an entity holds inside a slot.
type Role string

const (
	RoleHost     Role = "host"
	RoleGuest    Role = "guest"
	RoleUnplaced Role = "unplaced"
)

// Slot addresses one drop target on the board. GroupIndex is ignored when
// Role is RoleUnplaced.
type Slot struct {
	Phase      Phase `json:"phase"`
	GroupIndex int   `json:"group_index"`
	Role       Role  `json:"role"`
}

// DropEvent is one drag-and-drop transition as emitted by the UI adapter.
type DropEvent struct {
	EntityID EntityID `json:"entity_id"`
	From     Slot     `json:"from"`
	To       Slot     `json:"to"`
}

// Group is the per-phase assignment unit: one host entity plus its guests.
// TravelSeconds, Score and Warnings are derived display fields refreshed by
// preview responses; they are never authoritative.
type Group struct {
	Phase         Phase      `json:"phase"`
	Host          EntityID   `json:"host,omitempty"`
	Guests        []EntityID `json:"guests"`
	TravelSeconds *float64   `json:"travel_seconds,omitempty"`
	Score         *float64   `json:"score,omitempty"`
	Warnings      []string   `json:"warnings,omitempty"`
}

// HasGuest reports whether id is in the guest list.
func (g *Group) HasGuest(id EntityID) bool {
	for _, gid := range g.Guests {
		if gid == id {
			return true
		}
	}
	return false
}

// AddGuest appends id to the guest list unless it is already present.
func (g *Group) AddGuest(id EntityID) {
	if !g.HasGuest(id) {
		g.Guests = append(g.Guests, id)
	}
}

// RemoveGuest deletes id from the guest list, preserving order. It reports
// whether anything was removed.
func (g *Group) RemoveGuest(id EntityID) bool {
	for i, gid := range g.Guests {
		if gid == id {
			g.Guests = append(g.Guests[:i], g.Guests[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether id occupies the host or a guest slot of g.
func (g *Group) Contains(id EntityID) bool {
	return g.Host == id || g.HasGuest(id)
}

// BoardState is the authoritative local copy of one proposal version. It is
// created by Load, mutated by the reducer and the derivation engine, and
// wholly replaced on reload; there is no incremental merge with server state.
type BoardState struct {
	Version int     `json:"version"`
	Groups  []Group `json:"groups"`
	Dirty   bool    `json:"dirty"`
}

// GroupsInPhase returns the indexes (into Groups) of all groups of phase p,
// in board order.
func (s *BoardState) GroupsInPhase(p Phase) []int {
	var idx []int
	for i := range s.Groups {
		if s.Groups[i].Phase == p {
			idx = append(idx, i)
		}
	}
	return idx
}

// FindSlot returns the slot id currently occupies within phase p, or nil if
// it is unplaced there.
func (s *BoardState) FindSlot(id EntityID, p Phase) *Slot {
	n := 0
	for i := range s.Groups {
		if s.Groups[i].Phase != p {
			continue
		}
		if s.Groups[i].Host == id {
			return &Slot{Phase: p, GroupIndex: n, Role: RoleHost}
		}
		if s.Groups[i].HasGuest(id) {
			return &Slot{Phase: p, GroupIndex: n, Role: RoleGuest}
		}
		n++
	}
	return nil
}

// GroupAt resolves a slot's phase-relative index to the group it addresses.
func (s *BoardState) GroupAt(p Phase, phaseIndex int) *Group {
	n := 0
	for i := range s.Groups {
		if s.Groups[i].Phase != p {
			continue
		}
		if n == phaseIndex {
			return &s.Groups[i]
		}
		n++
	}
	return nil
}

// RemoveEverywhere removes id from every host and guest slot on the board.
// It reports whether any group changed.
func (s *BoardState) RemoveEverywhere(id EntityID) bool {
	changed := false
	for i := range s.Groups {
		if s.Groups[i].Host == id {
			s.Groups[i].Host = ""
			changed = true
		}
		if s.Groups[i].RemoveGuest(id) {
			changed = true
		}
	}
	return changed
}

// IsPlaced reports whether id occupies any host or guest slot.
func (s *BoardState) IsPlaced(id EntityID) bool {
	for i := range s.Groups {
		if s.Groups[i].Contains(id) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the state. The reducer mutates in place; the
// clone is for snapshots and rollback points.
func (s *BoardState) Clone() *BoardState {
	out := &BoardState{Version: s.Version, Dirty: s.Dirty}
	out.Groups = make([]Group, len(s.Groups))
	for i, g := range s.Groups {
		cg := g
		cg.Guests = append([]EntityID(nil), g.Guests...)
		cg.Warnings = append([]string(nil), g.Warnings...)
		if g.TravelSeconds != nil {
			v := *g.TravelSeconds
			cg.TravelSeconds = &v
		}
		if g.Score != nil {
			v := *g.Score
			cg.Score = &v
		}
		out.Groups[i] = cg
	}
	return out
}
