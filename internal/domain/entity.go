package domain

// EntityID identifies any assignable unit. Real team ids are server-assigned
// and opaque; synthetic ids are deterministic client-side derivations that
// only become durable through explicit persistence.
type EntityID string

// EntityKind discriminates the three entity shapes. Kind is carried
// explicitly on the ref; it is never recovered by parsing the id string.
type EntityKind string

const (
	KindRealTeam  EntityKind = "real"
	KindAtomic    EntityKind = "atomic"
	KindComposite EntityKind = "composite"
)

// EntityRef is the tagged union behind an entity id:
// a real team, an atomic participant split out of a parent team, or a
// composite formed from exactly two components.
type EntityRef struct {
	Kind       EntityKind `json:"kind"`
	ParentID   EntityID   `json:"parent_id,omitempty"`
	MemberKey  string     `json:"member_key,omitempty"`
	Components []EntityID `json:"components,omitempty"`
}

// Member is one person belonging to an entity.
type Member struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Diet      string `json:"diet,omitempty"`
	Allergies string `json:"allergies,omitempty"`
	Paid      bool   `json:"paid"`
}

// Entity is any assignable unit on the board.
type Entity struct {
	ID               EntityID  `json:"id"`
	Ref              EntityRef `json:"ref"`
	Size             int       `json:"size"`
	Members          []Member  `json:"members"`
	CoursePreference Phase     `json:"course_preference,omitempty"`
	CanHostMain      bool      `json:"can_host_main"`
}

// IsSynthetic reports whether the entity exists only client-side until
// persisted.
func (e *Entity) IsSynthetic() bool {
	return e.Ref.Kind != KindRealTeam
}

// EntityStatus is the derived assignment status of an entity. It is
// recomputed by scanning the staging list, pair drafts and group placements;
// there is no incremental bookkeeping.
type EntityStatus string

const (
	StatusAvailable EntityStatus = "available"
	StatusStaged    EntityStatus = "staged"
	StatusPaired    EntityStatus = "paired"
	StatusPlaced    EntityStatus = "placed"
)

// SplitDraft records an in-progress team split: the original team is hidden
// from available listings and replaced by one atomic per member.
type SplitDraft struct {
	OriginalTeamID  EntityID                  `json:"original_team_id"`
	AtomicIDs       []EntityID                `json:"atomic_ids"`
	PerMemberStatus map[EntityID]EntityStatus `json:"per_member_status"`
}

// PairDraftStatus is the lifecycle of a pairing draft.
type PairDraftStatus string

const (
	PairPending   PairDraftStatus = "pending"
	PairPersisted PairDraftStatus = "persisted"
)

// PairDraft records a composite formed from exactly two staged components,
// awaiting durable persistence on the plan backend.
type PairDraft struct {
	CompositeID EntityID        `json:"composite_id"`
	Components  [2]EntityID     `json:"components"`
	Status      PairDraftStatus `json:"status"`
}
