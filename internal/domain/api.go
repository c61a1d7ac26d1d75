package domain

// Wire payloads exchanged with the plan backend. The backend speaks plain
// string ids; kind information lives only in the local directory.

// Metrics carries the derived plan-quality numbers returned by the backend.
type Metrics map[string]float64

// GroupPayload is one group on the wire.
type GroupPayload struct {
	Phase         string   `json:"phase"`
	HostID        string   `json:"host_id,omitempty"`
	GuestIDs      []string `json:"guest_ids"`
	TravelSeconds *float64 `json:"travel_seconds,omitempty"`
	Score         *float64 `json:"score,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// MemberPayload is one member inside a team_details entry.
type MemberPayload struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Diet      string `json:"diet,omitempty"`
	Allergies string `json:"allergies,omitempty"`
	Paid      bool   `json:"paid"`
}

// TeamPayload is one team_details entry from the details endpoint.
type TeamPayload struct {
	ID               string          `json:"id"`
	Size             int             `json:"size"`
	Members          []MemberPayload `json:"members"`
	CoursePreference string          `json:"course_preference,omitempty"`
	CanHostMain      bool            `json:"can_host_main"`
}

// DetailsResult is the primary load response for one proposal version.
type DetailsResult struct {
	Version     int                    `json:"version"`
	Groups      []GroupPayload         `json:"groups"`
	TeamDetails map[string]TeamPayload `json:"team_details"`
	Metrics     Metrics                `json:"metrics"`
}

// PreviewResult refreshes derived display fields only.
type PreviewResult struct {
	Groups  []GroupPayload `json:"groups"`
	Metrics Metrics        `json:"metrics"`
}

// Violation is one structural warning, e.g. a pair of teams meeting twice.
type Violation struct {
	Pair  []string `json:"pair,omitempty"`
	Count int      `json:"count,omitempty"`
	Text  string   `json:"text,omitempty"`
}

// ValidateResult is the advisory validation response.
type ValidateResult struct {
	Violations  []Violation `json:"violations"`
	PhaseIssues []string    `json:"phase_issues"`
	GroupIssues []string    `json:"group_issues"`
}

// Save statuses returned by set_groups.
const (
	SaveStatusOK      = "ok"
	SaveStatusWarning = "warning"
)

// SaveResult is the set_groups response. Status "warning" means the backend
// refused to commit without force.
type SaveResult struct {
	Status      string      `json:"status"`
	Violations  []Violation `json:"violations,omitempty"`
	PhaseIssues []string    `json:"phase_issues,omitempty"`
}

// GroupIssues is the per-group entry of the issues endpoint.
type GroupIssues struct {
	Group       int            `json:"group"`
	Issues      []string       `json:"issues"`
	IssueCounts map[string]int `json:"issue_counts,omitempty"`
	Actors      []string       `json:"actors,omitempty"`
}

// IssuesResult is consumed for the pre-release confirmation.
type IssuesResult struct {
	Issues []GroupIssues `json:"issues"`
}

// ToPayload converts a local group to its wire form.
func (g *Group) ToPayload() GroupPayload {
	guests := make([]string, len(g.Guests))
	for i, id := range g.Guests {
		guests[i] = string(id)
	}
	return GroupPayload{
		Phase:         string(g.Phase),
		HostID:        string(g.Host),
		GuestIDs:      guests,
		TravelSeconds: g.TravelSeconds,
		Score:         g.Score,
		Warnings:      g.Warnings,
	}
}

// GroupFromPayload converts a wire group to its local form.
func GroupFromPayload(p GroupPayload) Group {
	guests := make([]EntityID, len(p.GuestIDs))
	for i, id := range p.GuestIDs {
		guests[i] = EntityID(id)
	}
	return Group{
		Phase:         Phase(p.Phase),
		Host:          EntityID(p.HostID),
		Guests:        guests,
		TravelSeconds: p.TravelSeconds,
		Score:         p.Score,
		Warnings:      p.Warnings,
	}
}

// GroupPayloads converts a whole board for preview/validate/save requests.
func GroupPayloads(groups []Group) []GroupPayload {
	out := make([]GroupPayload, len(groups))
	for i := range groups {
		out[i] = groups[i].ToPayload()
	}
	return out
}

// EntityFromTeamPayload builds a real-team directory entry from a
// team_details record.
func EntityFromTeamPayload(p TeamPayload) Entity {
	members := make([]Member, len(p.Members))
	for i, m := range p.Members {
		members[i] = Member{Name: m.Name, Email: m.Email, Diet: m.Diet, Allergies: m.Allergies, Paid: m.Paid}
	}
	size := p.Size
	if size == 0 {
		size = len(members)
	}
	return Entity{
		ID:               EntityID(p.ID),
		Ref:              EntityRef{Kind: KindRealTeam},
		Size:             size,
		Members:          members,
		CoursePreference: Phase(p.CoursePreference),
		CanHostMain:      p.CanHostMain,
	}
}
