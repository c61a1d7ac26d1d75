package domain

// Renderer projection types. A view is a pure function of board state plus
// directory; re-rendering from the same state always yields the same view.

// EntityView is one draggable chip on the board.
type EntityView struct {
	ID          EntityID     `json:"id"`
	Kind        EntityKind   `json:"kind"`
	Label       string       `json:"label"`
	Size        int          `json:"size"`
	Status      EntityStatus `json:"status"`
	CanHostMain bool         `json:"can_host_main"`
}

// GroupView is one group column with resolved entities.
type GroupView struct {
	Index         int          `json:"index"`
	Host          *EntityView  `json:"host,omitempty"`
	Guests        []EntityView `json:"guests"`
	TravelSeconds *float64     `json:"travel_seconds,omitempty"`
	Score         *float64     `json:"score,omitempty"`
	Warnings      []string     `json:"warnings,omitempty"`
}

// PhaseView groups the board by phase in fixed phase order.
type PhaseView struct {
	Phase  Phase       `json:"phase"`
	Groups []GroupView `json:"groups"`
}

// BoardView is the full rendered board returned to the UI adapter.
type BoardView struct {
	Version  int             `json:"version"`
	Dirty    bool            `json:"dirty"`
	Phases   []PhaseView     `json:"phases"`
	Unplaced []EntityView    `json:"unplaced"`
	Staged   []EntityView    `json:"staged"`
	Metrics  Metrics         `json:"metrics,omitempty"`
	Advisory *ValidateResult `json:"advisory,omitempty"`
}
