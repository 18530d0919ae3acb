package feedback

import (
	"errors"
	"time"
)

// #region action
// Action is what the user did with a suggestion.
type Action string

const (
	ActionAccepted  Action = "accepted"
	ActionRejected  Action = "rejected"
	ActionCompleted Action = "completed"
	ActionDismissed Action = "dismissed"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionAccepted, ActionRejected, ActionCompleted, ActionDismissed:
		return true
	}
	return false
}

// Positive reports whether a counts toward preferences.
func (a Action) Positive() bool {
	return a == ActionAccepted || a == ActionCompleted
}

// #endregion action

// #region entry
// Meta describes the suggestion an interaction refers to.
type Meta struct {
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	TiedTo     string `json:"tied_to,omitempty"`
}

// Entry is one append-only interaction record.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	SuggestionID string    `json:"suggestion_id"`
	Action       Action    `json:"action"`
	Rating       *int      `json:"rating,omitempty"` // 1-5 when given
	Meta         Meta      `json:"meta"`
}

// #endregion entry

// #region preferences
// Preferences is derived on demand from a user's history. Empty strings mean no preference.
type Preferences struct {
	PreferredCategory   string  `json:"preferred_category"`
	PreferredDifficulty string  `json:"preferred_difficulty"`
	AcceptanceRate      float64 `json:"acceptance_rate"`
	TotalInteractions   int     `json:"total_interactions"`
}

// #endregion preferences

// #region errors
var (
	ErrInvalidAction     = errors.New("feedback: invalid action")
	ErrInvalidRating     = errors.New("feedback: rating must be between 1 and 5")
	ErrMissingSuggestion = errors.New("feedback: suggestion id is required")
)

// #endregion errors
