package suggest

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/companion-core/internal/phase"
)

// #region enums
// Difficulty is how much effort a suggestion asks for.
type Difficulty string

const (
	VeryEasy Difficulty = "very_easy"
	Easy     Difficulty = "easy"
	Medium   Difficulty = "medium"
	Hard     Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case VeryEasy, Easy, Medium, Hard:
		return true
	}
	return false
}

// Category groups suggestions by kind of activity.
type Category string

const (
	Comfort    Category = "comfort"
	Creative   Category = "creative"
	Physical   Category = "physical"
	Social     Category = "social"
	Reflective Category = "reflective"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case Comfort, Creative, Physical, Social, Reflective:
		return true
	}
	return false
}

// TiedTo names the signal a suggestion addresses.
type TiedTo string

const (
	TiedStress  TiedTo = "stress"
	TiedBurnout TiedTo = "burnout"
	TiedDanger  TiedTo = "danger"
	TiedProfile TiedTo = "profile"
	TiedGeneral TiedTo = "general"
)

// normalizeTiedTo maps unknown values to TiedGeneral.
func normalizeTiedTo(s string) TiedTo {
	switch t := TiedTo(s); t {
	case TiedStress, TiedBurnout, TiedDanger, TiedProfile, TiedGeneral:
		return t
	}
	return TiedGeneral
}

// #endregion enums

// #region suggestion
// Snapshot records the scores a suggestion was produced for.
type Snapshot struct {
	Stress  int `json:"stress"`
	Burnout int `json:"burnout"`
	Danger  int `json:"danger"`
}

// Meta links a suggestion to the signal it addresses.
type Meta struct {
	TiedTo   TiedTo    `json:"tied_to"`
	Snapshot *Snapshot `json:"prediction_snapshot,omitempty"`
}

// Suggestion is one supportive, optional action offered to the user.
type Suggestion struct {
	ID               string     `json:"id"`
	Text             string     `json:"text"`
	Reason           string     `json:"reason"`
	PermissionPrompt string     `json:"permission_prompt"`
	Difficulty       Difficulty `json:"difficulty"`
	Category         Category   `json:"category"`
	Meta             Meta       `json:"meta"`
}

// #endregion suggestion

// #region result
// Result is the response of a suggestion request.
type Result struct {
	Phase        phase.Phase       `json:"phase"`
	Scores       Snapshot          `json:"predictions"`
	Explanations map[string]string `json:"explanations"`
	Suggestions  []Suggestion      `json:"suggestions"`
	Urgent       bool              `json:"urgent"`
	Timestamp    time.Time         `json:"timestamp"`
	UsedFallback bool              `json:"used_fallback"`
}

// #endregion result

// #region limits
const (
	MinCount = 1
	MaxCount = 10
)

var ErrInvalidCount = errors.New("suggest: num must be between 1 and 10")

// #endregion limits
