package consolidate

import (
	"errors"

	"github.com/danielpatrickdp/companion-core/internal/profile"
)

// #region config
// Config controls which extracted facts are kept.
type Config struct {
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	MaxTextLen    int     `mapstructure:"max_text_len" yaml:"max_text_len"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{MinConfidence: 0.6, MaxTextLen: 240}
}

// #endregion config

// #region extraction
// Item is one extracted fact.
type Item struct {
	Text       string  `json:"text" jsonschema:"required,maxLength=240"`
	Confidence float64 `json:"confidence" jsonschema:"required,minimum=0,maximum=1"`
}

// Extraction is the model's structured reading of a transcript.
type Extraction struct {
	Traumas           []Item `json:"traumas" jsonschema:"required"`
	MajorEvents       []Item `json:"major_events" jsonschema:"required"`
	Fears             []Item `json:"fears" jsonschema:"required"`
	LongTermGoals     []Item `json:"long_term_goals" jsonschema:"required"`
	MeaningfulHobbies []Item `json:"meaningful_hobbies" jsonschema:"required"`
	Notes             string `json:"notes,omitempty"`
}

// Memory types stored on the profile.
const (
	TypeTrauma     = "trauma"
	TypeMajorEvent = "major_event"
	TypeFear       = "fear"
	TypeGoal       = "goal"
	TypeHobby      = "hobby"
)

// categories pairs each extraction list with its memory type, in storage order.
func (e Extraction) categories() []struct {
	kind  string
	items []Item
} {
	return []struct {
		kind  string
		items []Item
	}{
		{TypeTrauma, e.Traumas},
		{TypeMajorEvent, e.MajorEvents},
		{TypeFear, e.Fears},
		{TypeGoal, e.LongTermGoals},
		{TypeHobby, e.MeaningfulHobbies},
	}
}

// #endregion extraction

// #region result
// SkipReason explains why an extracted fact was not stored.
type SkipReason string

const (
	SkipEmpty         SkipReason = "empty"
	SkipLowConfidence SkipReason = "low_confidence"
	SkipDuplicate     SkipReason = "duplicate"
)

// Skipped is an extracted fact that was dropped.
type Skipped struct {
	Type   string     `json:"type"`
	Text   string     `json:"text"`
	Reason SkipReason `json:"reason"`
}

// Result reports what a consolidation added and skipped.
type Result struct {
	Added   []profile.Memory `json:"added"`
	Skipped []Skipped        `json:"skipped"`
	Notes   string           `json:"notes,omitempty"`
	DryRun  bool             `json:"dry_run"`
	// Persisted is true when Added was merged into a stored profile.
	Persisted bool `json:"persisted"`
}

// #endregion result

// #region errors
var (
	ErrEmptyTranscript = errors.New("consolidate: transcript is empty")
	ErrExtraction      = errors.New("consolidate: extraction failed")
)

// #endregion errors
