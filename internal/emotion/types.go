package emotion

import (
	"errors"
	"time"
)

// #region entry
// Entry is one immutable, append-only emotion log record.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	RawText   string    `json:"raw_text"`
	Tags      []string  `json:"emotion_tags"`
	Severity  float64   `json:"severity"`  // 0-10, intensity of negative content
	Stability float64   `json:"stability"` // 0-10, 10 = most stable
	Summary   string    `json:"summary"`
}

// HasTag reports whether any of the entry's tags equals one of want (tags are stored lowercase).
func (e Entry) HasTag(want []string) bool {
	for _, t := range e.Tags {
		for _, w := range want {
			if t == w {
				return true
			}
		}
	}
	return false
}

// #endregion entry

// #region analysis
// Analysis is the structured output of the emotion model.
type Analysis struct {
	Tags      []string `json:"emotion_tags" jsonschema:"required,description=lowercase emotion words such as anxious or tired"`
	Severity  float64  `json:"severity" jsonschema:"required,minimum=0,maximum=10,description=intensity of negative emotion"`
	Stability float64  `json:"stability" jsonschema:"required,minimum=0,maximum=10,description=emotional steadiness; 10 is most stable"`
	Summary   string   `json:"summary" jsonschema:"required,description=one short phrase describing the mood"`
}

// #endregion analysis

// #region summaries
const (
	SummaryShortInput     = "Neutral (Short Input)"
	SummaryAnalysisFailed = "Neutral (Analysis Failed)"
)

// #endregion summaries

// #region errors
var (
	ErrEmptyText = errors.New("emotion: text is empty")
	ErrMalformed = errors.New("emotion: malformed analysis")
)

// #endregion errors
