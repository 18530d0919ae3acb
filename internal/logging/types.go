package logging

import (
	"time"

	"github.com/danielpatrickdp/companion-core/internal/phase"
)

// #region sources
// Source names the operation that produced a phase decision.
type Source string

const (
	SourceChat    Source = "chat"
	SourceSuggest Source = "suggest"
	SourceReplay  Source = "replay"
)

// #endregion sources

// #region phase-record
// PhaseRecord is a single row in the phase_log table: the phase decision of one turn and
// the scores it was made from.
type PhaseRecord struct {
	TurnID    string            `json:"turn_id"`
	UserID    string            `json:"user_id"`
	Source    Source            `json:"source"`
	Phase     phase.Phase       `json:"phase"`
	Stress    int               `json:"stress"`
	Burnout   int               `json:"burnout"`
	Danger    int               `json:"danger"`
	Chaos     int               `json:"chaos"`
	Crisis    bool              `json:"crisis"`
	Retracted bool              `json:"retracted"`
	Reasons   map[string]string `json:"reasons,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// #endregion phase-record
