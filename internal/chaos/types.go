package chaos

import (
	"context"

	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
)

// InsufficientData is the reason returned when the window is too small to score.
const InsufficientData = "insufficient data"

// Reasons by score band.
const (
	ReasonHigh     = "High conversational chaos detected: erratic topic changes, contradictions, or incoherent dialogue."
	ReasonModerate = "Moderate conversational instability: some topic jumping or emotional shifts."
	ReasonStable   = "Stable, coherent conversation."
)

// #region mode
// Mode selects the scoring strategy.
type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeHybrid    Mode = "hybrid"
)

// #endregion mode

// #region config
// Config holds window sizes and blend weights for chaos scoring.
type Config struct {
	Mode         Mode `yaml:"mode" mapstructure:"mode"`
	Window       int  `yaml:"window" mapstructure:"window"`           // last N turns considered
	UserWindow   int  `yaml:"user_window" mapstructure:"user_window"` // last N user turns for topic/contradiction
	LogWindow    int  `yaml:"log_window" mapstructure:"log_window"`   // last N logs searched for a text match
	MinTurns     int  `yaml:"min_turns" mapstructure:"min_turns"`
	MinUserTurns int  `yaml:"min_user_turns" mapstructure:"min_user_turns"`
	RaterTurns   int  `yaml:"rater_turns" mapstructure:"rater_turns"` // turns shown to the coherence rater

	Heuristic Weights `yaml:"heuristic" mapstructure:"heuristic"`
	Hybrid    Weights `yaml:"hybrid" mapstructure:"hybrid"`
}

// Weights blends the component scores. Coherence is ignored by the heuristic blend.
type Weights struct {
	Coherence     float64 `yaml:"coherence" mapstructure:"coherence"`
	Topic         float64 `yaml:"topic" mapstructure:"topic"`
	Contradiction float64 `yaml:"contradiction" mapstructure:"contradiction"`
	Length        float64 `yaml:"length" mapstructure:"length"`
}

// DefaultConfig returns the heuristic-only configuration.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeHeuristic,
		Window:       10,
		UserWindow:   5,
		LogWindow:    10,
		MinTurns:     4,
		MinUserTurns: 3,
		RaterTurns:   6,
		Heuristic:    Weights{Topic: 0.4, Contradiction: 0.4, Length: 0.2},
		Hybrid:       Weights{Coherence: 0.6, Topic: 0.2, Contradiction: 0.1, Length: 0.1},
	}
}

// #endregion config

// #region result
// Components are the individual 0-100 measurements behind a score.
type Components struct {
	Topic         float64 `json:"topic"`
	Contradiction float64 `json:"contradiction"`
	Length        float64 `json:"length"`
	Coherence     float64 `json:"coherence"`
}

// Result is a chaos score with its rationale.
type Result struct {
	Score      int        `json:"score"`
	Reason     string     `json:"reason"`
	Components Components `json:"components"`
}

// #endregion result

// #region strategy
// Strategy scores a conversation window. Implementations never fail; problems degrade to heuristics.
type Strategy interface {
	Score(ctx context.Context, history []chat.Turn, logs []emotion.Entry) Result
}

// CoherenceRater returns a 0-100 incoherence rating for recent turns.
type CoherenceRater interface {
	Rate(ctx context.Context, turns []chat.Turn) (int, error)
}

// #endregion strategy
