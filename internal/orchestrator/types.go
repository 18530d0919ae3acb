package orchestrator

// #region imports
import (
	"context"
	"errors"

	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/logging"
	"github.com/danielpatrickdp/companion-core/internal/phase"
	"github.com/danielpatrickdp/companion-core/internal/risk"
	"github.com/danielpatrickdp/companion-core/internal/session"
	"github.com/danielpatrickdp/companion-core/internal/suggest"
)

// #endregion

// #region errors

// ErrEmptyMessage is returned for blank input; nothing is persisted.
var ErrEmptyMessage = errors.New("orchestrator: message is empty")

// #endregion

// #region config

// Config holds the per-message policy knobs.
type Config struct {
	Persona string `mapstructure:"persona" yaml:"persona"`
	// EfficientMode limits chaos history loading to every ChaosEvery-th message.
	EfficientMode bool `mapstructure:"efficient_mode" yaml:"efficient_mode"`
	ChaosEvery    int  `mapstructure:"chaos_every" yaml:"chaos_every"`
	HistoryLimit  int  `mapstructure:"history_limit" yaml:"history_limit"`
	PromptHistory int  `mapstructure:"prompt_history" yaml:"prompt_history"`
	// UpdateEvery refreshes the session report every N messages. 0 disables.
	UpdateEvery int `mapstructure:"update_every" yaml:"update_every"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Persona:       "Ember",
		EfficientMode: true,
		ChaosEvery:    3,
		HistoryLimit:  20,
		PromptHistory: 10,
		UpdateEvery:   1,
	}
}

// #endregion

// #region response

// Response is everything one processed message produces.
type Response struct {
	Text        string               `json:"response"`
	Phase       phase.Phase          `json:"phase"`
	Strategy    StrategyID           `json:"strategy"`
	Emotion     emotion.Entry        `json:"emotion_data"`
	Prediction  risk.Prediction      `json:"predictions"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
	Session     session.Report       `json:"session_report"`
}

// #endregion

// #region interfaces

// ChatStore persists conversation turns.
type ChatStore interface {
	Append(ctx context.Context, userID string, t chat.Turn) error
	Recent(ctx context.Context, userID string, limit int) ([]chat.Turn, error)
}

// EmotionStore persists and reads emotion entries.
type EmotionStore interface {
	risk.LogSource
	Append(ctx context.Context, userID string, e emotion.Entry) error
}

// Analyzer turns text into an emotion entry.
type Analyzer interface {
	NewEntry(ctx context.Context, text string) (emotion.Entry, error)
}

// Suggester picks suggestions once the phase is known.
type Suggester interface {
	Suggest(ctx context.Context, in suggest.Input) (suggest.Result, error)
}

// Forecaster describes where the current pattern leads. Its output only shapes the reply prompt.
type Forecaster interface {
	PredictiveAnalysis(ctx context.Context, history []chat.Turn, pred risk.Prediction) string
}

// ReportUpdater refreshes the advisory session report.
type ReportUpdater interface {
	Update(ctx context.Context, current session.Report, userMsg, reply string) session.Report
}

// Auditor records each turn's phase decision.
type Auditor interface {
	Record(ctx context.Context, rec logging.PhaseRecord) error
}

// #endregion
