package risk

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/chaos"
	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/llm"
	"github.com/danielpatrickdp/companion-core/internal/profile"
	"github.com/danielpatrickdp/companion-core/internal/session"
)

// #region sources
// LogSource reads a user's emotion log.
type LogSource interface {
	Since(ctx context.Context, userID string, t time.Time) ([]emotion.Entry, error)
}

// ProfileSource reads a user's profile; a missing profile is (nil, nil).
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
}

// #endregion sources

// #region prediction
// Request names the user and the optional advisory context for a prediction.
type Request struct {
	UserID  string
	Session *session.Report
	History []chat.Turn
}

// Prediction is computed fresh per request and never persisted.
type Prediction struct {
	Stress         int               `json:"stress"`
	Burnout        int               `json:"burnout"`
	Danger         int               `json:"danger"`
	Chaos          int               `json:"chaos"`
	Explanations   map[string]string `json:"explanations"`
	Trend          Trend             `json:"trend_summary"`
	CrisisDetected bool              `json:"crisis_detected"`
	// Retracted is set when the most recent message withdrew an earlier threat.
	Retracted bool `json:"retracted"`
}

// NoData is the prediction for a user with no logs in the long window.
func NoData() Prediction {
	return Prediction{
		Explanations: map[string]string{
			"stress":  ReasonNoData,
			"burnout": ReasonNoData,
			"danger":  ReasonNoData,
			"chaos":   ReasonNoData,
		},
		Trend: Trend{SevenDay: Stable, ThirtyDay: Stable},
	}
}

// #endregion prediction

// #region predictor
// Predictor turns a user's emotion log, profile and conversation into risk scores.
type Predictor struct {
	logs     LogSource
	profiles ProfileSource
	chaos    chaos.Strategy
	gen      llm.Generator
	cfg      Config
	now      func() time.Time
	logger   *zap.Logger
}

// NewPredictor wires a predictor. chaosStrategy and gen may be nil: chaos then scores 0 and
// PredictiveAnalysis uses its heuristic text.
func NewPredictor(logs LogSource, profiles ProfileSource, chaosStrategy chaos.Strategy, gen llm.Generator, cfg Config, logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Predictor{
		logs:     logs,
		profiles: profiles,
		chaos:    chaosStrategy,
		gen:      gen,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock overrides the predictor's notion of now (replay, tests).
func (p *Predictor) SetClock(now func() time.Time) {
	p.now = now
}

// Config returns the scoring profile in use.
func (p *Predictor) Config() Config {
	return p.cfg
}

// #endregion predictor

// #region predict-all
// PredictAll computes every score for the user. Only storage failures return an error; missing
// data yields conservative defaults.
func (p *Predictor) PredictAll(ctx context.Context, req Request) (Prediction, error) {
	now := p.now()
	longLogs, err := p.logs.Since(ctx, req.UserID, now.AddDate(0, 0, -p.cfg.LongWindowDays))
	if err != nil {
		return Prediction{}, fmt.Errorf("load emotion logs: %w", err)
	}
	if len(longLogs) == 0 {
		p.logger.Debug("no logs in window", zap.String("user", req.UserID))
		return NoData(), nil
	}
	shortLogs := within(longLogs, now.AddDate(0, 0, -p.cfg.ShortWindowDays))

	prof, err := p.profiles.Get(ctx, req.UserID)
	if err != nil {
		return Prediction{}, fmt.Errorf("load profile: %w", err)
	}

	pred := p.Score(ctx, shortLogs, longLogs, prof, req.History)
	if req.Session != nil {
		if s := req.Session.Summary(); s != "" {
			pred.Explanations["session"] = s
		}
	}

	p.logger.Info("prediction",
		zap.String("user", req.UserID),
		zap.Int("stress", pred.Stress),
		zap.Int("burnout", pred.Burnout),
		zap.Int("danger", pred.Danger),
		zap.Int("chaos", pred.Chaos),
		zap.Bool("crisis", pred.CrisisDetected),
		zap.Bool("retracted", pred.Retracted),
	)
	return pred, nil
}

// Score runs every computation over already-loaded data. shortLogs must be a subset of longLogs.
func (p *Predictor) Score(ctx context.Context, shortLogs, longLogs []emotion.Entry, prof *profile.Profile, history []chat.Turn) Prediction {
	stress, stressReason := ComputeStress(p.cfg.Stress, shortLogs)
	burnout, burnoutReason := ComputeBurnout(p.cfg.Burnout, longLogs, prof)
	danger := ComputeDanger(p.cfg.Danger, longLogs)

	chaosScore, chaosReason := 0, "No conversation data available."
	if len(history) > 0 && p.chaos != nil {
		r := p.chaos.Score(ctx, history, chronological(longLogs))
		chaosScore, chaosReason = r.Score, r.Reason
	}

	explanations := map[string]string{
		"stress":  stressReason,
		"burnout": burnoutReason,
		"danger":  danger.Reason,
		"chaos":   chaosReason,
	}
	if danger.Crisis {
		explanations["danger"] += p.cfg.CrisisSuffix
	}

	return Prediction{
		Stress:       stress,
		Burnout:      burnout,
		Danger:       danger.Score,
		Chaos:        chaosScore,
		Explanations: explanations,
		Trend: Trend{
			SevenDay:  TrendOf(shortLogs, p.cfg.TrendDelta),
			ThirtyDay: TrendOf(longLogs, p.cfg.TrendDelta),
		},
		CrisisDetected: danger.Crisis,
		Retracted:      danger.Retracted,
	}
}

func within(logs []emotion.Entry, cutoff time.Time) []emotion.Entry {
	var out []emotion.Entry
	for _, e := range logs {
		if !e.Timestamp.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// #endregion predict-all
