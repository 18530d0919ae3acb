package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/feedback"
	"github.com/danielpatrickdp/companion-core/internal/llm"
	"github.com/danielpatrickdp/companion-core/internal/phase"
	"github.com/danielpatrickdp/companion-core/internal/profile"
	"github.com/danielpatrickdp/companion-core/internal/risk"
	"github.com/danielpatrickdp/companion-core/internal/session"
)

// #region deps
// Predictor computes the scores a request is classified by.
type Predictor interface {
	PredictAll(ctx context.Context, req risk.Request) (risk.Prediction, error)
}

// PreferenceSource returns aggregated feedback preferences.
type PreferenceSource interface {
	Preferences(ctx context.Context, userID string) (feedback.Preferences, error)
}

// #endregion deps

// #region engine
// Engine produces safety-validated suggestions for a user's current phase.
type Engine struct {
	predictor  Predictor
	logs       risk.LogSource
	profiles   risk.ProfileSource
	prefs      PreferenceSource
	gen        llm.Generator
	thresholds phase.Thresholds
	gate       *Gate
	now        func() time.Time
	logger     *zap.Logger
}

// NewEngine wires an engine. gen may be nil, in which case every phase uses the library.
func NewEngine(predictor Predictor, logs risk.LogSource, profiles risk.ProfileSource, prefs PreferenceSource,
	gen llm.Generator, thresholds phase.Thresholds, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		predictor:  predictor,
		logs:       logs,
		profiles:   profiles,
		prefs:      prefs,
		gen:        gen,
		thresholds: thresholds,
		gate:       NewGate(DefaultGateConfig()),
		now:        time.Now,
		logger:     logger,
	}
}

// #endregion engine

// #region suggest-for-user
// SuggestForUser predicts, classifies and returns exactly num suggestions for the user.
func (e *Engine) SuggestForUser(ctx context.Context, userID string, num int, report *session.Report) (Result, error) {
	if num < MinCount || num > MaxCount {
		return Result{}, ErrInvalidCount
	}
	pred, err := e.predictor.PredictAll(ctx, risk.Request{UserID: userID, Session: report})
	if err != nil {
		return Result{}, fmt.Errorf("predict: %w", err)
	}
	prof, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load profile: %w", err)
	}
	logs, err := e.logs.Since(ctx, userID, e.now().AddDate(0, 0, -7))
	if err != nil {
		return Result{}, fmt.Errorf("load emotion logs: %w", err)
	}
	var prefs feedback.Preferences
	if e.prefs != nil {
		if prefs, err = e.prefs.Preferences(ctx, userID); err != nil {
			e.logger.Warn("preferences unavailable", zap.String("user", userID), zap.Error(err))
			prefs = feedback.Preferences{}
		}
	}

	return e.Suggest(ctx, Input{
		Phase:       e.thresholds.Classify(pred.Stress, pred.Burnout, pred.Danger, pred.CrisisDetected),
		Prediction:  pred,
		Profile:     prof,
		Logs:        logs,
		Preferences: prefs,
		Num:         num,
	})
}

// #endregion suggest-for-user

// #region suggest
// Input is everything Suggest needs once a phase is known.
type Input struct {
	Phase       phase.Phase
	Prediction  risk.Prediction
	Profile     *profile.Profile
	Logs        []emotion.Entry
	Preferences feedback.Preferences
	Num         int
}

// Suggest returns exactly in.Num suggestions for in.Phase. Crisis never consults the model.
func (e *Engine) Suggest(ctx context.Context, in Input) (Result, error) {
	if in.Num < MinCount || in.Num > MaxCount {
		return Result{}, ErrInvalidCount
	}
	snap := Snapshot{Stress: in.Prediction.Stress, Burnout: in.Prediction.Burnout, Danger: in.Prediction.Danger}
	res := Result{
		Phase:        in.Phase,
		Scores:       snap,
		Explanations: in.Prediction.Explanations,
		Urgent:       in.Phase == phase.Crisis,
		Timestamp:    e.now().UTC(),
	}

	var valid []Suggestion
	if in.Phase != phase.Crisis && e.gen != nil {
		valid = e.generate(ctx, in, snap)
	}
	if len(valid) == 0 {
		res.UsedFallback = true
		res.Suggestions = Fallback(in.Phase, in.Num)
		return res, nil
	}

	if len(valid) > in.Num {
		valid = valid[:in.Num]
	}
	if len(valid) < in.Num {
		res.UsedFallback = true
		valid = backfill(valid, in.Phase, in.Num)
	}
	res.Suggestions = valid
	return res, nil
}

// generate asks the model for suggestions and returns those passing the gate, best preference
// fit first. Any failure yields nil.
func (e *Engine) generate(ctx context.Context, in Input, snap Snapshot) []Suggestion {
	out, err := e.gen.Generate(ctx, e.prompt(in, snap))
	if err != nil {
		e.logger.Warn("suggestion generation failed", zap.Error(err))
		return nil
	}
	var candidates []candidate
	if err := llm.DecodeJSON(out, &candidates); err != nil {
		e.logger.Warn("suggestion output unparseable", zap.Error(err))
		return nil
	}

	type scored struct {
		s     Suggestion
		score float64
	}
	var kept []scored
	for i, c := range candidates {
		d := e.gate.Evaluate(c, in.Phase, snap, in.Preferences)
		if d.Vetoed {
			e.logger.Debug("suggestion vetoed", zap.Int("index", i), zap.Any("vetoes", d.VetoSignals))
			continue
		}
		kept = append(kept, scored{d.Suggestion, d.SoftScore})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })

	valid := make([]Suggestion, len(kept))
	for i, k := range kept {
		valid[i] = k.s
	}
	return valid
}

// backfill pads valid to num from the phase library, preferring texts not already present.
func backfill(valid []Suggestion, p phase.Phase, num int) []Suggestion {
	seen := make(map[string]bool, len(valid))
	for _, s := range valid {
		seen[s.Text] = true
	}
	pool := Fallback(p, len(library[p]))
	for _, fb := range pool {
		if len(valid) >= num {
			return valid
		}
		if !seen[fb.Text] {
			valid = append(valid, fb)
			seen[fb.Text] = true
		}
	}
	// Every library text is already present; repeat the set so the count is exact.
	for i := 0; len(valid) < num; i++ {
		valid = append(valid, issue(pool[i%len(pool)]))
	}
	return valid
}

func (e *Engine) prompt(in Input, snap Snapshot) string {
	var prefs strings.Builder
	if in.Preferences.PreferredCategory != "" {
		fmt.Fprintf(&prefs, "- User prefers '%s' activities.\n", in.Preferences.PreferredCategory)
	}
	if in.Preferences.PreferredDifficulty != "" {
		fmt.Fprintf(&prefs, "- User prefers '%s' difficulty tasks.\n", in.Preferences.PreferredDifficulty)
	}
	return fmt.Sprintf(`Generate %d gentle, supportive and ACTIONABLE suggestions for a user in the '%s' phase.

Context:
%s
User Preferences (align with these if appropriate):
%s
CRITICAL INSTRUCTIONS:
1. Read the user's actual messages carefully. If they mention specific problems (bullying, family issues, work stress), suggestions MUST address those situations, not generic self-care.
2. For serious situations suggest talking to specific trusted people (school counselor, therapist, family member), documenting incidents, reaching out to helplines, or making a safety plan.
3. For high stress or danger, prioritize practical action over passive comfort.
4. Suggestions must be safe, non-judgmental and optional.
5. No medical or legal advice, but DO suggest professional help when appropriate.
6. Keep 'text' under 280 characters and 'reason' under 180 characters.

Return ONLY a JSON array whose items match this schema:
%s`, in.Num, in.Phase, BuildContext(in.Profile, in.Logs, snap), prefs.String(), llm.SchemaFor[candidate]())
}

// #endregion suggest
