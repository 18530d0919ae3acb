package orchestrator

// #region imports
import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/llm"
	"github.com/danielpatrickdp/companion-core/internal/logging"
	"github.com/danielpatrickdp/companion-core/internal/phase"
	"github.com/danielpatrickdp/companion-core/internal/risk"
	"github.com/danielpatrickdp/companion-core/internal/session"
	"github.com/danielpatrickdp/companion-core/internal/suggest"
)

// #endregion

// #region orchestrator-struct

// Deps are the collaborators of an Orchestrator. Prefs, Outlook, Reports and Audit are optional.
type Deps struct {
	Chat      ChatStore
	Emotions  EmotionStore
	Profiles  risk.ProfileSource
	Analyzer  Analyzer
	Predictor suggest.Predictor
	Suggester Suggester
	Prefs     suggest.PreferenceSource
	Outlook   Forecaster
	Sessions  *session.Manager
	Reports   ReportUpdater
	Audit     Auditor
	Gen       llm.Generator
}

// Orchestrator runs the per-message pipeline: log, analyze, predict, classify, reply.
type Orchestrator struct {
	deps       Deps
	cfg        Config
	thresholds phase.Thresholds
	now        func() time.Time
	logger     *zap.Logger
}

// #endregion

// #region constructor

// New creates an orchestrator. A zero cfg.Persona falls back to the default persona.
func New(deps Deps, cfg Config, thresholds phase.Thresholds, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Persona == "" {
		cfg.Persona = DefaultConfig().Persona
	}
	return &Orchestrator{
		deps:       deps,
		cfg:        cfg,
		thresholds: thresholds,
		now:        time.Now,
		logger:     logger,
	}
}

// #endregion

// #region process-message

// ProcessMessage handles one user message end to end. Generation failures never surface as
// errors; only empty input and storage failures do.
func (o *Orchestrator) ProcessMessage(ctx context.Context, userID, text string) (Response, error) {
	if strings.TrimSpace(text) == "" {
		return Response{}, ErrEmptyMessage
	}
	now := o.now().UTC()
	sess := o.touch(ctx, userID, now)

	userTurn := chat.NewTurn(chat.RoleUser, text, now)
	if err := o.deps.Chat.Append(ctx, userID, userTurn); err != nil {
		return Response{}, fmt.Errorf("append user turn: %w", err)
	}

	entry := o.analyze(ctx, text, now)
	if err := o.deps.Emotions.Append(ctx, userID, entry); err != nil {
		return Response{}, fmt.Errorf("log emotion: %w", err)
	}

	prof, err := o.deps.Profiles.Get(ctx, userID)
	if err != nil {
		return Response{}, fmt.Errorf("load profile: %w", err)
	}
	report := sess.Report

	var history []chat.Turn
	if o.chaosDue(sess.MessageCount) {
		if history, err = o.deps.Chat.Recent(ctx, userID, o.cfg.HistoryLimit); err != nil {
			return Response{}, fmt.Errorf("load chaos history: %w", err)
		}
	}

	pred, err := o.deps.Predictor.PredictAll(ctx, risk.Request{UserID: userID, Session: &report, History: history})
	if err != nil {
		return Response{}, fmt.Errorf("predict: %w", err)
	}
	ph := o.thresholds.Classify(pred.Stress, pred.Burnout, pred.Danger, pred.CrisisDetected)
	strategy := StrategyFor(ph)

	o.logger.Info("classify",
		zap.String("user", userID),
		zap.Stringer("phase", ph),
		zap.String("strategy", string(strategy.ID)),
		zap.Bool("retracted", pred.Retracted),
		zap.Int("message", sess.MessageCount),
	)

	suggestions := o.suggestions(ctx, userID, ph, strategy, pred, now)

	// the outlook reuses the chaos history, so it follows the same cadence
	var outlook string
	if o.deps.Outlook != nil && len(history) > 0 {
		outlook = o.deps.Outlook.PredictiveAnalysis(ctx, history, pred)
	}

	recent, err := o.deps.Chat.Recent(ctx, userID, o.cfg.PromptHistory+1)
	if err != nil {
		return Response{}, fmt.Errorf("load prompt history: %w", err)
	}
	recent = withoutTurn(recent, userTurn.ID)
	class := ClassifyMessage(text, lastUserText(recent))

	prompt := o.buildPrompt(promptInput{
		profile:     prof,
		emotion:     entry,
		prediction:  pred,
		phase:       ph,
		strategy:    strategy,
		suggestions: suggestions,
		report:      report,
		outlook:     outlook,
		topics:      class,
		history:     chat.Last(recent, o.cfg.PromptHistory),
		message:     text,
	})
	reply := o.reply(ctx, prompt, strategy)

	systemTurn := chat.NewTurn(chat.RoleSystem, reply, o.now())
	systemTurn.Metadata = map[string]string{"phase": ph.String(), "strategy": string(strategy.ID)}
	if err := o.deps.Chat.Append(ctx, userID, systemTurn); err != nil {
		return Response{}, fmt.Errorf("append system turn: %w", err)
	}

	report = o.updateReport(ctx, userID, sess, text, reply)
	o.audit(ctx, userTurn.ID, userID, ph, pred)

	return Response{
		Text:        reply,
		Phase:       ph,
		Strategy:    strategy.ID,
		Emotion:     entry,
		Prediction:  pred,
		Suggestions: suggestions,
		Session:     report,
	}, nil
}

// #endregion

// #region steps

// touch advances the session. Session state is advisory, so a backend failure degrades to a
// fresh context instead of failing the message.
func (o *Orchestrator) touch(ctx context.Context, userID string, now time.Time) session.Context {
	if o.deps.Sessions != nil {
		sess, err := o.deps.Sessions.Touch(ctx, userID)
		if err == nil {
			return sess
		}
		o.logger.Warn("session unavailable", zap.String("user", userID), zap.Error(err))
	}
	return session.Context{UserID: userID, MessageCount: 1, Report: session.NewReport(), CreatedAt: now, LastSeen: now}
}

// analyze never fails: an analysis error logs a neutral entry that keeps the raw text.
func (o *Orchestrator) analyze(ctx context.Context, text string, now time.Time) emotion.Entry {
	entry, err := o.deps.Analyzer.NewEntry(ctx, text)
	if err != nil {
		o.logger.Warn("emotion analysis failed", zap.Error(err))
		return emotion.Neutral(text, "Neutral (Analysis Failed)", now)
	}
	return entry
}

func (o *Orchestrator) chaosDue(count int) bool {
	if !o.cfg.EfficientMode || o.cfg.ChaosEvery <= 1 {
		return true
	}
	return count%o.cfg.ChaosEvery == 0
}

// suggestions are advisory: failures are logged and yield none.
func (o *Orchestrator) suggestions(ctx context.Context, userID string, ph phase.Phase, strategy StrategyConfig,
	pred risk.Prediction, now time.Time) []suggest.Suggestion {
	if strategy.Suggestions == 0 || o.deps.Suggester == nil {
		return nil
	}
	logs, err := o.deps.Emotions.Since(ctx, userID, now.AddDate(0, 0, -7))
	if err != nil {
		o.logger.Warn("suggestion context unavailable", zap.Error(err))
	}
	prof, err := o.deps.Profiles.Get(ctx, userID)
	if err != nil {
		o.logger.Warn("suggestion profile unavailable", zap.Error(err))
	}
	in := suggest.Input{Phase: ph, Prediction: pred, Profile: prof, Logs: logs, Num: strategy.Suggestions}
	if o.deps.Prefs != nil {
		if in.Preferences, err = o.deps.Prefs.Preferences(ctx, userID); err != nil {
			o.logger.Warn("preferences unavailable", zap.Error(err))
		}
	}
	res, err := o.deps.Suggester.Suggest(ctx, in)
	if err != nil {
		o.logger.Warn("suggestions failed", zap.String("user", userID), zap.Error(err))
		return nil
	}
	return res.Suggestions
}

// reply generates, evaluates and at most once regenerates. Generation failure yields the fallback.
func (o *Orchestrator) reply(ctx context.Context, prompt string, strategy StrategyConfig) string {
	if o.deps.Gen == nil {
		return EvaluateReply("", strategy).Text
	}
	var attempts []Attempt
	current := prompt
	for {
		out, err := o.deps.Gen.Generate(ctx, current)
		if err != nil {
			o.logger.Warn("reply generation failed", zap.Int("attempt", len(attempts)+1), zap.Error(err))
			if len(attempts) == 0 {
				return EvaluateReply(FallbackReply, strategy).Text
			}
			break
		}
		eval := EvaluateReply(out, strategy)
		o.logger.Debug("evaluate",
			zap.String("failure", string(eval.FailureType)),
			zap.Bool("retry", eval.ShouldRetry),
			zap.Bool("repaired", eval.Repaired),
		)
		attempts = append(attempts, Attempt{Reply: out, Evaluation: eval})
		if !shouldRetry(attempts) {
			break
		}
		current = prompt + "\n" + retryModifier
	}
	best := bestAttempt(attempts)
	if best.Evaluation.ShouldRetry {
		o.logger.Warn("reply accepted with failure", zap.String("failure", string(best.Evaluation.FailureType)))
	}
	return best.Evaluation.Text
}

func (o *Orchestrator) updateReport(ctx context.Context, userID string, sess session.Context, text, reply string) session.Report {
	if o.deps.Reports == nil || o.cfg.UpdateEvery <= 0 || sess.MessageCount%o.cfg.UpdateEvery != 0 {
		return sess.Report
	}
	updated := o.deps.Reports.Update(ctx, sess.Report, text, reply)
	if o.deps.Sessions != nil {
		if err := o.deps.Sessions.SaveReport(ctx, userID, updated); err != nil {
			o.logger.Warn("session report not saved", zap.String("user", userID), zap.Error(err))
		}
	}
	return updated
}

func (o *Orchestrator) audit(ctx context.Context, turnID, userID string, ph phase.Phase, pred risk.Prediction) {
	if o.deps.Audit == nil {
		return
	}
	err := o.deps.Audit.Record(ctx, logging.PhaseRecord{
		TurnID:    turnID,
		UserID:    userID,
		Source:    logging.SourceChat,
		Phase:     ph,
		Stress:    pred.Stress,
		Burnout:   pred.Burnout,
		Danger:    pred.Danger,
		Chaos:     pred.Chaos,
		Crisis:    pred.CrisisDetected,
		Retracted: pred.Retracted,
		Reasons:   pred.Explanations,
		CreatedAt: o.now(),
	})
	if err != nil {
		o.logger.Error("phase audit failed", zap.String("user", userID), zap.Error(err))
	}
}

// #endregion

// #region helpers

func withoutTurn(turns []chat.Turn, id string) []chat.Turn {
	out := make([]chat.Turn, 0, len(turns))
	for _, t := range turns {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func lastUserText(turns []chat.Turn) string {
	users := chat.UserTurns(turns)
	if len(users) == 0 {
		return ""
	}
	return users[len(users)-1].Content
}

// #endregion
