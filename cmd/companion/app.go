package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/api"
	"github.com/danielpatrickdp/companion-core/internal/chaos"
	"github.com/danielpatrickdp/companion-core/internal/config"
	"github.com/danielpatrickdp/companion-core/internal/consolidate"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/feedback"
	"github.com/danielpatrickdp/companion-core/internal/llm"
	"github.com/danielpatrickdp/companion-core/internal/logging"
	"github.com/danielpatrickdp/companion-core/internal/orchestrator"
	"github.com/danielpatrickdp/companion-core/internal/risk"
	"github.com/danielpatrickdp/companion-core/internal/session"
	"github.com/danielpatrickdp/companion-core/internal/store"
	"github.com/danielpatrickdp/companion-core/internal/suggest"
)

// #region app

// app holds every wired component for one process.
type app struct {
	cfg          config.Config
	store        *store.Store
	gen          llm.Generator
	analyzer     *emotion.Analyzer
	predictor    *risk.Predictor
	engine       *suggest.Engine
	feedback     *feedback.Service
	sessions     *session.Manager
	orch         *orchestrator.Orchestrator
	auditor      *logging.Auditor
	consolidator *consolidate.Consolidator
	forecaster   *chaos.Forecaster
	closers      []func() error
	logger       *zap.Logger
}

// newApp opens the store and session backend and wires the pipeline. A provider that cannot
// be built is replaced by one that always reports ErrUnavailable, so every generative step
// takes its fallback.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{cfg: cfg, logger: logger}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = s
	a.closers = append(a.closers, s.Close)

	gen, closeGen, err := llm.New(ctx, cfg.LLMProvider(), logger.Named("llm"))
	if err != nil {
		logger.Warn("text generation unavailable, using fallbacks", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
		gen = unavailable(err)
	} else {
		a.closers = append(a.closers, closeGen)
	}
	a.gen = gen

	sessStore, closeSess, err := session.Open(ctx, cfg.Session)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open session store: %w", err)
	}
	a.closers = append(a.closers, closeSess)
	a.sessions = session.NewManager(sessStore, logger.Named("session"))

	riskCfg, err := cfg.Risk()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load scoring profile: %w", err)
	}

	a.analyzer = emotion.NewAnalyzer(gen, logger.Named("emotion"))
	a.predictor = risk.NewPredictor(s.Emotions, s.Profiles,
		chaos.New(cfg.ChaosScoring(), gen, logger.Named("chaos")), gen, riskCfg, logger.Named("risk"))
	a.feedback = feedback.NewService(s.Feedback, logger.Named("feedback"))
	a.engine = suggest.NewEngine(a.predictor, s.Emotions, s.Profiles, a.feedback, gen, cfg.Phase, logger.Named("suggest"))
	a.auditor = logging.NewAuditor(s.DB())
	a.forecaster = chaos.NewForecaster(gen, logger.Named("impact"))
	a.consolidator = consolidate.New(gen, s.Profiles, cfg.Consolidate, logger.Named("consolidate"))
	a.orch = orchestrator.New(orchestrator.Deps{
		Chat:      s.Chat,
		Emotions:  s.Emotions,
		Profiles:  s.Profiles,
		Analyzer:  a.analyzer,
		Predictor: a.predictor,
		Suggester: a.engine,
		Prefs:     a.feedback,
		Outlook:   a.predictor,
		Sessions:  a.sessions,
		Reports:   session.NewReportUpdater(gen, logger.Named("session")),
		Audit:     a.auditor,
		Gen:       gen,
	}, cfg.Orchestrator(), cfg.Phase, logger.Named("orch"))

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// apiDeps exposes the wired components to the HTTP layer.
func (a *app) apiDeps() api.Deps {
	return api.Deps{
		Profiles:     a.store.Profiles,
		Emotions:     a.store.Emotions,
		Chat:         a.store.Chat,
		Analyzer:     a.analyzer,
		Predictor:    a.predictor,
		Suggester:    a.engine,
		Conversation: a.orch,
		Feedback:     a.feedback,
		Consolidator: a.consolidator,
		Audit:        a.auditor,
		Sessions:     a.sessions,
		Impact:       a.forecaster,
	}
}

func unavailable(cause error) llm.Generator {
	return llm.GeneratorFunc(func(context.Context, string) (string, error) {
		return "", fmt.Errorf("%w: %v", llm.ErrUnavailable, cause)
	})
}

// #endregion app

// #region helpers

// timeNow is swapped in tests.
var timeNow = time.Now

// withApp runs fn against a freshly wired app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close", zap.Error(err))
		}
	}()
	return fn(ctx, a)
}

// printJSON writes v indented.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
