package chaos

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/llm"
)

// #region hybrid
// Hybrid adds an external coherence rating to the heuristic components. A zero rating or a
// rater error falls back to the heuristic blend.
type Hybrid struct {
	heuristic *Heuristic
	rater     CoherenceRater
	logger    *zap.Logger
}

// NewHybrid returns a strategy that consults rater before blending.
func NewHybrid(cfg Config, rater CoherenceRater, logger *zap.Logger) *Hybrid {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hybrid{heuristic: NewHeuristic(cfg), rater: rater, logger: logger}
}

// Score implements Strategy.
func (h *Hybrid) Score(ctx context.Context, history []chat.Turn, logs []emotion.Entry) Result {
	c, ok := h.heuristic.measure(history, logs)
	if !ok {
		return Result{Score: 0, Reason: InsufficientData}
	}
	if h.rater != nil {
		turns := chat.Last(history, h.heuristic.cfg.RaterTurns)
		rating, err := h.rater.Rate(ctx, turns)
		if err != nil {
			h.logger.Debug("coherence rating failed, using heuristics", zap.Error(err))
		} else {
			c.Coherence = float64(rating)
		}
	}
	if c.Coherence > 0 {
		return finish(blend(c, h.heuristic.cfg.Hybrid, true), c)
	}
	return finish(blend(c, h.heuristic.cfg.Heuristic, false), c)
}

// #endregion hybrid

// #region rater
var ratingPattern = regexp.MustCompile(`\b(\d{1,3})\b`)

// LLMRater asks the generator to rate incoherence on a 0-100 scale.
type LLMRater struct {
	gen llm.Generator
}

// NewLLMRater wraps gen as a CoherenceRater.
func NewLLMRater(gen llm.Generator) *LLMRater {
	return &LLMRater{gen: gen}
}

// Rate implements CoherenceRater. The first 1-3 digit number in the reply is the rating.
func (r *LLMRater) Rate(ctx context.Context, turns []chat.Turn) (int, error) {
	var b strings.Builder
	for _, t := range turns {
		speaker := "User"
		if t.Role != chat.RoleUser {
			speaker = "AI"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, truncate(t.Content, 100))
	}
	prompt := "Analyze this conversation for CHAOS (incoherence, topic jumping, contradictions, erratic behavior).\n" +
		"Rate from 0-100 where:\n" +
		"- 0 = Perfectly coherent, focused conversation\n" +
		"- 50 = Some topic changes but generally coherent\n" +
		"- 100 = Extremely chaotic, incoherent, contradictory, erratic\n\n" +
		"Conversation:\n" + b.String() + "\nReturn ONLY a number from 0-100."

	out, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		return 0, fmt.Errorf("rate coherence: %w", err)
	}
	m := ratingPattern.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("rate coherence: no number in %q", truncate(out, 40))
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("rate coherence: %w", err)
	}
	return min(100, max(0, n)), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// #endregion rater

// #region factory
// New builds the strategy named by cfg.Mode. Hybrid needs a generator; without one it degrades
// to the heuristic strategy.
func New(cfg Config, gen llm.Generator, logger *zap.Logger) Strategy {
	if cfg.Mode == ModeHybrid && gen != nil {
		return NewHybrid(cfg, NewLLMRater(gen), logger)
	}
	return NewHeuristic(cfg)
}

// #endregion factory
