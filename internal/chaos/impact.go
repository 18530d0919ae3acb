package chaos

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/llm"
)

// #region impact
// Impact is a three-horizon forecast of how the current pattern affects the user.
type Impact struct {
	SevenDays  string `json:"7 Days" jsonschema:"required"`
	ThirtyDays string `json:"30 Days" jsonschema:"required"`
	SixtyDays  string `json:"60 Days" jsonschema:"required"`
}

var (
	impactLow = Impact{
		SevenDays:  "Steady Footing: Your days feel manageable and your thoughts stay organized.",
		ThirtyDays: "Growing Clarity: You find it easier to name what you feel and what you need.",
		SixtyDays:  "Resilience: Small setbacks pass without knocking you off balance.",
	}
	impactModerate = Impact{
		SevenDays:  "Mental Friction: You may notice your focus slipping and plans changing often.",
		ThirtyDays: "Creeping Fatigue: Constant shifts start to drain your energy and patience.",
		SixtyDays:  "Withdrawal Risk: You may pull back from people and routines that usually help you.",
	}
	impactHigh = Impact{
		SevenDays:  "Cognitive Strain: You will feel increasingly drained trying to hold your thoughts together.",
		ThirtyDays: "Emotional Disconnect: Frustration may peak and relationships can start to feel harder.",
		SixtyDays:  "Burnout Risk: Without support, you may give up on routines that matter to you.",
	}
)

// FallbackImpact returns the fixed forecast for a score band (<40, 40-69, >=70).
func FallbackImpact(score int) Impact {
	switch {
	case score < 40:
		return impactLow
	case score < 70:
		return impactModerate
	}
	return impactHigh
}

// #endregion impact

// #region forecaster
var forbiddenImpact = regexp.MustCompile(`(?i)\b(ai|chatbot|system|technology)\b|this interaction`)

// Forecaster produces Impact forecasts through the generator.
type Forecaster struct {
	gen    llm.Generator
	logger *zap.Logger
}

// NewForecaster returns a Forecaster. gen may be nil, in which case every forecast is a fallback.
func NewForecaster(gen llm.Generator, logger *zap.Logger) *Forecaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forecaster{gen: gen, logger: logger}
}

// PredictImpact forecasts 7/30/60-day effects of the current chaos level. It never fails:
// generation, parse or contract errors yield the band's fallback.
func (f *Forecaster) PredictImpact(ctx context.Context, score int, reason string, history []chat.Turn) Impact {
	if f.gen == nil {
		return FallbackImpact(score)
	}
	out, err := f.gen.Generate(ctx, impactPrompt(score, reason, history))
	if err != nil {
		f.logger.Warn("impact generation failed", zap.Error(err))
		return FallbackImpact(score)
	}
	var imp Impact
	if err := llm.DecodeJSON(out, &imp); err != nil {
		f.logger.Warn("impact output unparseable", zap.Error(err))
		return FallbackImpact(score)
	}
	if err := validateImpact(imp); err != nil {
		f.logger.Warn("impact output rejected", zap.Error(err))
		return FallbackImpact(score)
	}
	return imp
}

func validateImpact(imp Impact) error {
	for horizon, text := range map[string]string{"7 Days": imp.SevenDays, "30 Days": imp.ThirtyDays, "60 Days": imp.SixtyDays} {
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("missing %s prediction", horizon)
		}
		if forbiddenImpact.MatchString(text) {
			return fmt.Errorf("%s prediction names the assistant", horizon)
		}
	}
	return nil
}

func impactPrompt(score int, reason string, history []chat.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chaos Score: %d/100\nReason: %s\n", score, reason)
	if recent := chat.Last(history, 5); len(recent) > 0 {
		b.WriteString("Recent Chat:\n")
		for _, t := range recent {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
	}
	return "Analyze the following conversation state:\n" + b.String() + "\n" +
		"Predict the psychological and practical impact on the user if this pattern continues for 7 Days, 30 Days and 60 Days.\n" +
		"Respond with a JSON object matching this schema:\n" + llm.SchemaFor[Impact]() + "\n" +
		"Keep each description concise (max 2 sentences). Address the user directly using \"You\".\n" +
		"Do NOT mention AI, chatbot, system, technology or this interaction. Focus on the user's internal " +
		"psychological state, cognitive function and real-world relationships."
}

// #endregion forecaster
