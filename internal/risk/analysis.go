package risk

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/companion-core/internal/chat"
)

const (
	analysisNotEnough = "Not enough conversation data for predictive analysis."
	analysisNoUser    = "No user messages to analyze."
)

// PredictiveAnalysis describes short- and long-term consequences if the current pattern continues.
// Generation failure falls back to a fixed text chosen by score band.
func (p *Predictor) PredictiveAnalysis(ctx context.Context, history []chat.Turn, pred Prediction) string {
	if len(history) < 2 {
		return analysisNotEnough
	}
	users := chat.UserTurns(chat.Last(history, 6))
	if len(users) == 0 {
		return analysisNoUser
	}
	if p.gen == nil {
		return heuristicAnalysis(pred)
	}

	var convo strings.Builder
	for _, u := range chat.Last(users, 3) {
		fmt.Fprintf(&convo, "- %s\n", u.Content)
	}
	prompt := fmt.Sprintf(`Based on this conversation, generate a brief predictive analysis of potential future consequences if current patterns continue.

Recent conversation:
%s
Current state:
- Stress: %d/100
- Burnout: %d/100
- Danger: %d/100
- Chaos: %d/100

Analyze the conversation for key themes (e.g. substance use, burnout, relationship issues, work stress) and predict SHORT-TERM (1-2 weeks) and LONG-TERM (1-3 months) consequences if this pattern continues.

Format:
SHORT-TERM: [2-3 specific consequences]
LONG-TERM: [2-3 specific consequences]

Keep it concise and specific to what the user is discussing. If there are no concerning patterns, say "No significant risks detected."`,
		convo.String(), pred.Stress, pred.Burnout, pred.Danger, pred.Chaos)

	out, err := p.gen.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(out) == "" {
		p.logger.Warn("predictive analysis failed", zap.Error(err))
		return heuristicAnalysis(pred)
	}
	return strings.TrimSpace(out)
}

func heuristicAnalysis(pred Prediction) string {
	switch {
	case pred.Danger >= 70:
		return "SHORT-TERM: Immediate safety risk, potential for crisis escalation\nLONG-TERM: Serious mental health consequences if help is not sought"
	case pred.Burnout >= 60:
		return "SHORT-TERM: Continued exhaustion, decreased performance\nLONG-TERM: Potential burnout, health issues, relationship strain"
	case pred.Stress >= 60:
		return "SHORT-TERM: Increased anxiety, sleep issues\nLONG-TERM: Chronic stress, potential health problems"
	}
	return "No significant risks detected based on current conversation."
}
