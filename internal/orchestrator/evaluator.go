package orchestrator

// #region imports
import (
	"regexp"
	"strings"
)

// #endregion

// #region replies

// FallbackReply is sent whenever no usable reply could be generated.
const FallbackReply = "I'm having a little trouble thinking clearly right now, but I'm here with you. How can I help?"

// CrisisResourceLine is appended to crisis replies that name no source of help.
const CrisisResourceLine = "If you are in danger or thinking about hurting yourself, please call or text a crisis line such as 988 (in the US), contact your local emergency number, or reach out to someone you trust right now."

// #endregion

// #region failure-types

// FailureType classifies a problem found in a generated reply.
type FailureType string

const (
	FailureNone            FailureType = "none"
	FailureEmpty           FailureType = "empty"
	FailurePhaseLeak       FailureType = "phase_leak"
	FailureSelfReference   FailureType = "self_reference"
	FailureMissingResource FailureType = "missing_resource"
)

// #endregion

// #region patterns

// phaseNames are the internal labels the user must never see.
var phaseNames = regexp.MustCompile(`\b(AT_RISK|AT RISK phase|HURT phase|CRISIS phase|STABLE phase|HURT|CRISIS)\b`)

var selfReferencePatterns = []string{
	"as an ai", "i am an ai", "i'm an ai", "language model", "the system",
	"i'm just a program", "i am just a program", "my programming",
}

var resourcePatterns = []string{
	"988", "hotline", "helpline", "crisis line", "crisis text line", "lifeline",
	"emergency", "911", "112", "999", "therapist", "counselor", "counsellor",
	"doctor", "professional", "someone you trust", "trusted person", "trusted adult",
}

// #endregion

// #region evaluation

// ReplyEvaluation is the output of checking a generated reply.
type ReplyEvaluation struct {
	Text        string
	FailureType FailureType
	ShouldRetry bool
	Repaired    bool
}

// EvaluateReply checks reply against the strategy. Empty replies become the fallback and
// resource-less safety replies get the crisis line appended; both are repairs, not retries.
// Phase leaks and self references ask for one regeneration.
func EvaluateReply(reply string, strategy StrategyConfig) ReplyEvaluation {
	text := strings.TrimSpace(reply)
	eval := ReplyEvaluation{Text: text, FailureType: FailureNone}
	if text == "" {
		text = FallbackReply
		eval = ReplyEvaluation{Text: text, FailureType: FailureEmpty, Repaired: true}
	}
	lower := strings.ToLower(text)

	switch {
	case eval.FailureType == FailureEmpty:
	case phaseNames.MatchString(text):
		eval.FailureType = FailurePhaseLeak
		eval.ShouldRetry = true
	case matchAny(lower, selfReferencePatterns):
		eval.FailureType = FailureSelfReference
		eval.ShouldRetry = true
	}

	if strategy.RequireResource && !matchAny(lower, resourcePatterns) {
		eval.Text = text + "\n\n" + CrisisResourceLine
		eval.Repaired = true
		if eval.FailureType == FailureNone {
			eval.FailureType = FailureMissingResource
		}
	}
	return eval
}

func matchAny(lower string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// #endregion
