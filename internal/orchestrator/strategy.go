package orchestrator

import "github.com/danielpatrickdp/companion-core/internal/phase"

// #region strategy-ids

// StrategyID names a reply strategy.
type StrategyID string

const (
	StrategyCheckIn StrategyID = "check_in"
	StrategySupport StrategyID = "support"
	StrategyComfort StrategyID = "comfort"
	StrategySafety  StrategyID = "safety"
)

// #endregion

// #region strategy-config

// StrategyConfig defines how a phase shapes the reply.
type StrategyConfig struct {
	ID StrategyID
	// Suggestions is how many suggestions to offer alongside the reply.
	Suggestions int
	// RequireResource makes the evaluator ensure a help resource is mentioned.
	RequireResource bool
	PromptModifier  string // appended to the guidelines, empty = none
}

// Strategies is the static registry of reply strategies.
var Strategies = map[StrategyID]StrategyConfig{
	StrategyCheckIn: {
		ID: StrategyCheckIn,
	},
	StrategySupport: {
		ID:             StrategySupport,
		Suggestions:    1,
		PromptModifier: "Gently check what has been weighing on them lately and keep the tone light but attentive.",
	},
	StrategyComfort: {
		ID:             StrategyComfort,
		Suggestions:    2,
		PromptModifier: "Prioritise comfort and validation. Slow down and do not rush to fix things.",
	},
	StrategySafety: {
		ID:              StrategySafety,
		Suggestions:     3,
		RequireResource: true,
		PromptModifier:  "Their safety comes first. Stay calm and present, ask whether they are safe right now, and encourage contacting a crisis line or a trusted person.",
	},
}

// #endregion

// #region mapping

var phaseMapping = map[phase.Phase]StrategyID{
	phase.Stable: StrategyCheckIn,
	phase.AtRisk: StrategySupport,
	phase.Hurt:   StrategyComfort,
	phase.Crisis: StrategySafety,
}

// StrategyFor returns the reply strategy for p. Unknown phases get the safety strategy.
func StrategyFor(p phase.Phase) StrategyConfig {
	if id, ok := phaseMapping[p]; ok {
		return Strategies[id]
	}
	return Strategies[StrategySafety]
}

// #endregion
