package suggest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/danielpatrickdp/companion-core/internal/feedback"
	"github.com/danielpatrickdp/companion-core/internal/phase"
)

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoMissingField VetoType = "missing_field"
	VetoTooLong      VetoType = "too_long"
	VetoUnknownValue VetoType = "unknown_value"
	VetoSafety       VetoType = "safety_violation"
)

// VetoSignal is one detected hard veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-type

// #region gate-config
// GateConfig holds the length limits generated suggestions must respect.
type GateConfig struct {
	MaxTextLen   int // runes
	MaxReasonLen int // runes
}

// DefaultGateConfig returns 300/200.
func DefaultGateConfig() GateConfig {
	return GateConfig{MaxTextLen: 300, MaxReasonLen: 200}
}

// #endregion gate-config

// #region candidate
// candidate is a suggestion as decoded from model output. Pointer fields distinguish a missing
// key from an empty value.
type candidate struct {
	ID               string         `json:"id,omitempty"`
	Text             *string        `json:"text" jsonschema:"required,maxLength=280"`
	Reason           *string        `json:"reason" jsonschema:"required,maxLength=180"`
	PermissionPrompt *string        `json:"permission_prompt" jsonschema:"required"`
	Difficulty       *string        `json:"difficulty" jsonschema:"required,enum=very_easy,enum=easy,enum=medium,enum=hard"`
	Category         *string        `json:"category" jsonschema:"required,enum=comfort,enum=creative,enum=physical,enum=social,enum=reflective"`
	Meta             *candidateMeta `json:"meta,omitempty"`
}

type candidateMeta struct {
	TiedTo string `json:"tied_to" jsonschema:"enum=stress,enum=burnout,enum=danger,enum=profile,enum=general"`
}

// #endregion candidate

// #region gate-decision
// GateDecision is the outcome of evaluating one candidate.
type GateDecision struct {
	Vetoed      bool
	VetoSignals []VetoSignal
	Suggestion  Suggestion // set when not vetoed
	SoftScore   float64    // 0-1 preference alignment, used for ordering only
}

// #endregion gate-decision

// #region gate
// Gate validates generated suggestions. It checks hard vetoes first, then scores preference fit.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Evaluate applies the schema, length and phase safety rules to c. Missing ids and snapshots
// are filled in on accepted items.
func (g *Gate) Evaluate(c candidate, p phase.Phase, snap Snapshot, prefs feedback.Preferences) GateDecision {
	var vetoes []VetoSignal

	// 1. Required keys
	for name, v := range map[string]*string{
		"text": c.Text, "reason": c.Reason, "permission_prompt": c.PermissionPrompt,
		"difficulty": c.Difficulty, "category": c.Category,
	} {
		if v == nil {
			vetoes = append(vetoes, VetoSignal{Type: VetoMissingField, Reason: "missing " + name})
		}
	}
	if len(vetoes) > 0 {
		return GateDecision{Vetoed: true, VetoSignals: vetoes}
	}

	s := Suggestion{
		ID:               c.ID,
		Text:             strings.TrimSpace(*c.Text),
		Reason:           strings.TrimSpace(*c.Reason),
		PermissionPrompt: strings.TrimSpace(*c.PermissionPrompt),
		Difficulty:       Difficulty(strings.ToLower(strings.TrimSpace(*c.Difficulty))),
		Category:         Category(strings.ToLower(strings.TrimSpace(*c.Category))),
	}

	// 2. Empty or over-length text
	if s.Text == "" {
		vetoes = append(vetoes, VetoSignal{Type: VetoMissingField, Reason: "empty text"})
	}
	if n := utf8.RuneCountInString(s.Text); n > g.config.MaxTextLen {
		vetoes = append(vetoes, VetoSignal{Type: VetoTooLong, Reason: fmt.Sprintf("text length %d exceeds %d", n, g.config.MaxTextLen)})
	}
	if n := utf8.RuneCountInString(s.Reason); n > g.config.MaxReasonLen {
		vetoes = append(vetoes, VetoSignal{Type: VetoTooLong, Reason: fmt.Sprintf("reason length %d exceeds %d", n, g.config.MaxReasonLen)})
	}

	// 3. Enumerations
	if !s.Difficulty.Valid() {
		vetoes = append(vetoes, VetoSignal{Type: VetoUnknownValue, Reason: fmt.Sprintf("difficulty %q", s.Difficulty)})
	}
	if !s.Category.Valid() {
		vetoes = append(vetoes, VetoSignal{Type: VetoUnknownValue, Reason: fmt.Sprintf("category %q", s.Category)})
	}

	// 4. Crisis safety
	if p == phase.Crisis {
		if s.Difficulty == Hard && !mentionsHelp(s.Text) {
			vetoes = append(vetoes, VetoSignal{Type: VetoSafety, Reason: "hard suggestion in crisis without help resource"})
		}
		if s.Category == Creative {
			vetoes = append(vetoes, VetoSignal{Type: VetoSafety, Reason: "creative suggestion in crisis"})
		}
	}

	if len(vetoes) > 0 {
		return GateDecision{Vetoed: true, VetoSignals: vetoes}
	}

	if s.ID == "" {
		s = issue(s)
	}
	s.Meta.TiedTo = TiedGeneral
	if c.Meta != nil {
		s.Meta.TiedTo = normalizeTiedTo(strings.ToLower(strings.TrimSpace(c.Meta.TiedTo)))
	}
	snapCopy := snap
	s.Meta.Snapshot = &snapCopy

	return GateDecision{Suggestion: s, SoftScore: softScore(s, prefs)}
}

// #endregion gate

// #region helpers
func mentionsHelp(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "hotline") || strings.Contains(t, "help")
}

// softScore rewards matching the user's preferred category (0.6) and difficulty (0.4).
func softScore(s Suggestion, prefs feedback.Preferences) float64 {
	var score float64
	if prefs.PreferredCategory != "" && string(s.Category) == prefs.PreferredCategory {
		score += 0.6
	}
	if prefs.PreferredDifficulty != "" && string(s.Difficulty) == prefs.PreferredDifficulty {
		score += 0.4
	}
	return score
}

// #endregion helpers
