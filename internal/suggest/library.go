package suggest

import (
	"github.com/google/uuid"

	"github.com/danielpatrickdp/companion-core/internal/phase"
)

// #region library
var library = map[phase.Phase][]Suggestion{
	phase.Crisis: {
		{Text: "Contact a crisis hotline or trusted person.", Reason: "Connecting with support is crucial right now.", PermissionPrompt: "Would you be willing to make a call?", Difficulty: Hard, Category: Social, Meta: Meta{TiedTo: TiedDanger}},
		{Text: "Practice 4-7-8 breathing.", Reason: "Helps calm the nervous system immediately.", PermissionPrompt: "Can we try breathing together for a moment?", Difficulty: VeryEasy, Category: Comfort, Meta: Meta{TiedTo: TiedStress}},
		{Text: "Ground yourself: Name 5 things you see.", Reason: "Brings focus back to the present moment.", PermissionPrompt: "Would you like to try a quick grounding exercise?", Difficulty: VeryEasy, Category: Comfort, Meta: Meta{TiedTo: TiedStress}},
	},
	phase.Hurt: {
		{Text: "Take a gentle 5-minute walk.", Reason: "Movement helps process emotions.", PermissionPrompt: "Do you feel up for a short walk?", Difficulty: Easy, Category: Physical, Meta: Meta{TiedTo: TiedBurnout}},
		{Text: "Listen to a comforting song.", Reason: "Music can soothe and shift mood.", PermissionPrompt: "Would you like to put on some music?", Difficulty: VeryEasy, Category: Comfort, Meta: Meta{TiedTo: TiedStress}},
		{Text: "Write down one thing on your mind.", Reason: "Getting thoughts out can reduce mental load.", PermissionPrompt: "Would journaling a few sentences help?", Difficulty: Easy, Category: Reflective, Meta: Meta{TiedTo: TiedStress}},
	},
	phase.AtRisk: {
		{Text: "Take a 15-minute break from screens.", Reason: "Reduces digital fatigue and stress.", PermissionPrompt: "Could you take a short break now?", Difficulty: Easy, Category: Comfort, Meta: Meta{TiedTo: TiedBurnout}},
		{Text: "Drink a glass of water.", Reason: "Hydration supports physical and mental regulation.", PermissionPrompt: "Would you like to grab some water?", Difficulty: VeryEasy, Category: Physical, Meta: Meta{TiedTo: TiedBurnout}},
		{Text: "Connect with a friend.", Reason: "Social connection buffers against stress.", PermissionPrompt: "Is there someone you'd like to message?", Difficulty: Medium, Category: Social, Meta: Meta{TiedTo: TiedStress}},
	},
	phase.Stable: {
		{Text: "Reflect on a recent win.", Reason: "Reinforces positive feelings and progress.", PermissionPrompt: "Would you like to note a recent success?", Difficulty: Easy, Category: Reflective, Meta: Meta{TiedTo: TiedProfile}},
		{Text: "Try a new creative activity.", Reason: "Stimulates growth and engagement.", PermissionPrompt: "Are you interested in trying something new?", Difficulty: Medium, Category: Creative, Meta: Meta{TiedTo: TiedProfile}},
		{Text: "Plan a small treat for yourself.", Reason: "Self-care maintains stability.", PermissionPrompt: "What small treat would you enjoy?", Difficulty: Easy, Category: Comfort, Meta: Meta{TiedTo: TiedProfile}},
	},
}

// Fallback returns exactly num library suggestions for p, cycling the phase's set when num
// exceeds it. Each call issues fresh ids; unknown phases use the Stable set.
func Fallback(p phase.Phase, num int) []Suggestion {
	set, ok := library[p]
	if !ok {
		set = library[phase.Stable]
	}
	out := make([]Suggestion, 0, max(num, 0))
	for i := 0; i < num; i++ {
		out = append(out, issue(set[i%len(set)]))
	}
	return out
}

// issue copies a library item with a new id.
func issue(s Suggestion) Suggestion {
	s.ID = uuid.New().String()
	return s
}

// #endregion library
