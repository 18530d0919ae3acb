package orchestrator

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/phase"
	"github.com/danielpatrickdp/companion-core/internal/profile"
	"github.com/danielpatrickdp/companion-core/internal/risk"
	"github.com/danielpatrickdp/companion-core/internal/session"
	"github.com/danielpatrickdp/companion-core/internal/suggest"
)

// #region prompt
type promptInput struct {
	profile     *profile.Profile
	emotion     emotion.Entry
	prediction  risk.Prediction
	phase       phase.Phase
	strategy    StrategyConfig
	suggestions []suggest.Suggestion
	report      session.Report
	outlook     string
	topics      Classification
	history     []chat.Turn
	message     string
}

func (o *Orchestrator) buildPrompt(in promptInput) string {
	persona := o.cfg.Persona
	name := in.profile.DisplayName()

	var hobbies, likes string
	if in.profile != nil {
		hobbies = strings.Join(in.profile.Hobbies, ", ")
		likes = strings.Join(in.profile.Likes, ", ")
	}

	var sugg strings.Builder
	if len(in.suggestions) > 0 {
		sugg.WriteString("Relevant suggestions you might mention if appropriate:\n")
		for _, s := range in.suggestions {
			fmt.Fprintf(&sugg, "- %s (%s)\n", s.Text, s.Reason)
		}
	}

	serious := "WATCH"
	if in.topics.Serious() {
		names := make([]string, len(in.topics.Topics))
		for i, t := range in.topics.Topics {
			names[i] = string(t)
		}
		serious = "ACTIVE (" + strings.Join(names, ", ") + ")"
	}
	joke := "INACTIVE"
	if in.prediction.Retracted {
		joke = "ACTIVE"
	}

	var outlook string
	if in.outlook != "" {
		outlook = "Predictive Analysis (if current patterns continue):\n" + in.outlook + "\n"
	}

	summary := in.emotion.Summary
	if summary == "" {
		summary = "Neutral"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are %s, a supportive companion. Your goal is to help %s navigate their emotions and understand their mental state.
You are NOT a therapist. You are a friendly, non-judgmental listener and guide.

User Profile:
- Name: %s
- Hobbies: %s
- Likes: %s

Current Status:
- Phase: %s
- Current Emotion: %s (Severity: %g/10)
- Stress Level: %d/100
- Burnout Level: %d/100
- Danger Level: %d/100

%s%s
Current Session Context:
- Topics: %s
- Trajectory: %s
- Immediate Needs: %s

Guidelines:
1. Be empathetic and validating. Acknowledge their feelings first.
2. Use their profile (hobbies/likes) to make metaphors or connections if it fits.
3. If they are in CRISIS or HURT phase, be extra gentle and prioritize safety and comfort.
4. You can explain what you are observing (e.g. "I noticed your stress levels have been rising lately..."), but NEVER refer to yourself as "the system" or mention internal phase names like "HURT" or "CRISIS" to the user.
5. Keep responses concise (2-3 sentences usually, unless a deeper explanation is needed).
6. Do NOT be robotic. Be warm, natural and conversational. Speak like a caring friend, not a machine.
7. If suggestions are provided above, you can gently weave ONE into your response as an option, but don't be pushy.
8. Serious Topics Protocol: %s
    - If the user mentions drugs, substance abuse, self-harm or illegal acts, your PRIORITY is safety.
    - Do NOT validate happiness that comes from drugs or harm (never say "I'm glad you're happy" if they are high).
    - Shift to a serious, concerned and supportive tone.
    - ALWAYS suggest seeking professional help, calling a hotline, or speaking to a trusted person.
    - Do not be casual or agreeable about these topics.
9. Joke Retraction Protocol: %s
    - If ACTIVE: the user just said they were joking about a serious threat.
    - Express RELIEF ("I'm so glad to hear that...").
    - But be FIRM about safety ("...but you scared me. I have to take those things seriously.").
    - Do NOT scold, but explain that you take safety seriously for a reason.
`,
		persona, name, name, hobbies, likes,
		in.phase, summary, in.emotion.Severity,
		in.prediction.Stress, in.prediction.Burnout, in.prediction.Danger,
		sugg.String(), outlook,
		strings.Join(in.report.Topics, ", "), in.report.EmotionalTrajectory, strings.Join(in.report.ImmediateNeeds, ", "),
		serious, joke,
	)
	if in.strategy.PromptModifier != "" {
		fmt.Fprintf(&b, "10. %s\n", in.strategy.PromptModifier)
	}
	fmt.Fprintf(&b, "\nRespond to the user's last message based on this context.\n\nConversation History:\n%sUser: %s\n%s:",
		chat.Transcript(in.history, persona), in.message, persona)
	return b.String()
}

// #endregion prompt
