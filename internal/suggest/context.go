package suggest

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/pii"
	"github.com/danielpatrickdp/companion-core/internal/profile"
)

// MaxContextLen caps the context summary sent to the model, in runes.
const MaxContextLen = 2000

// BuildContext renders a PII-masked summary of the profile, the last five logged messages and
// the current scores.
func BuildContext(prof *profile.Profile, logs []emotion.Entry, scores Snapshot) string {
	var name string
	var hobbies, goals []string
	if prof != nil {
		name = prof.Name
		hobbies = firstN(prof.Hobbies, 3)
		goals = firstN(prof.Goals, 2)
	}

	var b strings.Builder
	b.WriteString("User Profile:\n")
	fmt.Fprintf(&b, "- Hobbies: %s\n", strings.Join(hobbies, ", "))
	fmt.Fprintf(&b, "- Goals: %s\n\n", strings.Join(goals, ", "))

	b.WriteString("Recent User Messages & Emotional State:\n")
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	for _, l := range logs {
		if l.RawText != "" {
			fmt.Fprintf(&b, "- User said: %q -> %s (Severity: %.1f/10)\n", l.RawText, l.Summary, l.Severity)
		} else {
			fmt.Fprintf(&b, "- Mood: %s (Severity: %.1f/10)\n", l.Summary, l.Severity)
		}
	}

	b.WriteString("\nPredictions:\n")
	fmt.Fprintf(&b, "- Stress: %d/100\n- Burnout: %d/100\n- Danger: %d/100\n", scores.Stress, scores.Burnout, scores.Danger)

	masked := pii.MaskName(b.String(), name)
	if r := []rune(masked); len(r) > MaxContextLen {
		masked = string(r[:MaxContextLen])
	}
	return masked
}

func firstN(xs []string, n int) []string {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}
