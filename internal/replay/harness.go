package replay

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/phase"
	"github.com/danielpatrickdp/companion-core/internal/profile"
	"github.com/danielpatrickdp/companion-core/internal/risk"
)

// #region types
// Step is a single recorded entry to replay.
type Step struct {
	ID    string
	Entry emotion.Entry
}

// Config bundles the scoring profile and phase thresholds for a replay run.
type Config struct {
	Risk       risk.Config
	Thresholds phase.Thresholds
}

// DefaultConfig returns the production scoring profile and thresholds.
func DefaultConfig() Config {
	return Config{
		Risk:       risk.DefaultConfig(),
		Thresholds: phase.DefaultThresholds(),
	}
}

// Result captures the outcome of replaying one entry.
type Result struct {
	ID         string
	At         time.Time
	Phase      phase.Phase
	Prediction risk.Prediction
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalSteps  int
	PerPhase    map[phase.Phase]int
	Transitions int
	// FirstCrisis is the id of the first CRISIS step, empty if none.
	FirstCrisis string
	Final       phase.Phase
}

// #endregion types

// #region log-source
// timeline serves entries up to the replay clock, mimicking the emotion log at that moment.
type timeline struct {
	entries []emotion.Entry
	now     time.Time
}

func (t *timeline) Since(_ context.Context, _ string, since time.Time) ([]emotion.Entry, error) {
	var out []emotion.Entry
	for _, e := range t.entries {
		if e.Timestamp.Before(since) || e.Timestamp.After(t.now) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type fixedProfile struct{ prof *profile.Profile }

func (f fixedProfile) Get(context.Context, string) (*profile.Profile, error) { return f.prof, nil }

// #endregion log-source

// #region replay
// Replay feeds steps one at a time through prediction and classification, with the clock set
// to each entry's timestamp. Steps are replayed in timestamp order. Operates entirely in memory.
func Replay(ctx context.Context, steps []Step, prof *profile.Profile, cfg Config) ([]Result, error) {
	ordered := make([]Step, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Entry.Timestamp.Before(ordered[j].Entry.Timestamp)
	})

	tl := &timeline{entries: make([]emotion.Entry, 0, len(ordered))}
	pred := risk.NewPredictor(tl, fixedProfile{prof: prof}, nil, nil, cfg.Risk, nil)
	pred.SetClock(func() time.Time { return tl.now })

	results := make([]Result, 0, len(ordered))
	for _, s := range ordered {
		tl.entries = append(tl.entries, s.Entry)
		tl.now = s.Entry.Timestamp

		p, err := pred.PredictAll(ctx, risk.Request{UserID: "replay"})
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", s.ID, err)
		}
		results = append(results, Result{
			ID:         s.ID,
			At:         s.Entry.Timestamp,
			Phase:      cfg.Thresholds.Classify(p.Stress, p.Burnout, p.Danger, p.CrisisDetected),
			Prediction: p,
		})
	}
	return results, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{
		TotalSteps: len(results),
		PerPhase:   map[phase.Phase]int{},
	}
	for i, r := range results {
		s.PerPhase[r.Phase]++
		if i > 0 && r.Phase != results[i-1].Phase {
			s.Transitions++
		}
		if r.Phase == phase.Crisis && s.FirstCrisis == "" {
			s.FirstCrisis = r.ID
		}
		s.Final = r.Phase
	}
	return s
}

// #endregion replay
