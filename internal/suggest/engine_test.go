package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/feedback"
	"github.com/danielpatrickdp/companion-core/internal/llm"
	"github.com/danielpatrickdp/companion-core/internal/phase"
	"github.com/danielpatrickdp/companion-core/internal/profile"
	"github.com/danielpatrickdp/companion-core/internal/risk"
	"github.com/danielpatrickdp/companion-core/internal/session"
)

// #region mocks
type mockPredictor struct {
	pred risk.Prediction
	err  error
	req  risk.Request
}

func (m *mockPredictor) PredictAll(_ context.Context, req risk.Request) (risk.Prediction, error) {
	m.req = req
	return m.pred, m.err
}

type mockLogs struct{ entries []emotion.Entry }

func (m mockLogs) Since(context.Context, string, time.Time) ([]emotion.Entry, error) {
	return m.entries, nil
}

type mockProfiles struct{ prof *profile.Profile }

func (m mockProfiles) Get(context.Context, string) (*profile.Profile, error) { return m.prof, nil }

type mockPrefs struct {
	prefs feedback.Preferences
	err   error
}

func (m mockPrefs) Preferences(context.Context, string) (feedback.Preferences, error) {
	return m.prefs, m.err
}

type countingGen struct {
	out    string
	err    error
	calls  int
	prompt string
}

func (g *countingGen) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompt = prompt
	return g.out, g.err
}

func newTestEngine(pred risk.Prediction, gen llm.Generator, prof *profile.Profile, prefs feedback.Preferences) (*Engine, *mockPredictor) {
	mp := &mockPredictor{pred: pred}
	var g llm.Generator
	if gen != nil {
		g = gen
	}
	e := NewEngine(mp, mockLogs{}, mockProfiles{prof: prof}, mockPrefs{prefs: prefs}, g, phase.DefaultThresholds(), nil)
	return e, mp
}

const twoValid = `[
 {"text": "Take a 5-minute walk outside", "reason": "Movement reduces stress", "permission_prompt": "Want to walk?", "difficulty": "easy", "category": "physical", "meta": {"tied_to": "stress"}},
 {"text": "Write down three things you're grateful for", "reason": "Gratitude shifts perspective", "permission_prompt": "Try it?", "difficulty": "very_easy", "category": "reflective"}
]`

// #endregion mocks

// #region crisis-tests
func TestSuggest_CrisisNeverGenerates(t *testing.T) {
	gen := &countingGen{out: twoValid}
	e, _ := newTestEngine(risk.Prediction{Danger: 100, CrisisDetected: true}, gen, nil, feedback.Preferences{})

	res, err := e.SuggestForUser(context.Background(), "u1", 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator called %d times in crisis", gen.calls)
	}
	if res.Phase != phase.Crisis || !res.Urgent || !res.UsedFallback {
		t.Errorf("unexpected result header %+v", res)
	}
	if len(res.Suggestions) != 5 {
		t.Fatalf("expected 5 suggestions, got %d", len(res.Suggestions))
	}
	for _, s := range res.Suggestions {
		if s.Category == Creative {
			t.Errorf("creative suggestion in crisis: %q", s.Text)
		}
		if s.Difficulty == Hard && !mentionsHelp(s.Text) {
			t.Errorf("hard suggestion without help resource in crisis: %q", s.Text)
		}
	}
}

// #endregion crisis-tests

// #region count-tests
func TestSuggest_ExactCountWhenGenerationFails(t *testing.T) {
	for _, p := range []phase.Phase{phase.Stable, phase.AtRisk, phase.Hurt, phase.Crisis} {
		for num := MinCount; num <= MaxCount; num++ {
			gen := &countingGen{err: llm.ErrUnavailable}
			e, _ := newTestEngine(risk.Prediction{}, gen, nil, feedback.Preferences{})
			res, err := e.Suggest(context.Background(), Input{Phase: p, Num: num})
			if err != nil {
				t.Fatalf("%s/%d: unexpected error %v", p, num, err)
			}
			if len(res.Suggestions) != num {
				t.Fatalf("%s/%d: got %d suggestions", p, num, len(res.Suggestions))
			}
		}
	}
}

func TestSuggest_InvalidCount(t *testing.T) {
	e, _ := newTestEngine(risk.Prediction{}, nil, nil, feedback.Preferences{})
	for _, n := range []int{0, -1, 11} {
		if _, err := e.SuggestForUser(context.Background(), "u1", n, nil); !errors.Is(err, ErrInvalidCount) {
			t.Errorf("num=%d: expected ErrInvalidCount, got %v", n, err)
		}
	}
}

// #endregion count-tests

// #region generation-tests
func TestSuggest_GeneratedThenBackfilled(t *testing.T) {
	gen := &countingGen{out: "```json\n" + twoValid + "\n```"}
	e, _ := newTestEngine(risk.Prediction{Stress: 45}, gen, &profile.Profile{Name: "Ava", Hobbies: []string{"chess"}}, feedback.Preferences{})

	res, err := e.SuggestForUser(context.Background(), "u1", 4, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Phase != phase.AtRisk {
		t.Errorf("expected AT_RISK, got %s", res.Phase)
	}
	if len(res.Suggestions) != 4 {
		t.Fatalf("expected 4 suggestions, got %d", len(res.Suggestions))
	}
	if res.Suggestions[0].Text != "Take a 5-minute walk outside" {
		t.Errorf("generated items should come first, got %q", res.Suggestions[0].Text)
	}
	if res.Suggestions[2].Text != Fallback(phase.AtRisk, 1)[0].Text {
		t.Errorf("expected library backfill, got %q", res.Suggestions[2].Text)
	}
	if !res.UsedFallback {
		t.Error("backfill should mark UsedFallback")
	}
	if res.Suggestions[0].Meta.Snapshot == nil || res.Suggestions[0].Meta.Snapshot.Stress != 45 {
		t.Error("generated suggestion should carry the prediction snapshot")
	}
	ids := map[string]bool{}
	for _, s := range res.Suggestions {
		if ids[s.ID] {
			t.Errorf("duplicate id %s", s.ID)
		}
		ids[s.ID] = true
	}
}

func TestSuggest_PromptIsMasked(t *testing.T) {
	gen := &countingGen{out: twoValid}
	mp := &mockPredictor{pred: risk.Prediction{}}
	logs := mockLogs{entries: []emotion.Entry{{RawText: "Ava here, mail me at ava@example.com", Summary: "ok"}}}
	e := NewEngine(mp, logs, mockProfiles{prof: &profile.Profile{Name: "Ava"}}, nil, gen, phase.DefaultThresholds(), nil)

	if _, err := e.SuggestForUser(context.Background(), "u1", 2, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(gen.prompt, "Ava") || strings.Contains(gen.prompt, "ava@example.com") {
		t.Errorf("prompt leaks PII:\n%s", gen.prompt)
	}
}

func TestSuggest_PreferenceOrdering(t *testing.T) {
	gen := &countingGen{out: twoValid}
	prefs := feedback.Preferences{PreferredCategory: "reflective"}
	e, _ := newTestEngine(risk.Prediction{}, gen, nil, prefs)

	res, err := e.SuggestForUser(context.Background(), "u1", 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Suggestions[0].Category != Reflective {
		t.Errorf("preferred category should lead, got %s", res.Suggestions[0].Category)
	}
	if !strings.Contains(gen.prompt, "User prefers 'reflective' activities.") {
		t.Error("prompt should mention preferences")
	}
	if res.UsedFallback {
		t.Error("no fallback expected")
	}
}

func TestSuggest_AllVetoedFallsBack(t *testing.T) {
	gen := &countingGen{out: `[{"text": "x"}]`}
	e, _ := newTestEngine(risk.Prediction{}, gen, nil, feedback.Preferences{})
	res, err := e.SuggestForUser(context.Background(), "u1", 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.UsedFallback || len(res.Suggestions) != 3 {
		t.Fatalf("expected full fallback, got %+v", res)
	}
}

func TestSuggest_SessionPassedToPredictor(t *testing.T) {
	e, mp := newTestEngine(risk.Prediction{}, nil, nil, feedback.Preferences{})
	r := session.NewReport()
	if _, err := e.SuggestForUser(context.Background(), "u9", 1, &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mp.req.UserID != "u9" || mp.req.Session != &r {
		t.Errorf("unexpected predictor request %+v", mp.req)
	}
}

func TestSuggest_PredictorError(t *testing.T) {
	mp := &mockPredictor{err: errors.New("db down")}
	e := NewEngine(mp, mockLogs{}, mockProfiles{}, nil, nil, phase.DefaultThresholds(), nil)
	if _, err := e.SuggestForUser(context.Background(), "u1", 3, nil); err == nil {
		t.Fatal("expected error")
	}
}

// #endregion generation-tests

// #region library-tests
func TestFallbackCycles(t *testing.T) {
	got := Fallback(phase.Hurt, 7)
	if len(got) != 7 {
		t.Fatalf("expected 7, got %d", len(got))
	}
	if got[3].Text != got[0].Text || got[6].Text != got[0].Text {
		t.Error("expected the set to cycle")
	}
	if got[3].ID == got[0].ID {
		t.Error("cycled items need distinct ids")
	}
}

func TestBackfillWhenLibraryExhausted(t *testing.T) {
	valid := Fallback(phase.Stable, 3)
	got := backfill(valid, phase.Stable, 5)
	if len(got) != 5 {
		t.Fatalf("expected padding to reach 5, got %d", len(got))
	}
}

// #endregion library-tests
