package risk

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/companion-core/internal/chaos"
	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/llm"
	"github.com/danielpatrickdp/companion-core/internal/profile"
	"github.com/danielpatrickdp/companion-core/internal/session"
)

// #region mocks
type mockLogs struct {
	entries []emotion.Entry
	err     error
	since   time.Time
}

func (m *mockLogs) Since(_ context.Context, _ string, t time.Time) ([]emotion.Entry, error) {
	m.since = t
	var out []emotion.Entry
	for _, e := range m.entries {
		if !e.Timestamp.Before(t) {
			out = append(out, e)
		}
	}
	return out, m.err
}

type mockProfiles struct {
	prof *profile.Profile
	err  error
}

func (m *mockProfiles) Get(context.Context, string) (*profile.Profile, error) {
	return m.prof, m.err
}

type mockChaos struct {
	result chaos.Result
	calls  int
}

func (m *mockChaos) Score(context.Context, []chat.Turn, []emotion.Entry) chaos.Result {
	m.calls++
	return m.result
}

func newTestPredictor(logs *mockLogs, profiles *mockProfiles, c chaos.Strategy, gen llm.Generator) *Predictor {
	p := NewPredictor(logs, profiles, c, gen, DefaultConfig(), nil)
	p.SetClock(func() time.Time { return t0 })
	return p
}

// #endregion mocks

// #region predict-all-tests
func TestPredictAll_NoData(t *testing.T) {
	c := &mockChaos{}
	p := newTestPredictor(&mockLogs{}, &mockProfiles{}, c, nil)
	history := []chat.Turn{chat.NewTurn(chat.RoleUser, "hi", t0)}

	got, err := p.PredictAll(context.Background(), Request{UserID: "u1", History: history})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(NoData(), got); diff != "" {
		t.Errorf("no-data prediction mismatch (-want +got):\n%s", diff)
	}
	if c.calls != 0 {
		t.Error("chaos must not be scored without logs")
	}
}

func TestPredictAll_Windows(t *testing.T) {
	logs := &mockLogs{entries: []emotion.Entry{
		entry(24*20, "old but in long window", 9, 1, "tired"),
		entry(2, "recent", 2, 6),
	}}
	p := newTestPredictor(logs, &mockProfiles{}, nil, nil)

	got, err := p.PredictAll(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := t0.AddDate(0, 0, -30); !logs.since.Equal(want) {
		t.Errorf("expected 30-day query, got since=%v", logs.since)
	}
	// stress sees only the recent entry: 2*9 = 18
	if got.Stress != 18 {
		t.Errorf("expected stress 18 from the short window, got %d", got.Stress)
	}
	// danger sees the spike from 20 days ago
	if got.Danger != 20 {
		t.Errorf("expected danger 20, got %d", got.Danger)
	}
	if got.Chaos != 0 || got.Explanations["chaos"] != "No conversation data available." {
		t.Errorf("unexpected chaos %d %q", got.Chaos, got.Explanations["chaos"])
	}
	if got.Trend.ThirtyDay != Improving {
		t.Errorf("expected improving 30-day trend, got %s", got.Trend.ThirtyDay)
	}
}

func TestPredictAll_CrisisSuffix(t *testing.T) {
	logs := &mockLogs{entries: []emotion.Entry{entry(1, "I took too many pills", 9, 1)}}
	p := newTestPredictor(logs, &mockProfiles{}, nil, nil)

	got, err := p.PredictAll(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.CrisisDetected || got.Danger != 100 {
		t.Fatalf("expected crisis, got %+v", got)
	}
	if !strings.HasSuffix(got.Explanations["danger"], DefaultConfig().CrisisSuffix) {
		t.Errorf("danger explanation missing hotline suffix: %q", got.Explanations["danger"])
	}
}

func TestPredictAll_RetractionIsStructured(t *testing.T) {
	logs := &mockLogs{entries: []emotion.Entry{
		entry(2, "I want to kill myself", 9, 1),
		entry(1, "just kidding, false alarm", 1, 7),
	}}
	p := newTestPredictor(logs, &mockProfiles{}, nil, nil)
	got, err := p.PredictAll(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Retracted || got.CrisisDetected || got.Danger != 20 {
		t.Fatalf("expected structured retraction, got %+v", got)
	}
}

func TestPredictAll_ChaosAndSession(t *testing.T) {
	logs := &mockLogs{entries: []emotion.Entry{entry(1, "x", 3, 5)}}
	c := &mockChaos{result: chaos.Result{Score: 55, Reason: chaos.ReasonModerate}}
	p := newTestPredictor(logs, &mockProfiles{}, c, nil)
	report := session.Report{Topics: []string{"exams"}}

	got, err := p.PredictAll(context.Background(), Request{
		UserID:  "u1",
		Session: &report,
		History: []chat.Turn{chat.NewTurn(chat.RoleUser, "x", t0)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Chaos != 55 || got.Explanations["chaos"] != chaos.ReasonModerate {
		t.Errorf("chaos not delegated: %d %q", got.Chaos, got.Explanations["chaos"])
	}
	if got.Explanations["session"] != "topics: exams" {
		t.Errorf("unexpected session explanation %q", got.Explanations["session"])
	}
}

func TestPredictAll_StorageErrors(t *testing.T) {
	boom := errors.New("disk gone")
	p := newTestPredictor(&mockLogs{err: boom}, &mockProfiles{}, nil, nil)
	if _, err := p.PredictAll(context.Background(), Request{UserID: "u1"}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped log error, got %v", err)
	}

	logs := &mockLogs{entries: []emotion.Entry{entry(1, "x", 3, 5)}}
	p = newTestPredictor(logs, &mockProfiles{err: boom}, nil, nil)
	if _, err := p.PredictAll(context.Background(), Request{UserID: "u1"}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped profile error, got %v", err)
	}
}

// #endregion predict-all-tests

// #region analysis-tests
func TestPredictiveAnalysis(t *testing.T) {
	history := []chat.Turn{
		chat.NewTurn(chat.RoleUser, "I keep drinking to sleep", t0),
		chat.NewTurn(chat.RoleSystem, "That sounds hard.", t0),
	}

	gen := llm.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "- I keep drinking to sleep") {
			t.Errorf("prompt missing user message: %s", prompt)
		}
		return "  SHORT-TERM: poor sleep\nLONG-TERM: dependence  ", nil
	})
	p := newTestPredictor(&mockLogs{}, &mockProfiles{}, nil, gen)
	if got := p.PredictiveAnalysis(context.Background(), history, Prediction{}); got != "SHORT-TERM: poor sleep\nLONG-TERM: dependence" {
		t.Errorf("unexpected analysis %q", got)
	}

	failing := llm.GeneratorFunc(func(context.Context, string) (string, error) { return "", llm.ErrUnavailable })
	p = newTestPredictor(&mockLogs{}, &mockProfiles{}, nil, failing)
	got := p.PredictiveAnalysis(context.Background(), history, Prediction{Burnout: 65})
	if !strings.Contains(got, "Continued exhaustion") {
		t.Errorf("expected burnout fallback, got %q", got)
	}

	if got := p.PredictiveAnalysis(context.Background(), history[:1], Prediction{}); got != analysisNotEnough {
		t.Errorf("unexpected %q", got)
	}
}

// #endregion analysis-tests
