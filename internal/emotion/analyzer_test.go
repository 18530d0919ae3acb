package emotion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielpatrickdp/companion-core/internal/llm"
)

// #region helpers
type countingGen struct {
	out   string
	err   error
	calls int
}

func (g *countingGen) Generate(_ context.Context, _ string) (string, error) {
	g.calls++
	return g.out, g.err
}

func fixedAnalyzer(gen llm.Generator) *Analyzer {
	a := NewAnalyzer(gen, nil)
	a.now = func() time.Time { return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC) }
	return a
}

// #endregion helpers

// #region short-circuit-tests
func TestShouldSkip(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"ok", true},
		{"hi there friend", true},
		{"I feel sad", false},
		{"help", false},
		{"this is four words", false},
		{"SCARED", false},
	}
	for _, tc := range cases {
		if got := ShouldSkip(tc.text); got != tc.want {
			t.Errorf("ShouldSkip(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestNewEntry_ShortInputSkipsModel(t *testing.T) {
	gen := &countingGen{}
	a := fixedAnalyzer(gen)

	e, err := a.NewEntry(context.Background(), "hey you")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no model calls, got %d", gen.calls)
	}
	if e.Severity != 0 || e.Stability != 5 || e.Summary != SummaryShortInput {
		t.Errorf("unexpected neutral entry: %+v", e)
	}
	if e.RawText != "hey you" {
		t.Errorf("raw text should be kept, got %q", e.RawText)
	}
}

func TestNewEntry_EmptyText(t *testing.T) {
	a := fixedAnalyzer(&countingGen{})
	if _, err := a.NewEntry(context.Background(), "   "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

// #endregion short-circuit-tests

// #region analyze-tests
func TestNewEntry_Analyzed(t *testing.T) {
	gen := &countingGen{out: "```json\n{\"emotion_tags\":[\"Anxious\",\"tired\",\"anxious\"],\"severity\":7,\"stability\":3,\"summary\":\"Worried about exams\"}\n```"}
	a := fixedAnalyzer(gen)

	e, err := a.NewEntry(context.Background(), "I am really worried about my exams tomorrow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.Tags) != 2 || e.Tags[0] != "anxious" || e.Tags[1] != "tired" {
		t.Errorf("expected normalized tags, got %v", e.Tags)
	}
	if e.Severity != 7 || e.Stability != 3 {
		t.Errorf("unexpected scores: %+v", e)
	}
	if !e.Timestamp.Equal(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", e.Timestamp)
	}
}

func TestParseAnalysis_CoercesAndClamps(t *testing.T) {
	an, err := ParseAnalysis(`{"emotion_tags":"sad, lonely","severity":"42","stability":-3,"summary":" low "}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(an.Tags) != 2 || an.Tags[1] != "lonely" {
		t.Errorf("expected coerced tag list, got %v", an.Tags)
	}
	if an.Severity != 10 {
		t.Errorf("expected severity clamped to 10, got %v", an.Severity)
	}
	if an.Stability != 0 {
		t.Errorf("expected stability clamped to 0, got %v", an.Stability)
	}
	if an.Summary != "low" {
		t.Errorf("expected trimmed summary, got %q", an.Summary)
	}
}

func TestParseAnalysis_MissingKey(t *testing.T) {
	_, err := ParseAnalysis(`{"emotion_tags":[],"severity":3,"summary":"x"}`)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestParseAnalysis_NotJSON(t *testing.T) {
	if _, err := ParseAnalysis("I think they feel sad"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestAnalyze_PropagatesGeneratorError(t *testing.T) {
	a := fixedAnalyzer(&countingGen{err: llm.ErrUnavailable})
	_, err := a.Analyze(context.Background(), "I can't stop worrying about everything")
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

// #endregion analyze-tests
