package feedback

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func entry(action Action, category, difficulty string) Entry {
	return Entry{SuggestionID: "s", Action: action, Meta: Meta{Category: category, Difficulty: difficulty}}
}

func TestAggregate_PreferredCategoryAndRate(t *testing.T) {
	history := []Entry{
		entry(ActionAccepted, "physical", "easy"),
		entry(ActionAccepted, "physical", "easy"),
		entry(ActionAccepted, "physical", "medium"),
		entry(ActionRejected, "social", "hard"),
	}

	got := Aggregate(history)
	want := Preferences{
		PreferredCategory:   "physical",
		PreferredDifficulty: "easy",
		AcceptanceRate:      0.75,
		TotalInteractions:   4,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("preferences mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil)
	if diff := cmp.Diff(Preferences{}, got); diff != "" {
		t.Fatalf("expected zero preferences (-want +got):\n%s", diff)
	}
}

func TestAggregate_NoPositiveFeedback(t *testing.T) {
	got := Aggregate([]Entry{
		entry(ActionRejected, "social", "hard"),
		entry(ActionDismissed, "comfort", "easy"),
	})
	if got.PreferredCategory != "" || got.PreferredDifficulty != "" {
		t.Errorf("expected no preference, got %+v", got)
	}
	if got.AcceptanceRate != 0 {
		t.Errorf("expected rate 0, got %v", got.AcceptanceRate)
	}
	if got.TotalInteractions != 2 {
		t.Errorf("expected 2 interactions, got %d", got.TotalInteractions)
	}
}

func TestAggregate_CompletedCountsAndTieGoesToFirstSeen(t *testing.T) {
	got := Aggregate([]Entry{
		entry(ActionCompleted, "reflective", "easy"),
		entry(ActionAccepted, "comfort", "medium"),
		entry(ActionCompleted, "comfort", "easy"),
		entry(ActionCompleted, "reflective", "medium"),
	})
	if got.PreferredCategory != "reflective" {
		t.Errorf("expected first-seen tie winner reflective, got %q", got.PreferredCategory)
	}
	if got.PreferredDifficulty != "easy" {
		t.Errorf("expected easy, got %q", got.PreferredDifficulty)
	}
	if got.AcceptanceRate != 1 {
		t.Errorf("expected rate 1, got %v", got.AcceptanceRate)
	}
}
