package feedback

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memStore struct {
	entries map[string][]Entry
	err     error
}

func (m *memStore) Append(_ context.Context, userID string, e Entry) error {
	if m.err != nil {
		return m.err
	}
	if m.entries == nil {
		m.entries = make(map[string][]Entry)
	}
	m.entries[userID] = append(m.entries[userID], e)
	return nil
}

func (m *memStore) History(_ context.Context, userID string) ([]Entry, error) {
	return m.entries[userID], m.err
}

func intPtr(v int) *int { return &v }

func TestLogInteraction_Valid(t *testing.T) {
	st := &memStore{}
	s := NewService(st, nil)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	e, err := s.LogInteraction(context.Background(), "u1", "sug-1", ActionCompleted, Meta{Category: "physical"}, intPtr(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Timestamp.Year() != 2026 || *e.Rating != 4 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if len(st.entries["u1"]) != 1 {
		t.Fatalf("expected 1 stored entry, got %d", len(st.entries["u1"]))
	}

	prefs, err := s.Preferences(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefs.PreferredCategory != "physical" || prefs.AcceptanceRate != 1 {
		t.Errorf("unexpected preferences: %+v", prefs)
	}
}

func TestLogInteraction_Validation(t *testing.T) {
	s := NewService(&memStore{}, nil)
	ctx := context.Background()

	if _, err := s.LogInteraction(ctx, "u", "", ActionAccepted, Meta{}, nil); !errors.Is(err, ErrMissingSuggestion) {
		t.Errorf("expected ErrMissingSuggestion, got %v", err)
	}
	if _, err := s.LogInteraction(ctx, "u", "s", Action("liked"), Meta{}, nil); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("expected ErrInvalidAction, got %v", err)
	}
	if _, err := s.LogInteraction(ctx, "u", "s", ActionAccepted, Meta{}, intPtr(6)); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}
	if _, err := s.LogInteraction(ctx, "u", "s", ActionAccepted, Meta{}, intPtr(0)); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating for 0, got %v", err)
	}
}

func TestLogInteraction_StoreError(t *testing.T) {
	boom := errors.New("disk full")
	s := NewService(&memStore{err: boom}, nil)
	if _, err := s.LogInteraction(context.Background(), "u", "s", ActionAccepted, Meta{}, nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
