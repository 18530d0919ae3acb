package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/companion-core/internal/chat"
	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/feedback"
	"github.com/danielpatrickdp/companion-core/internal/profile"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// #region profile-tests
func TestProfiles_CreateGetExists(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	prof, err := s.Profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, prof)

	ok, err := s.Profiles.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Profiles.Create(ctx, "u1", profile.Profile{Name: "Sam", Hobbies: []string{"chess"}}))
	assert.ErrorIs(t, s.Profiles.Create(ctx, "u1", profile.Profile{}), ErrExists)

	ok, err = s.Profiles.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	prof, err = s.Profiles.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, prof)
	assert.Equal(t, "Sam", prof.Name)
	assert.Equal(t, []string{"chess"}, prof.Hobbies)
}

func TestProfiles_UpdateMergeIsIdempotent(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	require.NoError(t, s.Profiles.Create(ctx, "u1", profile.Profile{Name: "Sam", Hobbies: []string{"chess"}}))

	patch := map[string]any{
		"hobbies":        []string{"chess", "running"},
		"personal_notes": "busy at work",
	}
	first, err := s.Profiles.Update(ctx, "u1", patch)
	require.NoError(t, err)
	second, err := s.Profiles.Update(ctx, "u1", patch)
	require.NoError(t, err)

	assert.Equal(t, []string{"chess", "running"}, first.Hobbies)
	assert.Equal(t, first.Hobbies, second.Hobbies)
	assert.Equal(t, "busy at work", second.PersonalNotes)
	assert.Equal(t, "Sam", second.Name, "untouched scalar must survive")
}

func TestProfiles_UpdateTypedMemories(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	require.NoError(t, s.Profiles.Create(ctx, "u1", profile.Profile{Name: "Sam"}))

	mem := profile.Memory{Type: "goal", Text: "run a marathon", Confidence: 0.9, Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	for i := 0; i < 2; i++ {
		_, err := s.Profiles.Update(ctx, "u1", map[string]any{"important_memories": []profile.Memory{mem}})
		require.NoError(t, err)
	}

	prof, err := s.Profiles.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, prof.ImportantMemories, 1)
	assert.Equal(t, "run a marathon", prof.ImportantMemories[0].Text)
}

func TestProfiles_UpdateMissing(t *testing.T) {
	s := tempDB(t)
	_, err := s.Profiles.Update(context.Background(), "ghost", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfiles_UpdateRejectsWrongType(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	require.NoError(t, s.Profiles.Create(ctx, "u1", profile.Profile{Name: "Sam"}))

	_, err := s.Profiles.Update(ctx, "u1", map[string]any{"age": "old"})
	require.Error(t, err)

	prof, err := s.Profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, prof.Age, "failed update must not be written")
}

// #endregion profile-tests

// #region merge-tests
func TestMerge(t *testing.T) {
	base := map[string]any{"name": "a", "tags": []any{"x"}, "n": 1.0}
	partial := map[string]any{"name": "b", "tags": []any{"x", "y"}, "n": nil, "new": []any{"z"}}

	got := Merge(base, partial)
	assert.Equal(t, "b", got["name"])
	assert.Equal(t, []any{"x", "y"}, got["tags"])
	assert.Equal(t, 1.0, got["n"], "null must not overwrite")
	assert.Equal(t, []any{"z"}, got["new"])
	assert.Equal(t, []any{"x"}, base["tags"], "base must not be mutated")

	again := Merge(got, partial)
	assert.Equal(t, got, again)
}

// #endregion merge-tests

// #region emotion-tests
func TestEmotionLog_SinceOrdersChronologically(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	entries := []emotion.Entry{
		{Timestamp: base.Add(-40 * 24 * time.Hour), RawText: "old"},
		{Timestamp: base.Add(-2 * time.Hour), RawText: "b"},
		{Timestamp: base.Add(-3 * time.Hour), RawText: "a"},
		{Timestamp: base.Add(-1 * time.Hour).Add(500 * time.Millisecond), RawText: "c"},
	}
	for _, e := range entries {
		require.NoError(t, s.Emotions.Append(ctx, "u1", e))
	}
	require.NoError(t, s.Emotions.Append(ctx, "u2", emotion.Entry{Timestamp: base, RawText: "other"}))

	got, err := s.Emotions.Since(ctx, "u1", base.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].RawText)
	assert.Equal(t, "b", got[1].RawText)
	assert.Equal(t, "c", got[2].RawText)
}

// #endregion emotion-tests

// #region chat-tests
func TestChatLog_TruncatesToMax(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < chat.MaxTurns+7; i++ {
		turn := chat.NewTurn(chat.RoleUser, fmt.Sprintf("msg %d", i), start.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.Chat.Append(ctx, "u1", turn))
	}

	all, err := s.Chat.Recent(ctx, "u1", 1000)
	require.NoError(t, err)
	require.Len(t, all, chat.MaxTurns)
	assert.Equal(t, "msg 7", all[0].Content)
	assert.Equal(t, fmt.Sprintf("msg %d", chat.MaxTurns+6), all[len(all)-1].Content)

	tail, err := s.Chat.Recent(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, tail, 3)
	assert.Equal(t, fmt.Sprintf("msg %d", chat.MaxTurns+4), tail[0].Content)
}

func TestChatLog_Metadata(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	turn := chat.NewTurn(chat.RoleSystem, "hello", time.Now())
	turn.Metadata = map[string]string{"phase": "STABLE"}
	require.NoError(t, s.Chat.Append(ctx, "u1", turn))

	got, err := s.Chat.Recent(ctx, "u1", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "STABLE", got[0].Metadata["phase"])
	assert.Equal(t, chat.RoleSystem, got[0].Role)
	assert.Equal(t, turn.ID, got[0].ID)
}

// #endregion chat-tests

// #region feedback-tests
func TestFeedbackLog_AppendHistory(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	rating := 5
	require.NoError(t, s.Feedback.Append(ctx, "u1", feedback.Entry{SuggestionID: "a", Action: feedback.ActionAccepted, Rating: &rating, Meta: feedback.Meta{Category: "physical"}}))
	require.NoError(t, s.Feedback.Append(ctx, "u1", feedback.Entry{SuggestionID: "b", Action: feedback.ActionRejected}))

	got, err := s.Feedback.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].SuggestionID)
	assert.Equal(t, 5, *got[0].Rating)
	assert.Equal(t, "physical", got[0].Meta.Category)

	none, err := s.Feedback.History(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// #endregion feedback-tests
