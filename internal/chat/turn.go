package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTurns is the per-user history length kept on write; older turns are dropped.
const MaxTurns = 50

// Role identifies the author of a turn.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Turn is one message in a user's conversation history.
type Turn struct {
	ID        string            `json:"id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewTurn stamps a turn with a fresh id and the given time.
func NewTurn(role Role, content string, at time.Time) Turn {
	return Turn{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: at.UTC(),
	}
}

// UserTurns filters turns authored by the user, preserving order.
func UserTurns(turns []Turn) []Turn {
	var out []Turn
	for _, t := range turns {
		if t.Role == RoleUser {
			out = append(out, t)
		}
	}
	return out
}

// Last returns at most n trailing turns.
func Last(turns []Turn, n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

// Transcript renders turns as "role: content" lines, labelling the user and the given persona.
func Transcript(turns []Turn, persona string) string {
	var b strings.Builder
	for _, t := range turns {
		speaker := "User"
		if t.Role != RoleUser {
			speaker = persona
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}
