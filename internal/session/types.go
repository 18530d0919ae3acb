package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

// #region report
// Report is a live, model-maintained summary of the current conversation. It is advisory
// context only and never drives a safety decision.
type Report struct {
	Topics              []string `json:"topics" jsonschema:"required,description=currently relevant topics; 3-5 items"`
	EmotionalTrajectory string   `json:"emotional_trajectory" jsonschema:"required,description=brief description of the emotional shift"`
	KeyInsights         []string `json:"key_insights" jsonschema:"required"`
	ImmediateNeeds      []string `json:"immediate_needs" jsonschema:"required,description=what the user needs right now"`
}

// NewReport returns the report a conversation starts with.
func NewReport() Report {
	return Report{
		Topics:              []string{},
		EmotionalTrajectory: "Starting conversation",
		KeyInsights:         []string{},
		ImmediateNeeds:      []string{},
	}
}

// Summary renders the report as one line for prompts and explanations.
func (r Report) Summary() string {
	var parts []string
	if len(r.Topics) > 0 {
		parts = append(parts, "topics: "+strings.Join(r.Topics, ", "))
	}
	if r.EmotionalTrajectory != "" {
		parts = append(parts, "trajectory: "+r.EmotionalTrajectory)
	}
	if len(r.ImmediateNeeds) > 0 {
		parts = append(parts, "needs: "+strings.Join(r.ImmediateNeeds, ", "))
	}
	return strings.Join(parts, "; ")
}

// #endregion report

// #region context
// Context is the per-user conversational state carried between messages.
type Context struct {
	UserID       string    `json:"user_id"`
	MessageCount int       `json:"message_count"`
	Report       Report    `json:"report"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeen     time.Time `json:"last_seen"`
}

// #endregion context

// #region store
// Store holds session contexts. Entries may disappear at any time (eviction, restart).
type Store interface {
	// Get returns the context and true, or false when none is held.
	Get(ctx context.Context, userID string) (Context, bool, error)
	Put(ctx context.Context, c Context) error
}

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and sizes the session backend.
type Config struct {
	Backend     string        `mapstructure:"backend"`
	TTL         time.Duration `mapstructure:"ttl"`
	MaxUsers    int           `mapstructure:"max_users"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisDB     int           `mapstructure:"redis_db"`
	UpdateEvery int           `mapstructure:"update_every"` // refresh the report every N messages; 0 disables
}

// DefaultConfig returns an in-memory store holding up to 1000 users for 2 hours.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendMemory,
		TTL:         2 * time.Hour,
		MaxUsers:    1000,
		RedisAddr:   "localhost:6379",
		UpdateEvery: 1,
	}
}

var ErrUnknownBackend = errors.New("session: unknown backend")

// #endregion store
