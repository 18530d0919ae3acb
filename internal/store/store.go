package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region errors
var (
	ErrNotFound = errors.New("store: record not found")
	ErrExists   = errors.New("store: record already exists")
)

// #endregion errors

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id      TEXT PRIMARY KEY,
	profile_json TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS emotion_logs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	ts         TEXT NOT NULL,
	entry_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_emotion_logs_user_ts ON emotion_logs(user_id, ts);

CREATE TABLE IF NOT EXISTS chat_turns (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	turn_id       TEXT NOT NULL UNIQUE,
	user_id       TEXT NOT NULL,
	role          TEXT NOT NULL,
	content       TEXT NOT NULL,
	ts            TEXT NOT NULL,
	metadata_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_chat_turns_user ON chat_turns(user_id, seq);

CREATE TABLE IF NOT EXISTS feedback (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       TEXT NOT NULL,
	suggestion_id TEXT NOT NULL,
	action        TEXT NOT NULL,
	ts            TEXT NOT NULL,
	entry_json    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_user ON feedback(user_id, seq);

CREATE TABLE IF NOT EXISTS phase_log (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	turn_id      TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	source       TEXT NOT NULL,
	phase        TEXT NOT NULL,
	stress       INTEGER NOT NULL,
	burnout      INTEGER NOT NULL,
	danger       INTEGER NOT NULL,
	chaos        INTEGER NOT NULL,
	crisis       INTEGER NOT NULL,
	retracted    INTEGER NOT NULL,
	reasons_json TEXT,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_phase_log_user ON phase_log(user_id, seq);
`

// tsLayout is fixed-width so lexical order in SQLite matches time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(tsLayout, s)
}

// #endregion schema

// #region store-struct
// Store owns the SQLite database backing every per-user record kind.
type Store struct {
	db *sql.DB

	Profiles *Profiles
	Emotions *EmotionLog
	Chat     *ChatLog
	Feedback *FeedbackLog
}

// #endregion store-struct

// #region constructor
// Open opens (or creates) a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{
		db:       db,
		Profiles: &Profiles{db: db},
		Emotions: &EmotionLog{db: db},
		Chat:     &ChatLog{db: db, max: maxChatTurns},
		Feedback: &FeedbackLog{db: db},
	}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor
