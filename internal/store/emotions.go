package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielpatrickdp/companion-core/internal/emotion"
)

// #region emotion-log
// EmotionLog is the append-only per-user emotion history.
type EmotionLog struct {
	db *sql.DB
}

// Append writes one entry.
func (l *EmotionLog) Append(ctx context.Context, userID string, e emotion.Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO emotion_logs (user_id, ts, entry_json) VALUES (?, ?, ?)`,
		userID, formatTS(e.Timestamp), string(b),
	)
	if err != nil {
		return fmt.Errorf("insert emotion log: %w", err)
	}
	return nil
}

// Since returns entries at or after t in chronological order (insertion order on ties).
func (l *EmotionLog) Since(ctx context.Context, userID string, t time.Time) ([]emotion.Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT entry_json FROM emotion_logs
		 WHERE user_id = ? AND ts >= ?
		 ORDER BY ts ASC, id ASC`,
		userID, formatTS(t),
	)
	if err != nil {
		return nil, fmt.Errorf("query emotion logs: %w", err)
	}
	defer rows.Close()

	var out []emotion.Entry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan emotion log: %w", err)
		}
		var e emotion.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode emotion log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion emotion-log
