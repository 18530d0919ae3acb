package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/companion-core/internal/feedback"
)

// #region feedback-log
// FeedbackLog is the append-only per-user suggestion interaction history.
type FeedbackLog struct {
	db *sql.DB
}

// Append writes one interaction.
func (f *FeedbackLog) Append(ctx context.Context, userID string, e feedback.Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	_, err = f.db.ExecContext(ctx,
		`INSERT INTO feedback (user_id, suggestion_id, action, ts, entry_json) VALUES (?, ?, ?, ?, ?)`,
		userID, e.SuggestionID, string(e.Action), formatTS(e.Timestamp), string(b),
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// History returns all of the user's interactions in insertion order.
func (f *FeedbackLog) History(ctx context.Context, userID string) ([]feedback.Entry, error) {
	rows, err := f.db.QueryContext(ctx,
		`SELECT entry_json FROM feedback WHERE user_id = ? ORDER BY seq ASC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var out []feedback.Entry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		var e feedback.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode feedback: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion feedback-log
