package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/companion-core/internal/chat"
)

const maxChatTurns = chat.MaxTurns

// #region chat-log
// ChatLog keeps each user's most recent turns.
type ChatLog struct {
	db  *sql.DB
	max int
}

// Append writes a turn and drops the user's oldest turns beyond the cap, atomically.
func (c *ChatLog) Append(ctx context.Context, userID string, t chat.Turn) error {
	var meta any
	if len(t.Metadata) > 0 {
		b, err := json.Marshal(t.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		meta = string(b)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_turns (turn_id, user_id, role, content, ts, metadata_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, userID, string(t.Role), t.Content, formatTS(t.Timestamp), meta,
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM chat_turns
		 WHERE user_id = ? AND seq NOT IN (
			SELECT seq FROM chat_turns WHERE user_id = ? ORDER BY seq DESC LIMIT ?
		 )`,
		userID, userID, c.max,
	)
	if err != nil {
		return fmt.Errorf("truncate history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Recent returns up to limit of the user's newest turns, oldest first.
func (c *ChatLog) Recent(ctx context.Context, userID string, limit int) ([]chat.Turn, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT turn_id, role, content, ts, metadata_json FROM chat_turns
		 WHERE user_id = ? ORDER BY seq DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []chat.Turn
	for rows.Next() {
		var (
			t    chat.Turn
			role string
			ts   string
			meta sql.NullString
		)
		if err := rows.Scan(&t.ID, &role, &t.Content, &ts, &meta); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = chat.Role(role)
		if t.Timestamp, err = parseTS(ts); err != nil {
			return nil, fmt.Errorf("parse turn time: %w", err)
		}
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &t.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse DESC to chronological
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// #endregion chat-log
