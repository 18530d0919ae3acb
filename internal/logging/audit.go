package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/companion-core/internal/phase"
)

const tsLayout = "2006-01-02T15:04:05.000000000Z"

// #region auditor
// Auditor appends phase decisions to phase_log. The table is created by store.Open.
type Auditor struct {
	db *sql.DB
}

// NewAuditor wraps db.
func NewAuditor(db *sql.DB) *Auditor {
	return &Auditor{db: db}
}

// #endregion auditor

// #region record
// Record writes rec. A missing turn id or timestamp is filled in.
func (a *Auditor) Record(ctx context.Context, rec PhaseRecord) error {
	if rec.TurnID == "" {
		rec.TurnID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	var reasons any
	if len(rec.Reasons) > 0 {
		b, err := json.Marshal(rec.Reasons)
		if err != nil {
			return fmt.Errorf("marshal reasons: %w", err)
		}
		reasons = string(b)
	}

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO phase_log (turn_id, user_id, source, phase, stress, burnout, danger, chaos, crisis, retracted, reasons_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TurnID,
		rec.UserID,
		string(rec.Source),
		rec.Phase.String(),
		rec.Stress,
		rec.Burnout,
		rec.Danger,
		rec.Chaos,
		boolInt(rec.Crisis),
		boolInt(rec.Retracted),
		reasons,
		rec.CreatedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("record phase: %w", err)
	}
	return nil
}

// #endregion record

// #region recent
// Recent returns up to limit of the user's latest decisions, newest first.
func (a *Auditor) Recent(ctx context.Context, userID string, limit int) ([]PhaseRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT turn_id, user_id, source, phase, stress, burnout, danger, chaos, crisis, retracted, reasons_json, created_at
		 FROM phase_log WHERE user_id = ? ORDER BY seq DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query phase log: %w", err)
	}
	defer rows.Close()

	var out []PhaseRecord
	for rows.Next() {
		var (
			rec               PhaseRecord
			source, ph, ts    string
			crisis, retracted int
			reasons           sql.NullString
		)
		if err := rows.Scan(&rec.TurnID, &rec.UserID, &source, &ph, &rec.Stress, &rec.Burnout,
			&rec.Danger, &rec.Chaos, &crisis, &retracted, &reasons, &ts); err != nil {
			return nil, fmt.Errorf("scan phase log: %w", err)
		}
		rec.Source = Source(source)
		if rec.Phase, err = phase.Parse(ph); err != nil {
			return nil, fmt.Errorf("phase log row %s: %w", rec.TurnID, err)
		}
		rec.Crisis = crisis != 0
		rec.Retracted = retracted != 0
		if reasons.Valid {
			if err := json.Unmarshal([]byte(reasons.String), &rec.Reasons); err != nil {
				return nil, fmt.Errorf("phase log reasons: %w", err)
			}
		}
		if rec.CreatedAt, err = time.Parse(tsLayout, ts); err != nil {
			return nil, fmt.Errorf("phase log time: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion recent

// #region helpers
func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
