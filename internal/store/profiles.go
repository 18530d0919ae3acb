package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/companion-core/internal/profile"
)

// #region profiles
// Profiles stores one JSON profile document per user.
type Profiles struct {
	db *sql.DB
}

// #endregion profiles

// #region get
// Get returns the user's profile, or (nil, nil) when none exists.
func (p *Profiles) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	var raw string
	err := p.db.QueryRowContext(ctx,
		`SELECT profile_json FROM profiles WHERE user_id = ?`, userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	var prof profile.Profile
	if err := json.Unmarshal([]byte(raw), &prof); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &prof, nil
}

// Exists reports whether the user has a profile.
func (p *Profiles) Exists(ctx context.Context, userID string) (bool, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles WHERE user_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("profile exists: %w", err)
	}
	return n > 0, nil
}

// #endregion get

// #region create
// Create stores a new profile. Returns ErrExists if the user already has one.
func (p *Profiles) Create(ctx context.Context, userID string, prof profile.Profile) error {
	b, err := json.Marshal(prof)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	now := formatTS(time.Now())
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, profile_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?) ON CONFLICT(user_id) DO NOTHING`,
		userID, string(b), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExists
	}
	return nil
}

// #endregion create

// #region update
// Update merges partial into the stored profile (see Merge) and returns the result.
// Values in partial may be typed (e.g. []profile.Memory); they are normalized to JSON first.
func (p *Profiles) Update(ctx context.Context, userID string, partial map[string]any) (*profile.Profile, error) {
	patch, err := toDocument(partial)
	if err != nil {
		return nil, err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT profile_json FROM profiles WHERE user_id = ?`, userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var current map[string]any
	if err := json.Unmarshal([]byte(raw), &current); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	merged := Merge(current, patch)

	b, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	var prof profile.Profile
	if err := json.Unmarshal(b, &prof); err != nil {
		return nil, fmt.Errorf("merged profile is invalid: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE profiles SET profile_json = ?, updated_at = ? WHERE user_id = ?`,
		string(b), formatTS(time.Now()), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &prof, nil
}

// #endregion update
