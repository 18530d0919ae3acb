package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// #region store-interface
// Store persists interaction history.
type Store interface {
	Append(ctx context.Context, userID string, e Entry) error
	History(ctx context.Context, userID string) ([]Entry, error)
}

// #endregion store-interface

// #region service
// Service logs interactions and serves aggregated preferences.
type Service struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a Service. logger may be nil.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, now: time.Now, logger: logger}
}

// #endregion service

// #region log-interaction
// LogInteraction validates and appends one interaction.
func (s *Service) LogInteraction(ctx context.Context, userID, suggestionID string, action Action, meta Meta, rating *int) (Entry, error) {
	if strings.TrimSpace(suggestionID) == "" {
		return Entry{}, ErrMissingSuggestion
	}
	if !action.Valid() {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return Entry{}, fmt.Errorf("%w: got %d", ErrInvalidRating, *rating)
	}

	e := Entry{
		Timestamp:    s.now().UTC(),
		SuggestionID: suggestionID,
		Action:       action,
		Rating:       rating,
		Meta:         meta,
	}
	if err := s.store.Append(ctx, userID, e); err != nil {
		return Entry{}, fmt.Errorf("log interaction: %w", err)
	}
	s.logger.Info("interaction logged",
		zap.String("user_id", userID),
		zap.String("suggestion_id", suggestionID),
		zap.String("action", string(action)),
	)
	return e, nil
}

// #endregion log-interaction

// #region preferences
// Preferences loads a user's history and aggregates it.
func (s *Service) Preferences(ctx context.Context, userID string) (Preferences, error) {
	history, err := s.store.History(ctx, userID)
	if err != nil {
		return Preferences{}, fmt.Errorf("load feedback: %w", err)
	}
	return Aggregate(history), nil
}

// #endregion preferences
