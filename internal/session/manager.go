package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// #region manager
// Manager owns the lifecycle of per-user contexts: created on first message, refreshed on each
// message, and dropped by the store's eviction policy.
type Manager struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewManager wraps store.
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, now: time.Now, logger: logger}
}

// Open builds the backend named in cfg. The returned close func is never nil.
func Open(ctx context.Context, cfg Config) (Store, func() error, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(cfg), func() error { return nil }, nil
	case BackendRedis:
		r, err := NewRedisStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}

// #endregion manager

// #region touch
// Touch records a new message for userID and returns the updated context.
func (m *Manager) Touch(ctx context.Context, userID string) (Context, error) {
	c, err := m.Get(ctx, userID)
	if err != nil {
		return Context{}, err
	}
	c.MessageCount++
	c.LastSeen = m.now().UTC()
	if err := m.store.Put(ctx, c); err != nil {
		return Context{}, err
	}
	return c, nil
}

// Get returns the user's context, or a fresh one when none is held. It does not persist.
func (m *Manager) Get(ctx context.Context, userID string) (Context, error) {
	c, ok, err := m.store.Get(ctx, userID)
	if err != nil {
		return Context{}, err
	}
	if !ok {
		now := m.now().UTC()
		m.logger.Debug("new session", zap.String("user", userID))
		c = Context{UserID: userID, Report: NewReport(), CreatedAt: now, LastSeen: now}
	}
	return c, nil
}

// SaveReport replaces the user's report.
func (m *Manager) SaveReport(ctx context.Context, userID string, r Report) error {
	c, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	c.Report = r
	return m.store.Put(ctx, c)
}

// #endregion touch
