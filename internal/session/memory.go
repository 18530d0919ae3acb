package session

import (
	"context"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps contexts in a size- and TTL-bounded LRU inside the process.
type MemoryStore struct {
	cache *expirable.LRU[string, Context]
}

// NewMemoryStore creates a store holding at most size users, each expiring ttl after its last write.
func NewMemoryStore(cfg Config) *MemoryStore {
	size := cfg.MaxUsers
	if size <= 0 {
		size = DefaultConfig().MaxUsers
	}
	return &MemoryStore{cache: expirable.NewLRU[string, Context](size, nil, cfg.TTL)}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (Context, bool, error) {
	c, ok := m.cache.Get(userID)
	return c, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, c Context) error {
	m.cache.Add(c.UserID, c)
	return nil
}

// Len reports how many users are held.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}
