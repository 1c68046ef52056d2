package store

import (
	"context"
	"fmt"
	"sync"

	"cybernauts/backend/internal/domain"
)

// MemoryStore is an in-process Store used by tests and STORE_BACKEND=memory.
// Records are cloned on the way in and out so callers never share slices.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
	err   error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]domain.User)}
}

// WithError makes every subsequent call fail with err (nil restores normal behaviour)
func (m *MemoryStore) WithError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return domain.User{}, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u.Clone(), nil
}

func (m *MemoryStore) FindByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]domain.User, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	page, total := pageOf(m.snapshot(), opts)
	return page, total, nil
}

func (m *MemoryStore) All(_ context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	all := m.snapshot()
	sortUsers(all)
	return all, nil
}

func (m *MemoryStore) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.users)), nil
}

func (m *MemoryStore) Insert(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, exists := m.users[user.ID]; exists {
		return fmt.Errorf("duplicate user id %q", user.ID)
	}
	m.users[user.ID] = user.Clone()
	return nil
}

func (m *MemoryStore) Update(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, exists := m.users[user.ID]; !exists {
		return ErrNotFound
	}
	m.users[user.ID] = user.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, exists := m.users[id]; !exists {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// DeleteAll drops every record
func (m *MemoryStore) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.users))
	m.users = make(map[string]domain.User)
	return n, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *MemoryStore) Close(context.Context) error {
	return nil
}

// snapshot copies all records; caller holds the read lock
func (m *MemoryStore) snapshot() []domain.User {
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Clone())
	}
	return out
}
