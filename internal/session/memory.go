package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Expired entries are dropped
// lazily when touched.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session), now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) live(id string) (Session, bool) {
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	if !s.ExpiresAt.After(m.now()) {
		delete(m.sessions, id)
		return Session{}, false
	}
	return s, true
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.live(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Put(_ context.Context, s Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ExpiresAt = m.now().Add(ttl)
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.live(id); !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Expire(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.live(id)
	if !ok {
		return ErrNotFound
	}
	s.ExpiresAt = m.now().Add(ttl)
	m.sessions[id] = s
	return nil
}

func (m *MemoryStore) DeleteByUser(_ context.Context, userID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id := range m.sessions {
		s, ok := m.live(id)
		if !ok || s.UserID != userID {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	return removed, nil
}
