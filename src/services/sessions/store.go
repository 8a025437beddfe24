package sessions

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"Backend-Attendance/src/models"
)

// Store persists sessions. Sessions are immutable once created.
type Store interface {
	Create(ctx context.Context, s *models.Session) error
	FindByID(ctx context.Context, sessionID string) (*models.Session, error)
	ListActiveByEvent(ctx context.Context, eventID string, now time.Time) ([]models.Session, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// MemoryStore keeps sessions in process. It has no TTL monitor, so only the
// Reaper removes expired entries.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.Session)}
}

func (m *MemoryStore) Create(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.SessionID]; exists {
		return fmt.Errorf("session %s: %w", s.SessionID, models.ErrDuplicate)
	}
	m.sessions[s.SessionID] = *s
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	return &s, nil
}

func (m *MemoryStore) ListActiveByEvent(_ context.Context, eventID string, now time.Time) ([]models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Session, 0)
	for _, s := range m.sessions {
		if s.EventID == eventID && !s.ExpiredAt(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt > out[j].ExpiresAt })
	return out, nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if !s.ExpiresAtMirror.After(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
