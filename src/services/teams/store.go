package teams

import (
	"context"
	"fmt"
	"sync"

	"Backend-Attendance/src/models"
)

// Store persists teams. (teamName, eventId) is unique, and Create rejects a
// team listing a participant who already belongs to another team of the same
// event with ErrMemberInOtherTeam.
type Store interface {
	Create(ctx context.Context, t *models.Team) error
	FindByID(ctx context.Context, teamID string) (*models.Team, error)
	FindByMember(ctx context.Context, eventID, participantID string) (*models.Team, error)
}

// SummaryStore persists one TeamAttendanceSummary per (eventId, teamId).
//
// Upsert must not replace a summary whose UpdatedAt is newer than the one
// being written, so a slow recount cannot overwrite a fresher one.
type SummaryStore interface {
	Upsert(ctx context.Context, s models.TeamAttendanceSummary) (applied bool, err error)
	Find(ctx context.Context, eventID, teamID string) (*models.TeamAttendanceSummary, error)
}

type teamNameKey struct {
	name    string
	eventID string
}

// MemoryStore is an in-process Store and SummaryStore.
type MemoryStore struct {
	mu        sync.RWMutex
	teams     map[string]models.Team
	names     map[teamNameKey]string
	summaries map[string]models.TeamAttendanceSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:     make(map[string]models.Team),
		names:     make(map[teamNameKey]string),
		summaries: make(map[string]models.TeamAttendanceSummary),
	}
}

func (m *MemoryStore) Create(_ context.Context, t *models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := teamNameKey{t.TeamName, t.EventID}
	if _, taken := m.names[key]; taken {
		return fmt.Errorf("team %q: %w", t.TeamName, models.ErrDuplicate)
	}
	if _, taken := m.teams[t.TeamID]; taken {
		return fmt.Errorf("team %s: %w", t.TeamID, models.ErrDuplicate)
	}
	for _, other := range m.teams {
		if other.EventID != t.EventID {
			continue
		}
		for _, member := range t.Members {
			if other.HasMember(member) {
				return fmt.Errorf("%w: %s", ErrMemberInOtherTeam, member)
			}
		}
	}
	cp := *t
	cp.Members = append([]string(nil), t.Members...)
	m.teams[t.TeamID] = cp
	m.names[key] = t.TeamID
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, teamID string) (*models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", teamID, models.ErrNotFound)
	}
	return &t, nil
}

func (m *MemoryStore) FindByMember(_ context.Context, eventID, participantID string) (*models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.teams {
		if t.EventID == eventID && t.HasMember(participantID) {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("team for %s in %s: %w", participantID, eventID, models.ErrNotFound)
}

func summaryKey(eventID, teamID string) string {
	return eventID + "/" + teamID
}

func (m *MemoryStore) Upsert(_ context.Context, s models.TeamAttendanceSummary) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := summaryKey(s.EventID, s.TeamID)
	if cur, ok := m.summaries[key]; ok && cur.UpdatedAt.After(s.UpdatedAt) {
		return false, nil
	}
	m.summaries[key] = s
	return true, nil
}

func (m *MemoryStore) Find(_ context.Context, eventID, teamID string) (*models.TeamAttendanceSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.summaries[summaryKey(eventID, teamID)]
	if !ok {
		return nil, fmt.Errorf("summary %s/%s: %w", eventID, teamID, models.ErrNotFound)
	}
	return &s, nil
}
