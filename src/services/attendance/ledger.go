package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"Backend-Attendance/src/models"
)

// Ledger persists one AttendanceRecord per (participantId, eventId).
//
// InsertOrGetExisting is a single atomic operation from the caller's view: the
// storage uniqueness constraint decides the winner of concurrent inserts and
// the loser gets the stored record back with created=false.
type Ledger interface {
	Find(ctx context.Context, participantID, eventID string) (*models.AttendanceRecord, error)
	InsertOrGetExisting(ctx context.Context, rec *models.AttendanceRecord) (stored *models.AttendanceRecord, created bool, err error)
	CountValidPresent(ctx context.Context, eventID string, participantIDs []string) (int, error)
	ListByEvent(ctx context.Context, eventID string, params models.PaginationParams) ([]models.AttendanceRecord, int64, error)
	Invalidate(ctx context.Context, participantID, eventID, by, reason string, at time.Time) (*models.AttendanceRecord, error)
}

type ledgerKey struct {
	participantID string
	eventID       string
}

// MemoryLedger is an in-process Ledger. The map key plays the role of the
// unique index.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[ledgerKey]models.AttendanceRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[ledgerKey]models.AttendanceRecord)}
}

func (m *MemoryLedger) Find(_ context.Context, participantID, eventID string) (*models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[ledgerKey{participantID, eventID}]
	if !ok {
		return nil, fmt.Errorf("attendance %s/%s: %w", participantID, eventID, models.ErrNotFound)
	}
	return &rec, nil
}

func (m *MemoryLedger) InsertOrGetExisting(_ context.Context, rec *models.AttendanceRecord) (*models.AttendanceRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ledgerKey{rec.ParticipantID, rec.EventID}
	if existing, ok := m.records[key]; ok {
		return &existing, false, nil
	}
	m.records[key] = *rec
	stored := *rec
	return &stored, true, nil
}

func (m *MemoryLedger) CountValidPresent(_ context.Context, eventID string, participantIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{}, len(participantIDs))
	n := 0
	for _, pid := range participantIDs {
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		rec, ok := m.records[ledgerKey{pid, eventID}]
		if ok && rec.IsValid && rec.Status == models.StatusPresent {
			n++
		}
	}
	return n, nil
}

func (m *MemoryLedger) ListByEvent(_ context.Context, eventID string, params models.PaginationParams) ([]models.AttendanceRecord, int64, error) {
	m.mu.Lock()
	all := make([]models.AttendanceRecord, 0)
	for k, rec := range m.records {
		if k.eventID == eventID {
			all = append(all, rec)
		}
	}
	m.mu.Unlock()

	desc := params.GetSortOrder() < 0
	sort.Slice(all, func(i, j int) bool {
		if all[i].ScannedAt.Equal(all[j].ScannedAt) {
			return all[i].ParticipantID < all[j].ParticipantID
		}
		if desc {
			return all[i].ScannedAt.After(all[j].ScannedAt)
		}
		return all[i].ScannedAt.Before(all[j].ScannedAt)
	})

	total := int64(len(all))
	start := int(params.GetSkip())
	if start >= len(all) {
		return []models.AttendanceRecord{}, total, nil
	}
	end := start + params.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *MemoryLedger) Invalidate(_ context.Context, participantID, eventID, by, reason string, at time.Time) (*models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ledgerKey{participantID, eventID}
	rec, ok := m.records[key]
	if !ok {
		return nil, fmt.Errorf("attendance %s/%s: %w", participantID, eventID, models.ErrNotFound)
	}
	if rec.IsValid {
		rec.IsValid = false
		rec.InvalidatedAt = &at
		rec.InvalidatedBy = &by
		rec.InvalidationReason = &reason
		m.records[key] = rec
	}
	return &rec, nil
}
