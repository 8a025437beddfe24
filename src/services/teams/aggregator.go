// Package teams registers teams and keeps their attendance summaries.
package teams

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"Backend-Attendance/src/models"
)

var (
	ErrTeamNotFound  = errors.New("team not found")
	ErrEventMismatch = errors.New("team does not belong to this event")
)

// PresenceCounter counts valid PRESENT records among participants.
type PresenceCounter interface {
	CountValidPresent(ctx context.Context, eventID string, participantIDs []string) (int, error)
}

// Aggregator recomputes team summaries from scratch. A recount is idempotent,
// so retries, duplicates and out-of-order triggers all converge.
type Aggregator struct {
	teams     Store
	counter   PresenceCounter
	summaries SummaryStore
	now       func() time.Time
	onApplied func(models.TeamAttendanceSummary)
}

type AggregatorOption func(*Aggregator)

func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// WithOnApplied registers a hook called after a summary is stored.
func WithOnApplied(fn func(models.TeamAttendanceSummary)) AggregatorOption {
	return func(a *Aggregator) { a.onApplied = fn }
}

func NewAggregator(teams Store, counter PresenceCounter, summaries SummaryStore, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{teams: teams, counter: counter, summaries: summaries, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Recompute counts the team's present members and stores the summary.
func (a *Aggregator) Recompute(ctx context.Context, eventID, teamID string) (*models.TeamAttendanceSummary, error) {
	// stamp before counting so a later recount always wins the upsert
	startedAt := a.now().UTC()

	team, err := a.teams.FindByID(ctx, teamID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	if team.EventID != eventID {
		return nil, ErrEventMismatch
	}

	present, err := a.counter.CountValidPresent(ctx, eventID, team.Members)
	if err != nil {
		return nil, fmt.Errorf("count present: %w", err)
	}

	summary := models.NewTeamAttendanceSummary(eventID, teamID, present, team.TotalMembers, startedAt)
	applied, err := a.summaries.Upsert(ctx, summary)
	if err != nil {
		return nil, err
	}
	if !applied {
		log.Printf("↩️ [TeamRecompute] Newer summary already stored: event=%s team=%s", eventID, teamID)
		return a.summaries.Find(ctx, eventID, teamID)
	}

	if a.onApplied != nil {
		a.onApplied(summary)
	}
	log.Printf("✅ [TeamRecompute] event=%s team=%s present=%d/%d (%d%%)",
		eventID, teamID, summary.MembersPresent, summary.TotalMembers, summary.AttendancePercentage)
	return &summary, nil
}

// Summary returns the stored summary, computing it on first request.
func (a *Aggregator) Summary(ctx context.Context, eventID, teamID string) (*models.TeamAttendanceSummary, error) {
	s, err := a.summaries.Find(ctx, eventID, teamID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	return a.Recompute(ctx, eventID, teamID)
}
