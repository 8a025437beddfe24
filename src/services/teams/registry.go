package teams

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"Backend-Attendance/src/models"

	"github.com/google/uuid"
)

var (
	ErrMemberCountMismatch = errors.New("totalMembers must equal the number of members")
	ErrCaptainNotMember    = errors.New("captain must be one of the members")
	ErrDuplicateMember     = errors.New("members must be unique")
	ErrMemberInOtherTeam   = errors.New("participant already belongs to a team for this event")
	ErrTeamNameTaken       = errors.New("team name already registered for this event")
	ErrEventNotFound       = errors.New("event not found")
)

// EventLookup is the subset of the directory used for registration.
type EventLookup interface {
	FindEvent(ctx context.Context, eventID string) (*models.Event, error)
}

// Registry registers teams.
type Registry struct {
	store  Store
	events EventLookup
	now    func() time.Time
	newID  func() string
}

func NewRegistry(store Store, events EventLookup) *Registry {
	return &Registry{store: store, events: events, now: time.Now, newID: uuid.NewString}
}

// Register validates and stores a team. A participant may belong to at most
// one team per event so that a scan maps to a single summary.
func (r *Registry) Register(ctx context.Context, req models.RegisterTeamRequest) (*models.Team, error) {
	members := make([]string, 0, len(req.Members))
	seen := make(map[string]struct{}, len(req.Members))
	for _, m := range req.Members {
		m = strings.TrimSpace(m)
		if _, dup := seen[m]; dup {
			return nil, ErrDuplicateMember
		}
		seen[m] = struct{}{}
		members = append(members, m)
	}
	if req.TotalMembers != len(members) {
		return nil, ErrMemberCountMismatch
	}
	if _, ok := seen[req.CaptainID]; !ok {
		return nil, ErrCaptainNotMember
	}

	if r.events != nil {
		if _, err := r.events.FindEvent(ctx, req.EventID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, ErrEventNotFound
			}
			return nil, err
		}
	}

	for _, m := range members {
		_, err := r.store.FindByMember(ctx, req.EventID, m)
		if err == nil {
			return nil, fmt.Errorf("%w: %s", ErrMemberInOtherTeam, m)
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	team := &models.Team{
		TeamID:             r.newID(),
		TeamName:           strings.TrimSpace(req.TeamName),
		EventID:            req.EventID,
		CaptainID:          req.CaptainID,
		Members:            members,
		TotalMembers:       len(members),
		RegistrationStatus: models.TeamRegistrationPending,
		CreatedAt:          r.now().UTC(),
	}
	// the lookup above is a fast path; Create is the authoritative check
	if err := r.store.Create(ctx, team); err != nil {
		switch {
		case errors.Is(err, ErrMemberInOtherTeam):
			return nil, err
		case errors.Is(err, models.ErrDuplicate):
			return nil, ErrTeamNameTaken
		}
		return nil, err
	}

	log.Printf("✅ [RegisterTeam] team=%s name=%q event=%s members=%d", team.TeamID, team.TeamName, team.EventID, team.TotalMembers)
	return team, nil
}

// Get returns a team by id.
func (r *Registry) Get(ctx context.Context, teamID string) (*models.Team, error) {
	t, err := r.store.FindByID(ctx, teamID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	return t, err
}
