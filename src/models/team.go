package models

import (
	"math"
	"time"
)

// Team registration states.
const (
	TeamRegistrationPending   = "PENDING"
	TeamRegistrationConfirmed = "CONFIRMED"
	TeamRegistrationRejected  = "REJECTED"
)

// TeamMembersIndex is the unique (eventId, members) index on the teams
// collection; a participant can be listed by only one team per event.
const TeamMembersIndex = "uniq_event_members"

// Team groups participants of one event; (teamName, eventId) is unique.
type Team struct {
	TeamID             string    `json:"teamId" bson:"teamId"`
	TeamName           string    `json:"teamName" bson:"teamName"`
	EventID            string    `json:"eventId" bson:"eventId"`
	CaptainID          string    `json:"captainId" bson:"captainId"`
	Members            []string  `json:"members" bson:"members"`
	TotalMembers       int       `json:"totalMembers" bson:"totalMembers"`
	RegistrationStatus string    `json:"registrationStatus" bson:"registrationStatus"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdAt"`
}

// HasMember reports whether participantID belongs to the team.
func (t *Team) HasMember(participantID string) bool {
	for _, m := range t.Members {
		if m == participantID {
			return true
		}
	}
	return false
}

// RegisterTeamRequest is the body for POST /api/teams.
type RegisterTeamRequest struct {
	TeamName     string   `json:"teamName" validate:"required,max=120"`
	EventID      string   `json:"eventId" validate:"required"`
	CaptainID    string   `json:"captainId" validate:"required"`
	Members      []string `json:"members" validate:"required,min=1,unique,dive,required"`
	TotalMembers int      `json:"totalMembers" validate:"required,gt=0"`
}

// TeamAttendanceSummary is recomputed from a fresh count after every relevant write.
type TeamAttendanceSummary struct {
	EventID              string    `json:"eventId" bson:"eventId"`
	TeamID               string    `json:"teamId" bson:"teamId"`
	MembersPresent       int       `json:"membersPresent" bson:"membersPresent"`
	MembersAbsent        int       `json:"membersAbsent" bson:"membersAbsent"`
	TotalMembers         int       `json:"totalMembers" bson:"totalMembers"`
	AttendancePercentage int       `json:"attendancePercentage" bson:"attendancePercentage"`
	UpdatedAt            time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewTeamAttendanceSummary derives absent count and percentage from a present count.
// present is clamped to [0, total] so the sum invariant always holds.
func NewTeamAttendanceSummary(eventID, teamID string, present, total int, now time.Time) TeamAttendanceSummary {
	if total < 0 {
		total = 0
	}
	if present < 0 {
		present = 0
	}
	if present > total {
		present = total
	}

	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(present) / float64(total) * 100))
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	return TeamAttendanceSummary{
		EventID:              eventID,
		TeamID:               teamID,
		MembersPresent:       present,
		MembersAbsent:        total - present,
		TotalMembers:         total,
		AttendancePercentage: pct,
		UpdatedAt:            now,
	}
}
