package seeder

import (
	"context"
	"errors"
	"fmt"
	"log"

	"Backend-Attendance/src/models"
	"Backend-Attendance/src/services/teams"
)

// DirectoryWriter stores events and participants.
type DirectoryWriter interface {
	UpsertEvent(ctx context.Context, ev models.Event) error
	UpsertParticipant(ctx context.Context, p models.Participant) error
}

type TeamRegistrar interface {
	Register(ctx context.Context, req models.RegisterTeamRequest) (*models.Team, error)
}

// DemoEventID is the event the sample data is attached to.
const DemoEventID = "demo-hackathon"

var demoEvents = []models.Event{
	{EventID: DemoEventID, Title: "Campus Hackathon"},
	{EventID: "demo-orientation", Title: "Freshmen Orientation"},
}

var demoParticipants = []models.Participant{
	{ParticipantID: "6400000001", Name: "สมชาย ใจดี", Email: "somchai@example.com"},
	{ParticipantID: "6400000002", Name: "สมหญิง รักดี", Email: "somying@example.com"},
	{ParticipantID: "6400000003", Name: "Alice Walker", Email: "alice@example.com"},
	{ParticipantID: "6400000004", Name: "Bob Stone", Email: "bob@example.com"},
}

var demoTeams = []models.RegisterTeamRequest{
	{TeamName: "Bluelock", EventID: DemoEventID, CaptainID: "6400000001", Members: []string{"6400000001", "6400000002"}, TotalMembers: 2},
	{TeamName: "Rockets", EventID: DemoEventID, CaptainID: "6400000003", Members: []string{"6400000003", "6400000004"}, TotalMembers: 2},
}

// SeedDemoData creates sample events, participants and teams for local runs.
// Running it twice is harmless: existing teams are left alone.
func SeedDemoData(ctx context.Context, dir DirectoryWriter, registry TeamRegistrar) error {
	for _, ev := range demoEvents {
		if err := dir.UpsertEvent(ctx, ev); err != nil {
			return fmt.Errorf("seed event %s: %w", ev.EventID, err)
		}
	}
	for _, p := range demoParticipants {
		if err := dir.UpsertParticipant(ctx, p); err != nil {
			return fmt.Errorf("seed participant %s: %w", p.ParticipantID, err)
		}
	}

	for _, req := range demoTeams {
		team, err := registry.Register(ctx, req)
		if errors.Is(err, teams.ErrTeamNameTaken) || errors.Is(err, teams.ErrMemberInOtherTeam) {
			log.Printf("ℹ️ Team %q already seeded", req.TeamName)
			continue
		}
		if err != nil {
			log.Printf("Error creating team %q: %v", req.TeamName, err)
			return err
		}
		log.Printf("✅ Created team %q (ID: %s)", team.TeamName, team.TeamID)
	}

	log.Printf("✅ Demo data ready: %d events, %d participants", len(demoEvents), len(demoParticipants))
	return nil
}
