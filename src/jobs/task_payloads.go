package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TypeTeamRecompute recounts a team's attendance summary.
const TypeTeamRecompute = "team:recompute"

type TeamRecomputePayload struct {
	EventID string `json:"event_id"`
	TeamID  string `json:"team_id"`
}

func NewTeamRecomputeTask(eventID, teamID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TeamRecomputePayload{EventID: eventID, TeamID: teamID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTeamRecompute, payload), nil
}
