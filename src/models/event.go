package models

// Event is the read-only view of an event owned by the event-management side.
type Event struct {
	EventID string `json:"eventId" bson:"eventId"`
	Title   string `json:"title" bson:"title"`
}

// Participant is the read-only view of a participant profile.
type Participant struct {
	ParticipantID string `json:"participantId" bson:"participantId"`
	Name          string `json:"name" bson:"name"`
	Email         string `json:"email,omitempty" bson:"email,omitempty"`
}
