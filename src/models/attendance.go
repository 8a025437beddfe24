package models

import "time"

// AttendanceStatus of a participant at an event.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusAbsent  AttendanceStatus = "ABSENT"
)

// AttendanceRecord is the single ledger entry for (participantId, eventId).
// Records are never deleted; an auditor may soft-invalidate them.
type AttendanceRecord struct {
	ParticipantID      string           `json:"participantId" bson:"participantId"`
	EventID            string           `json:"eventId" bson:"eventId"`
	SessionID          *string          `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	TeamID             *string          `json:"teamId,omitempty" bson:"teamId,omitempty"`
	Status             AttendanceStatus `json:"status" bson:"status"`
	ScannedAt          time.Time        `json:"scannedAt" bson:"scannedAt"`
	IsValid            bool             `json:"isValid" bson:"isValid"`
	InvalidatedAt      *time.Time       `json:"invalidatedAt,omitempty" bson:"invalidatedAt,omitempty"`
	InvalidatedBy      *string          `json:"invalidatedBy,omitempty" bson:"invalidatedBy,omitempty"`
	InvalidationReason *string          `json:"invalidationReason,omitempty" bson:"invalidationReason,omitempty"`
}

// InvalidateRequest is the auditor's body for soft-invalidating a record.
type InvalidateRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
