package sessions

import (
	"Backend-Attendance/src/models"

	"github.com/bytedance/sonic"
)

// PayloadFor builds the QR payload for a session.
func PayloadFor(s *models.Session) models.SessionPayload {
	p := models.SessionPayload{
		SessionID: s.SessionID,
		EventID:   s.EventID,
		ExpiresAt: s.ExpiresAt,
	}
	if s.GeoFenceEnabled {
		p.GeoFenceEnabled = true
		p.GeoLatitude = s.GeoLatitude
		p.GeoLongitude = s.GeoLongitude
		p.GeoRadiusMeters = s.GeoRadiusMeters
	}
	return p
}

// EncodePayload returns the exact text embedded in the QR image. The payload is
// plain JSON and carries no signature.
func EncodePayload(p models.SessionPayload) (string, error) {
	return sonic.MarshalString(p)
}
