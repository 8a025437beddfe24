package models

import "time"

// Session is a time-boxed, optionally geofenced authorization to mark attendance
// at one event. ExpiresAt (epoch ms) is authoritative for validation;
// ExpiresAtMirror carries the same instant as a BSON date for the TTL index.
type Session struct {
	SessionID       string    `json:"sessionId" bson:"sessionId"`
	EventID         string    `json:"eventId" bson:"eventId"`
	IssuerID        string    `json:"issuerId" bson:"issuerId"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	ExpiresAt       int64     `json:"expiresAt" bson:"expiresAt"`
	ExpiresAtMirror time.Time `json:"-" bson:"expiresAtMirror"`
	GeoFenceEnabled bool      `json:"geoFenceEnabled" bson:"geoFenceEnabled"`
	GeoLatitude     *float64  `json:"geoLatitude,omitempty" bson:"geoLatitude,omitempty"`
	GeoLongitude    *float64  `json:"geoLongitude,omitempty" bson:"geoLongitude,omitempty"`
	GeoRadiusMeters *float64  `json:"geoRadiusMeters,omitempty" bson:"geoRadiusMeters,omitempty"`
}

// ExpiresAtTime converts the authoritative expiry to a time.Time.
func (s *Session) ExpiresAtTime() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}

// ExpiredAt reports whether the session is logically dead at now.
// A session is rejected from its expiry instant onwards.
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.UnixMilli() >= s.ExpiresAt
}

// Geofence is the circular area a scan must originate from.
type Geofence struct {
	Latitude     float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64 `json:"longitude" validate:"gte=-180,lte=180"`
	RadiusMeters float64 `json:"radiusMeters" validate:"gt=0"`
}

// IssueSessionRequest is the organizer's body for POST /api/sessions.
type IssueSessionRequest struct {
	EventID    string    `json:"eventId" validate:"required"`
	TTLSeconds int       `json:"ttlSeconds" validate:"gte=0"`
	Geofence   *Geofence `json:"geofence,omitempty"`
}

// SessionPayload is the JSON embedded in the QR image.
type SessionPayload struct {
	SessionID       string   `json:"sessionId"`
	EventID         string   `json:"eventId"`
	ExpiresAt       int64    `json:"expiresAt"`
	GeoFenceEnabled bool     `json:"geoFenceEnabled,omitempty"`
	GeoLatitude     *float64 `json:"geoLatitude,omitempty"`
	GeoLongitude    *float64 `json:"geoLongitude,omitempty"`
	GeoRadiusMeters *float64 `json:"geoRadiusMeters,omitempty"`
}

// IssuedSession is returned to the organizer after issuing.
type IssuedSession struct {
	Payload SessionPayload `json:"payload"`
	QRText  string         `json:"qrText"`
}
